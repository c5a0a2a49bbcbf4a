// Package middleware holds the gin middleware shared by the user and admin
// routes.
package middleware

import (
	"strings"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/controller"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// TokenQueryParam is the query parameter read by QueryTokenUser.
const TokenQueryParam = "token"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(token string) (*model.User, error)
}

type tokenSource func(c *gin.Context) string

// BearerToken returns the token from an "Authorization: Bearer ..." header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func queryToken(c *gin.Context) string {
	if token := c.Query(TokenQueryParam); token != "" {
		return token
	}
	return BearerToken(c)
}

// ActiveUser admits requests carrying a valid bearer token for an active user.
func ActiveUser(auth Authenticator) gin.HandlerFunc {
	return guard(auth, BearerToken, false)
}

// AdminUser additionally requires the user to be an admin.
func AdminUser(auth Authenticator) gin.HandlerFunc {
	return guard(auth, BearerToken, true)
}

// QueryTokenUser is ActiveUser for link-style requests that carry the token
// in the ?token= parameter. The Authorization header is used as a fallback.
func QueryTokenUser(auth Authenticator) gin.HandlerFunc {
	return guard(auth, queryToken, false)
}

// guard checks, in order: token, user lookup, active flag, admin flag. The
// first failure aborts the request.
func guard(auth Authenticator, source tokenSource, requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := source(c)
		if token == "" {
			controller.AbortWithError(c, apperror.ErrUnauthenticated)
			return
		}
		user, err := auth.Authenticate(token)
		if err != nil {
			controller.AbortWithError(c, err)
			return
		}
		if !user.IsActive {
			controller.AbortWithError(c, apperror.ErrInactiveAccount)
			return
		}
		if requireAdmin && !user.IsAdmin {
			controller.AbortWithError(c, apperror.New(apperror.KindForbidden, "Not enough permissions"))
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by one of the guards.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
