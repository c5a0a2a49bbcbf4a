package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// StatusOf maps an error's Kind to the HTTP status returned to the caller.
func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindUnauthenticated, apperror.KindExpired, apperror.KindInvalidToken:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound, apperror.KindAssetMissing:
		return http.StatusNotFound
	case apperror.KindInactiveAccount, apperror.KindInvalidFormat, apperror.KindInvalidInput, apperror.KindConflict:
		return http.StatusBadRequest
	case apperror.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes err as a dto.ErrorResponse and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request rejected")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Message: apperror.MessageOf(err)})
}

// AbortWithBindError reports a gin binding failure, listing each field that
// failed validation.
func AbortWithBindError(c *gin.Context, err error) {
	log.Warn().Err(err).Str("path", c.FullPath()).Msg("Failed to bind request")
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
		Message: "Invalid request body",
		Details: bindErrorDetails(err),
	})
}

func bindErrorDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			details = append(details, fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		details = append(details, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return details
}

// ParseID reads a positive numeric path parameter.
func ParseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.New(apperror.KindInvalidInput, fmt.Sprintf("Invalid %s format", name))
	}
	return uint(id), nil
}
