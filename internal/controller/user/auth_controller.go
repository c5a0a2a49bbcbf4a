package user

import (
	"net/http"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/controller"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/middleware"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register godoc
// @Summary Register a new account
// @Description Creates an active, non-admin user. Email and username must be unused.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body dto.RegisterRequest true "Account details"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or email already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /register [post]
func (a *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.AbortWithBindError(ctx, err)
		return
	}
	user, err := a.authService.Register(req)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// Token godoc
// @Summary Log in
// @Description OAuth2 password flow. Returns a bearer token valid for the configured TTL.
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse "Missing form fields"
// @Failure 401 {object} dto.ErrorResponse "Incorrect username or password"
// @Router /token [post]
func (a *AuthController) Token(ctx *gin.Context) {
	var req dto.TokenRequest
	if err := ctx.ShouldBind(&req); err != nil {
		controller.AbortWithBindError(ctx, err)
		return
	}
	token, err := a.authService.Login(req)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	log.Info().Str("username", token.Username).Msg("User logged in")
	ctx.JSON(http.StatusOK, token)
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse "Inactive user"
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Router /users/me [get]
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		controller.AbortWithError(ctx, apperror.ErrUnauthenticated)
		return
	}
	var resp dto.UserResponse
	copier.Copy(&resp, user)
	ctx.JSON(http.StatusOK, resp)
}

// GetUser godoc
// @Summary Look up a user by username
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{username} [get]
func (a *AuthController) GetUser(ctx *gin.Context) {
	user, err := a.authService.GetByUsername(ctx.Param("username"))
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}
