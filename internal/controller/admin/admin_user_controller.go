package admin

import (
	"net/http"

	"github.com/chempartner/paperdesk/internal/controller"
	"github.com/chempartner/paperdesk/internal/middleware"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AdminUserController struct {
	authService service.AuthService
}

func NewAdminUserController(authService service.AuthService) *AdminUserController {
	return &AdminUserController{authService: authService}
}

// PromoteUser godoc
// @Summary (Admin) Grant admin rights to a user
// @Tags Admin - Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Failure 403 {object} dto.ErrorResponse "Not enough permissions"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/admin [put]
func (a *AdminUserController) PromoteUser(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	user, err := a.authService.PromoteToAdmin(id)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	if caller, ok := middleware.CurrentUser(ctx); ok {
		log.Info().Uint("userID", user.ID).Uint("promotedBy", caller.ID).Msg("Admin PromoteUser: user promoted")
	}
	ctx.JSON(http.StatusOK, user)
}
