package user

import (
	"net/http"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/controller"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/middleware"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	submissionService service.SubmissionService
}

func NewSubmissionController(submissionService service.SubmissionService) *SubmissionController {
	return &SubmissionController{submissionService: submissionService}
}

// Submit godoc
// @Summary Record a paper submission
// @Description Records marks and time spent for the caller. Resubmitting creates another record.
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Param submission body dto.SubmissionCreateRequest true "Marks and time spent in seconds"
// @Success 200 {object} dto.SubmissionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Router /papers/{id}/submit [post]
func (s *SubmissionController) Submit(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		controller.AbortWithError(ctx, apperror.ErrUnauthenticated)
		return
	}
	paperID, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	var req dto.SubmissionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.AbortWithBindError(ctx, err)
		return
	}
	sub, err := s.submissionService.Record(paperID, user.ID, req)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sub)
}

// ListMine godoc
// @Summary List the caller's submissions
// @Description Oldest first.
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.SubmissionResponse
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Router /papers/submissions/user [get]
func (s *SubmissionController) ListMine(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		controller.AbortWithError(ctx, apperror.ErrUnauthenticated)
		return
	}
	subs, err := s.submissionService.ListForUser(user.ID)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, subs)
}

// Stats godoc
// @Summary Aggregate statistics over the caller's submissions
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubmissionStatsResponse
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Router /papers/submissions/user/stats [get]
func (s *SubmissionController) Stats(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		controller.AbortWithError(ctx, apperror.ErrUnauthenticated)
		return
	}
	stats, err := s.submissionService.StatsForUser(user.ID)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
