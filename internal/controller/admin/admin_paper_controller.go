package admin

import (
	"net/http"

	"github.com/chempartner/paperdesk/config"
	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/controller"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/middleware"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// paperPDFField is the optional file field on paper create and update.
	paperPDFField = "pdf_file"
	// uploadField is the required file field on the upload-pdf route.
	uploadField = "file"
)

type AdminPaperController struct {
	paperService    service.PaperService
	assetService    service.PDFAssetService
	questionService service.QuestionService
	maxBytes        int64
}

func NewAdminPaperController(paperService service.PaperService, assetService service.PDFAssetService, questionService service.QuestionService, cfg *config.Config) *AdminPaperController {
	return &AdminPaperController{
		paperService:    paperService,
		assetService:    assetService,
		questionService: questionService,
		maxBytes:        cfg.Upload.MaxBytes,
	}
}

// bindPaper binds the paper fields from a JSON or multipart body and opens the
// optional pdf_file part.
func (a *AdminPaperController) bindPaper(ctx *gin.Context) (dto.PaperRequest, *service.PDFUpload, func(), bool) {
	var req dto.PaperRequest
	controller.LimitBody(ctx, a.maxBytes)
	if err := ctx.ShouldBind(&req); err != nil {
		if controller.BodyTooLarge(err) {
			controller.AbortWithError(ctx, controller.TooLargeError(a.maxBytes))
			return req, nil, nil, false
		}
		controller.AbortWithBindError(ctx, err)
		return req, nil, nil, false
	}
	pdf, closeFn, err := controller.FormPDF(ctx, paperPDFField, false, a.maxBytes)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return req, nil, nil, false
	}
	return req, pdf, closeFn, true
}

// CreatePaper godoc
// @Summary (Admin) Create a paper
// @Description Accepts multipart/form-data (with an optional pdf_file) or a JSON body. An invalid PDF rejects the whole request and no paper is created.
// @Tags Admin - Papers
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param duration_minutes formData int true "Duration in minutes"
// @Param total_marks formData int true "Total marks"
// @Param pdf_file formData file false "Paper PDF (max 10 MiB)"
// @Success 201 {object} dto.PaperResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or PDF"
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Failure 403 {object} dto.ErrorResponse "Not enough permissions"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Failure 500 {object} dto.ErrorResponse "Failed to save PDF file"
// @Router /papers/ [post]
func (a *AdminPaperController) CreatePaper(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		controller.AbortWithError(ctx, apperror.ErrUnauthenticated)
		return
	}
	req, pdf, closeFn, ok := a.bindPaper(ctx)
	if !ok {
		return
	}
	defer closeFn()

	paper, err := a.paperService.CreatePaper(ctx.Request.Context(), req, user.ID, pdf)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, paper)
}

// UpdatePaper godoc
// @Summary (Admin) Replace a paper's fields
// @Description All four fields are required. A pdf_file, when given, replaces the current PDF.
// @Tags Admin - Papers
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param duration_minutes formData int true "Duration in minutes"
// @Param total_marks formData int true "Total marks"
// @Param pdf_file formData file false "Replacement PDF (max 10 MiB)"
// @Success 200 {object} dto.PaperResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or PDF"
// @Failure 403 {object} dto.ErrorResponse "Not enough permissions"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Router /papers/{id} [put]
func (a *AdminPaperController) UpdatePaper(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	req, pdf, closeFn, ok := a.bindPaper(ctx)
	if !ok {
		return
	}
	defer closeFn()

	paper, err := a.paperService.UpdatePaper(ctx.Request.Context(), id, req, pdf)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, paper)
}

// DeletePaper godoc
// @Summary (Admin) Delete a paper and its PDF
// @Tags Admin - Papers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse "Not enough permissions"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to delete PDF file"
// @Router /papers/{id} [delete]
func (a *AdminPaperController) DeletePaper(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	if err := a.paperService.DeletePaper(ctx.Request.Context(), id); err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Paper deleted successfully"})
}

// UploadPDF godoc
// @Summary (Admin) Upload or replace a paper's PDF
// @Description The file must have a .pdf extension, start with %PDF- and be at most 10 MiB. The previous PDF is removed only after the new one is stored.
// @Tags Admin - Papers
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Param file formData file true "PDF document"
// @Success 200 {object} dto.PaperUploadResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid PDF file format"
// @Failure 403 {object} dto.ErrorResponse "Not enough permissions"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Failure 500 {object} dto.ErrorResponse "Failed to save PDF file"
// @Router /papers/{id}/upload-pdf [post]
func (a *AdminPaperController) UploadPDF(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	controller.LimitBody(ctx, a.maxBytes)
	pdf, closeFn, err := controller.FormPDF(ctx, uploadField, true, a.maxBytes)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	defer closeFn()

	resp, err := a.assetService.Attach(ctx.Request.Context(), id, pdf)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	log.Info().Uint("paperID", id).Str("filename", pdf.Filename).Msg("Admin UploadPDF: stored")
	ctx.JSON(http.StatusOK, resp)
}

// AddQuestion godoc
// @Summary (Admin) Add a question to a paper
// @Tags Admin - Papers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Param question body dto.QuestionCreateRequest true "Question"
// @Success 201 {object} dto.QuestionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Not enough permissions"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Router /papers/{id}/questions [post]
func (a *AdminPaperController) AddQuestion(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	var req dto.QuestionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.AbortWithBindError(ctx, err)
		return
	}
	question, err := a.questionService.AddQuestion(id, req)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, question)
}
