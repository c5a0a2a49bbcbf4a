package user

import (
	"fmt"
	"net/http"

	"github.com/chempartner/paperdesk/internal/controller"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type PaperController struct {
	paperService    service.PaperService
	assetService    service.PDFAssetService
	questionService service.QuestionService
}

func NewPaperController(paperService service.PaperService, assetService service.PDFAssetService, questionService service.QuestionService) *PaperController {
	return &PaperController{paperService: paperService, assetService: assetService, questionService: questionService}
}

// ListPapers godoc
// @Summary List papers
// @Tags Papers
// @Produce json
// @Security BearerAuth
// @Param offset query int false "Rows to skip" default(0)
// @Param limit query int false "Page size (max 100)" default(100)
// @Success 200 {array} dto.PaperResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid paging parameters"
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Router /papers/ [get]
func (p *PaperController) ListPapers(ctx *gin.Context) {
	var query dto.PaperListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		controller.AbortWithBindError(ctx, err)
		return
	}
	papers, err := p.paperService.ListPapers(query.Offset, query.Limit)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, papers)
}

// GetPaper godoc
// @Summary Get a paper with its questions
// @Tags Papers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Success 200 {object} dto.PaperResponse
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Router /papers/{id} [get]
func (p *PaperController) GetPaper(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	paper, err := p.paperService.GetPaper(id)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, paper)
}

// ListQuestions godoc
// @Summary List a paper's questions
// @Tags Papers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Success 200 {array} dto.QuestionResponse
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Router /papers/{id}/questions [get]
func (p *PaperController) ListQuestions(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	questions, err := p.questionService.ListQuestions(id)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

// DownloadPDF godoc
// @Summary Download a paper's PDF
// @Description The token is passed as a query parameter so the URL can be opened directly. Limited to 5 requests per minute per client address.
// @Tags Papers
// @Produce application/pdf
// @Param id path int true "Paper ID"
// @Param token query string true "Bearer token"
// @Success 200 {file} file
// @Failure 401 {object} dto.ErrorResponse "Could not validate credentials"
// @Failure 404 {object} dto.ErrorResponse "Paper or PDF not found"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Router /papers/{id}/pdf [get]
func (p *PaperController) DownloadPDF(ctx *gin.Context) {
	id, err := controller.ParseID(ctx, "id")
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	stream, err := p.assetService.Open(ctx.Request.Context(), id)
	if err != nil {
		controller.AbortWithError(ctx, err)
		return
	}
	defer stream.Body.Close()

	log.Debug().Uint("paperID", id).Int64("size", stream.Size).Msg("Serving PDF")
	ctx.DataFromReader(http.StatusOK, stream.Size, "application/pdf", stream.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, stream.Filename),
	})
}
