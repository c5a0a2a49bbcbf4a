package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is the slack allowed on top of the file ceiling for the
// other form fields and multipart boundaries.
const multipartOverhead = 1 << 20

// LimitBody caps the request body so an oversized upload is refused while it
// is being read instead of after it has been spooled to disk.
func LimitBody(c *gin.Context, maxFileBytes int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFileBytes+multipartOverhead)
}

// BodyTooLarge reports whether err came from a body cut off by LimitBody.
func BodyTooLarge(err error) bool {
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig)
}

// TooLargeError is the error returned for uploads over the ceiling.
func TooLargeError(maxFileBytes int64) error {
	return apperror.New(apperror.KindTooLarge,
		fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(maxFileBytes))))
}

// FormPDF opens the named multipart file. The upload is nil when the field is
// absent and required is false. The returned close func is never nil when err
// is nil.
func FormPDF(c *gin.Context, field string, required bool, maxFileBytes int64) (*service.PDFUpload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		missing := errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)
		switch {
		case BodyTooLarge(err):
			return nil, nil, TooLargeError(maxFileBytes)
		case missing && !required:
			return nil, func() {}, nil
		case missing:
			return nil, nil, apperror.New(apperror.KindInvalidInput, fmt.Sprintf("%s is required", field))
		default:
			return nil, nil, apperror.Wrap(apperror.KindInvalidInput, "Could not read multipart form", err)
		}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindStorage, "Could not open uploaded file", err)
	}
	return &service.PDFUpload{Filename: fh.Filename, Size: fh.Size, Content: f}, func() { f.Close() }, nil
}
