package service

import (
	"errors"
	"fmt"

	"github.com/chempartner/paperdesk/internal/apperror"
	"gorm.io/gorm"
)

// lookupError turns a repository lookup failure into NotFound when the row is
// absent and into a wrapped internal error otherwise.
func lookupError(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Wrap(apperror.KindNotFound, notFoundMsg, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
