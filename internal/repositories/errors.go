package repositories

import (
	stderrors "errors"

	"github.com/mroshb/match_engine/pkg/errors"
	"gorm.io/gorm"
)

// wrapDBError maps gorm errors onto the engine's error codes. Duplicate keys
// are only recognised when the connection was opened with TranslateError.
func wrapDBError(err error, message string) error {
	var appErr *errors.AppError
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(err, errors.ErrCodeNotFound, message)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(err, errors.ErrCodeAlreadyExists, message)
	case stderrors.As(err, &appErr):
		return errors.Wrap(err, appErr.Code, message)
	case stderrors.Is(err, gorm.ErrInvalidData):
		return errors.Wrap(err, errors.ErrCodeValidation, message)
	default:
		return errors.Wrap(err, errors.ErrCodeStorageUnavailable, message)
	}
}
