package models

import (
	"fmt"
	"regexp"

	"github.com/mroshb/match_engine/pkg/errors"
	"gorm.io/gorm"
)

// MaxUserIDLength matches the width of the user id columns.
const MaxUserIDLength = 64

// User ids are ASCII letters, digits and . : @ - only. The match id
// separator is outside this set, so MatchID is injective.
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.:@-]*$`)

// ValidateUserID rejects ids that are empty, longer than MaxUserIDLength or
// contain characters outside the allowed set.
func ValidateUserID(id string) error {
	switch {
	case id == "":
		return errors.Wrap(gorm.ErrInvalidData, errors.ErrCodeValidation, "user id is required")
	case len(id) > MaxUserIDLength:
		return errors.Wrap(gorm.ErrInvalidData, errors.ErrCodeValidation,
			fmt.Sprintf("user id is longer than %d characters", MaxUserIDLength))
	case !userIDPattern.MatchString(id):
		return errors.Wrap(gorm.ErrInvalidData, errors.ErrCodeValidation,
			fmt.Sprintf("user id %q contains invalid characters", id))
	}
	return nil
}
