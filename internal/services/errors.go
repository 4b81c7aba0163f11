package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all services. Handlers translate these into HTTP
// statuses with errors.Is; everything else is treated as a store failure.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrBusinessRule     = errors.New("business rule violated")

	ErrPostNotFound   = errors.New("post not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrUserNotFound   = errors.New("user not found")

	ErrSelfReview       = fmt.Errorf("%w: you cannot review your own post", ErrBusinessRule)
	ErrDuplicateReview  = fmt.Errorf("%w: you have already reviewed this post", ErrBusinessRule)
	ErrAlreadyModerated = fmt.Errorf("%w: review has already been moderated", ErrBusinessRule)
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound) ||
		errors.Is(err, ErrReviewNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
