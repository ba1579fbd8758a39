package validator

import "errors"

var (
	ErrEmptyURL      = errors.New("URL cannot be empty")
	ErrURLTooLong    = errors.New("URL is too long")
	ErrInvalidURL    = errors.New("invalid URL format")
	ErrInvalidScheme = errors.New("URL must use http or https scheme")
	ErrInvalidHost   = errors.New("URL must have a valid host")
	ErrEmptyTag      = errors.New("tags cannot be empty")
	ErrTagTooLong    = errors.New("tags must be at most 64 characters")
)

// IsValidationError reports whether err came from this package
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmptyURL, ErrURLTooLong, ErrInvalidURL, ErrInvalidScheme,
		ErrInvalidHost, ErrEmptyTag, ErrTagTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
