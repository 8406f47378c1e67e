package core

import (
	"github.com/cockroachdb/errors"
)

// Error classes. Concrete errors are marked with one of these, so callers
// test the class with errors.Is regardless of how much wrapping happened.
var (
	ErrValidation      = errors.New("validation error")
	ErrPersistence     = errors.New("persistence error")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrAuthentication  = errors.New("authentication error")
)

// Validation failures reported by Service.Register.
var (
	ErrPhoneLength    = errors.Mark(errors.New("phone numbers must be exactly 10 digits"), ErrValidation)
	ErrMissingField   = errors.Mark(errors.New("required field is empty"), ErrValidation)
	ErrNotANumber     = errors.Mark(errors.New("age and shirt number must be whole numbers"), ErrValidation)
	ErrPhotoRequired  = errors.Mark(errors.New("photo is required"), ErrValidation)
	ErrPhotoExtension = errors.Mark(errors.New("photo file name has no usable extension"), ErrValidation)
)

// ErrInvalidCredentials is returned for a failed admin login.
var ErrInvalidCredentials = errors.Mark(errors.New("invalid username or password"), ErrAuthentication)

// Photo ingestion failures. Register translates both into validation errors.
var (
	ErrMissingFile     = errors.New("no file provided")
	ErrInvalidFilename = errors.New("invalid photo file name")
)

// PayloadTooLarge reports a request body over limit bytes.
func PayloadTooLarge(limit int64) error {
	return errors.Mark(errors.Newf("request body exceeds %d bytes", limit), ErrPayloadTooLarge)
}

// persistenceError marks a store or filesystem failure. The innermost cause
// keeps the store's own message, which MapError shows to the user.
func persistenceError(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), ErrPersistence)
}

// Cause returns the innermost error of a chain.
func Cause(err error) error {
	return errors.UnwrapAll(err)
}
