package core

// error_messages.go turns technical errors into user-facing messages with a
// short code support can look up.
//
// # Validation (VAL001-VAL099)
//
//	VAL001 - Phone or guardian mobile is not exactly 10 characters
//	VAL002 - Age or shirt number is not a whole number
//	VAL003 - No photo attached
//	VAL004 - Photo file name has no usable extension
//	VAL005 - A required text field is missing or empty
//
// # Database (DB000-DB099)
//
// Every persistence failure is shown as "Database Error: <cause>" where cause
// is the store's own message. The code narrows it down:
//
//	DB000 - Unclassified store failure
//	DB001 - Duplicate key
//	DB002 - Unique constraint
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//
// # Other
//
//	FILE001 - Request body over the configured size limit
//	AUTH001 - Wrong admin username or password
//	UPL002  - Too many registrations in flight
//	UPL004  - Request cancelled
//	UPL005  - Request timed out
//	RATE001 - Rate limited
//	ERR000  - Anything else; check the server log by request id

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// knownErrors maps sentinel errors to their message. Checked before patterns.
var knownErrors = []struct {
	err error
	msg UserMessage
}{
	{ErrPhoneLength, UserMessage{
		Message: "Error: Phone numbers must be exactly 10 digits!",
		Action:  "Check the player and guardian mobile numbers",
		Code:    "VAL001",
	}},
	{ErrNotANumber, UserMessage{
		Message: "Error: Age and shirt number must be whole numbers!",
		Action:  "Enter digits only",
		Code:    "VAL002",
	}},
	{ErrPhotoRequired, UserMessage{
		Message: "Photo is required.",
		Action:  "Attach a photo of the player",
		Code:    "VAL003",
	}},
	{ErrPhotoExtension, UserMessage{
		Message: "Error: Photo file name must end with an extension such as .jpg",
		Action:  "Rename the photo and upload it again",
		Code:    "VAL004",
	}},
	{ErrMissingField, UserMessage{
		Message: "Error: Please fill in all required fields!",
		Action:  "Complete every field marked as required",
		Code:    "VAL005",
	}},
	{ErrPayloadTooLarge, UserMessage{
		Message: "The submitted form is too large",
		Action:  "Use a smaller photo (16 MB at most)",
		Code:    "FILE001",
	}},
	{ErrInvalidCredentials, UserMessage{
		Message: "Invalid Username or Password",
		Action:  "Check your credentials and try again",
		Code:    "AUTH001",
	}},
	{ErrTooManySubmissions, UserMessage{
		Message: "System is busy processing other registrations",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{Message: "A record with this ID already exists", Action: "Please submit the form again", Code: "DB001"}},
	{"unique constraint", UserMessage{Message: "This value must be unique but already exists", Action: "Please submit the form again", Code: "DB002"}},
	{"violates unique", UserMessage{Message: "This value must be unique but already exists", Action: "Please submit the form again", Code: "DB002"}},
	{"connection refused", UserMessage{Message: "Unable to connect to database", Action: "Please try again in a few moments", Code: "DB004"}},
	{"connection reset", UserMessage{Message: "Database connection was interrupted", Action: "Please try again", Code: "DB005"}},
	{"deadlock", UserMessage{Message: "Database was busy with conflicting operations", Action: "Please try again", Code: "DB007"}},
	{"context canceled", UserMessage{Message: "Request was cancelled", Action: "Please try again", Code: "UPL004"}},
	{"context deadline exceeded", UserMessage{Message: "Request timed out", Action: "Check your connection and try again", Code: "UPL005"}},
	{"timeout", UserMessage{Message: "Operation timed out", Action: "Please try again later", Code: "DB006"}},
	{"rate limit", UserMessage{Message: "Too many requests", Action: "Please wait a moment before trying again", Code: "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return k.msg
		}
	}

	pattern, matched := matchPattern(err)

	if errors.Is(err, ErrPersistence) {
		msg := UserMessage{Action: "Please try again", Code: "DB000"}
		if matched {
			msg.Action, msg.Code = pattern.Action, pattern.Code
		}
		msg.Message = "Database Error: " + Cause(err).Error()
		return msg
	}

	if matched {
		return pattern
	}
	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
