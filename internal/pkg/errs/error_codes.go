/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Messaging Business Logic Errors
const (
	// ErrEmptyMessage indicates that a message carried neither text nor an image payload.
	ErrEmptyMessage = 2001

	// ErrMessageContentTooLong indicates that the message text exceeded the maximum length limit.
	ErrMessageContentTooLong = 2002

	// ErrRecipientNotFound indicates that the message recipient does not correspond to a known user.
	ErrRecipientNotFound = 2003

	// ErrMessageStoreFailed indicates that persisting or reading messages from the database failed.
	ErrMessageStoreFailed = 2004
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrAlreadyLoggedIn indicates that the caller already holds a valid session token.
	ErrAlreadyLoggedIn = 3001

	// ErrInvalidEmail indicates that the supplied email address is malformed.
	ErrInvalidEmail = 3002

	// ErrInvalidFullName indicates that the supplied display name is empty or too long.
	ErrInvalidFullName = 3003

	// ErrInvalidPassword indicates that the supplied password does not meet length requirements.
	ErrInvalidPassword = 3004

	// ErrEmailAlreadyExists indicates that an account with the given email already exists.
	ErrEmailAlreadyExists = 3005

	// ErrInvalidCredentials indicates that the email/password combination is incorrect.
	ErrInvalidCredentials = 3006

	// ErrUserNotFound indicates that the requested user account does not exist.
	ErrUserNotFound = 3007

	// ErrOldPasswordInvalid indicates that the current password supplied for a password change is wrong.
	ErrOldPasswordInvalid = 3008

	// ErrUnauthorized indicates that the request lacks a valid session token.
	ErrUnauthorized = 3009
)

// 4xxx: Asset Storage Errors
const (
	// ErrFileSizeTooLarge indicates that the uploaded file exceeds the size limit.
	ErrFileSizeTooLarge = 4001

	// ErrFileTypeInvalid indicates that the file extension or MIME type is not an allowed image type.
	ErrFileTypeInvalid = 4002

	// ErrFileStorageFailed indicates a failure talking to the asset storage backend.
	ErrFileStorageFailed = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
