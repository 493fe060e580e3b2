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

// 2xxx: Conversation and Messaging Errors
const (
	// ErrConversationInvalid indicates a malformed conversation identifier.
	ErrConversationInvalid = 2101

	// ErrUserNotFound indicates the referenced user identity is unknown to the directory.
	ErrUserNotFound = 2102

	// ErrMessageNotFound indicates the referenced message does not exist.
	ErrMessageNotFound = 2103

	// ErrPayloadTooLarge indicates message content or a file payload exceeded the configured maximum.
	ErrPayloadTooLarge = 2104

	// ErrFileMetaInvalid indicates a file message carried missing or inconsistent file metadata.
	ErrFileMetaInvalid = 2105
)

// 3xxx: Identity and Permission Errors
const (
	// ErrAuthFailed indicates the connection credential was rejected at connect time.
	ErrAuthFailed = 3001

	// ErrUnauthorized indicates an identity mismatch or a caller who is not a conversation participant.
	ErrUnauthorized = 3002

	// ErrForbidden indicates a participant attempted an action reserved for the other participant,
	// such as deleting a message they did not send.
	ErrForbidden = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailure indicates a message store call failed or timed out.
	ErrStorageFailure = 5001

	// ErrFileStorageFailed indicates an object storage operation failed.
	ErrFileStorageFailed = 5002
)
