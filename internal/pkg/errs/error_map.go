/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Conversation and Messaging Errors
	ErrConversationInvalid: {Code: ErrConversationInvalid, Message: "Invalid conversation."},
	ErrUserNotFound:        {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrMessageNotFound:     {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrPayloadTooLarge:     {Code: ErrPayloadTooLarge, Message: "Message is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrFileMetaInvalid:     {Code: ErrFileMetaInvalid, Message: "Invalid file attachment."},

	// 3xxx: Identity and Permission Errors
	ErrAuthFailed:   {Code: ErrAuthFailed, Message: "Authentication failed.", Status: http.StatusUnauthorized},
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "You are not part of this conversation.", Status: http.StatusUnauthorized},
	ErrForbidden:    {Code: ErrForbidden, Message: "You can only delete your own messages.", Status: http.StatusForbidden},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailure:    {Code: ErrStorageFailure, Message: "Message could not be saved. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
}
