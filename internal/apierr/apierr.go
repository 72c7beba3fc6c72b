// Package apierr maps failures to the HTTP error contract of the panel API.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error for status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindAuthorization
	KindNotFound
	KindUpstream
	KindRateLimited
)

// Error codes returned in the "error" field of a response body.
const (
	CodeMissingToken      = "MissingToken"
	CodeInvalidToken      = "InvalidToken"
	CodeForbidden         = "Forbidden"
	CodeMissingGuildID    = "MissingGuildId"
	CodeMissingCode       = "MissingCode"
	CodeInvalidBody       = "InvalidBody"
	CodeInvalidLanguage   = "InvalidLanguage"
	CodeInvalidLogChannel = "InvalidLogChannel"
	CodeRedirectMismatch  = "RedirectMismatch"
	CodeNotFound          = "NotFound"
	CodeUpstreamAuth      = "UpstreamAuthError"
	CodeUpstream          = "UpstreamError"
	CodeInternal          = "InternalError"
	CodeRateLimited       = "RateLimited"
)

// Error is an API-facing error. Message is safe to show to clients; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func MissingToken() *Error {
	return &Error{Kind: KindAuth, Code: CodeMissingToken, Message: "No token provided"}
}

func InvalidToken(cause error) *Error {
	return &Error{Kind: KindAuth, Code: CodeInvalidToken, Message: "Invalid token", Err: cause}
}

func Forbidden() *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: "You do not have permission to manage this guild"}
}

func MissingGuildID() *Error {
	return Validation(CodeMissingGuildID, "Guild ID is required")
}

func NotFound(msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg, Err: cause}
}

// UpstreamAuth reports a rejected authorization code. It surfaces as a 500
// with a generic message like every other upstream failure.
func UpstreamAuth(cause error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeUpstreamAuth, Message: "Authentication failed", Err: cause}
}

func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeUpstream, Message: msg, Err: cause}
}

func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Code: CodeRateLimited, Message: "Too many requests from this IP, please try again later."}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "Internal server error", Err: cause}
}

// From converts any error into an *Error, defaulting to Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Body is the JSON error envelope.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Respond aborts the request with the mapped status and body, and records the
// error on the gin context so the request logger can report the cause.
func Respond(c *gin.Context, err error) {
	e := From(err)
	_ = c.Error(e)
	c.AbortWithStatusJSON(e.Status(), Body{Error: e.Code, Message: e.Message})
}
