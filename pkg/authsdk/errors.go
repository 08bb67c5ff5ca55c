package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failures the session service reports.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAlreadyExists
	KindInvalidCredentials
	KindAccountInactive
	KindAccessTokenRequired
	KindExpiredToken
	KindInvalidToken
	KindUserNotFound
	KindInsufficientRole
	KindDatabase
)

// Wire codes. AlreadyExists shares VALIDATION_ERROR and is told apart by
// FieldAlreadyExists in the field map.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAccountInactive     = "ACCOUNT_INACTIVE"
	CodeAccessTokenRequired = "ACCESS_TOKEN_REQUIRED"
	CodeExpiredToken        = "EXPIRED_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInsufficientRole    = "INSUFFICIENT_ROLE"
	CodeDatabase            = "DATABASE_ERROR"

	// CodeRateLimited is written by the rate limiter and sits outside Kind.
	CodeRateLimited = "RATE_LIMITED"

	// FieldAlreadyExists marks a field that collided with an existing user.
	FieldAlreadyExists = "already_exists"
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAlreadyExists:
		return "already_exists"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAccountInactive:
		return "account_inactive"
	case KindAccessTokenRequired:
		return "access_token_required"
	case KindExpiredToken:
		return "expired_token"
	case KindInvalidToken:
		return "invalid_token"
	case KindUserNotFound:
		return "user_not_found"
	case KindInsufficientRole:
		return "insufficient_role"
	case KindDatabase:
		return "database"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is the HTTP status for k.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindAlreadyExists:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindAccessTokenRequired, KindExpiredToken, KindInvalidToken:
		return http.StatusUnauthorized
	case KindAccountInactive, KindInsufficientRole:
		return http.StatusForbidden
	case KindUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable wire code for k.
func (k Kind) Code() string {
	switch k {
	case KindValidation, KindAlreadyExists:
		return CodeValidation
	case KindInvalidCredentials:
		return CodeInvalidCredentials
	case KindAccountInactive:
		return CodeAccountInactive
	case KindAccessTokenRequired:
		return CodeAccessTokenRequired
	case KindExpiredToken:
		return CodeExpiredToken
	case KindInvalidToken:
		return CodeInvalidToken
	case KindUserNotFound:
		return CodeUserNotFound
	case KindInsufficientRole:
		return CodeInsufficientRole
	default:
		return CodeDatabase
	}
}

// Error is the single error type crossing the service and HTTP boundaries.
// It is used by the server to write responses and by Client to report them.
type Error struct {
	Kind    Kind
	Message string

	// Fields maps request fields to a short reason, e.g. "email": "already_exists".
	Fields map[string]string

	// StatusCode is set on errors decoded by Client and overrides Kind.Status.
	StatusCode int

	// cause is kept for logs and errors.Is; it never reaches the wire.
	cause error
}

// NewError returns an Error of kind with msg.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf formats the message of a new Error.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of kind that keeps err as its cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

// WithField returns e with field recorded against reason.
func (e *Error) WithField(field, reason string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string, 1)
	}
	e.Fields[field] = reason
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code(), e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status is the HTTP status of e.
func (e *Error) Status() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	return e.Kind.Status()
}

// Code is the wire code of e.
func (e *Error) Code() string { return e.Kind.Code() }

// Response is the JSON body of e.
func (e *Error) Response() ErrorResponse {
	return ErrorResponse{Code: e.Code(), Message: e.Message, Fields: e.Fields}
}

// WriteError writes e as a JSON error response.
func (e *Error) WriteError(w http.ResponseWriter) {
	writeJSON(w, e.Status(), e.Response())
}

// AsError returns err as an *Error. Anything that is not already one becomes
// a KindDatabase error with a generic message, keeping err as the cause.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindDatabase, "an unexpected error occurred", err)
}

// IsKind reports whether err is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindFromCode maps a wire code and field map back to a Kind.
func KindFromCode(code string, fields map[string]string) Kind {
	switch code {
	case CodeValidation:
		for _, reason := range fields {
			if reason == FieldAlreadyExists {
				return KindAlreadyExists
			}
		}
		return KindValidation
	case CodeInvalidCredentials:
		return KindInvalidCredentials
	case CodeAccountInactive:
		return KindAccountInactive
	case CodeAccessTokenRequired:
		return KindAccessTokenRequired
	case CodeExpiredToken:
		return KindExpiredToken
	case CodeInvalidToken:
		return KindInvalidToken
	case CodeUserNotFound:
		return KindUserNotFound
	case CodeInsufficientRole:
		return KindInsufficientRole
	default:
		return KindDatabase
	}
}

// WriteRateLimited writes the 429 body used by the rate limiter.
func WriteRateLimited(w http.ResponseWriter) {
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Code:    CodeRateLimited,
		Message: "too many requests, try again later",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseErrorResponse turns a non-success response into an *Error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Code != "" {
		return &Error{
			Kind:       KindFromCode(er.Code, er.Fields),
			Message:    er.Message,
			Fields:     er.Fields,
			StatusCode: resp.StatusCode,
		}
	}

	return &Error{
		Kind:       KindDatabase,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		StatusCode: resp.StatusCode,
	}
}
