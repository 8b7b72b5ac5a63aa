package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Client-side error codes. These failures are detected locally, before any
// request reaches the wire.
const (
	ErrCodeValidation ErrorCode = "CLIENT_001"
	ErrCodeFile       ErrorCode = "CLIENT_002"
	ErrCodeConfig     ErrorCode = "CLIENT_003"
)

// Transport error codes. These failures occur while talking to the API and
// are surfaced only after the retry budget is exhausted.
const (
	ErrCodeNetwork ErrorCode = "NET_001"
	ErrCodeTimeout ErrorCode = "NET_002"
)

// API error codes. The request reached the service and the service rejected
// it, or answered with something the client could not interpret.
const (
	ErrCodeAuthentication ErrorCode = "API_001"
	ErrCodeAPI            ErrorCode = "API_002"
	ErrCodeParse          ErrorCode = "API_003"
)

const CodeOK = ErrorCode("OK")

// CodeUnknown marks errors that did not originate from this package.
const CodeUnknown = ErrorCode("UNKNOWN")

// ErrorCodeHTTPStatus maps ErrorCodes to the HTTP status that most closely
// corresponds to them. Transport and local codes are absent: for those no
// HTTP exchange completed.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeAuthentication: http.StatusUnauthorized,
	ErrCodeAPI:            http.StatusInternalServerError,
	ErrCodeParse:          http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeValidation:     "validation failed",
	ErrCodeFile:           "file error",
	ErrCodeConfig:         "invalid configuration",
	ErrCodeNetwork:        "network request failed",
	ErrCodeTimeout:        "request timed out",
	ErrCodeAuthentication: "invalid authentication credentials",
	ErrCodeAPI:            "API returned an error",
	ErrCodeParse:          "failed to parse API response",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsLocal reports whether the code describes a failure raised before any
// network traffic (caller misuse, unreadable file, bad configuration).
func IsLocal(code ErrorCode) bool {
	return strings.HasPrefix(string(code), "CLIENT_")
}

// IsTransport reports whether the code describes a connection or timeout
// failure surfaced after retries were exhausted.
func IsTransport(code ErrorCode) bool {
	return strings.HasPrefix(string(code), "NET_")
}
