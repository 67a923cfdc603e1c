package driver

import "fmt"

// Kind is the error taxonomy of SPEC_FULL.md §2.3 / spec.md §7. The
// command surface is the only place that turns a Kind into a string for
// the UI; everywhere else callers should switch on Kind directly.
type Kind string

const (
	KindConnectionFailed Kind = "connection_failed"
	KindConnectionNotFound Kind = "connection_not_found"
	KindDriverNotFound   Kind = "driver_not_found"
	KindInvalidConfig    Kind = "invalid_config"
	KindInvalidConnection Kind = "invalid_connection"
	KindQueryError       Kind = "query_error"
	KindPasswordExpired  Kind = "password_expired"
	KindPoolError        Kind = "pool_error"
	KindSchemaError      Kind = "schema_error"
	KindTimeout          Kind = "timeout"
	KindIOError          Kind = "io_error"
	KindCancelled        Kind = "cancelled"
)

// Error is the typed error every driver surfaces to the query engine and
// schema cache. The command surface stringifies it for the UI boundary;
// internally callers should inspect Kind.
type Error struct {
	Kind    Kind
	Message string
	Code    int // dialect-specific numeric code, e.g. SQL Server 18488
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithCode attaches a dialect-specific numeric error code (e.g. SQL
// Server's 18488 for an expired password) and returns the receiver.
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// sqlServerPasswordExpiredCode is SQL Server's "password has expired"
// server error number, surfaced as KindPasswordExpired so the UI can
// prompt for a reset instead of showing a generic connection failure.
const sqlServerPasswordExpiredCode = 18488

// IsPasswordExpired reports whether code is SQL Server's password-expired
// error number.
func IsPasswordExpired(code int) bool {
	return code == sqlServerPasswordExpiredCode
}
