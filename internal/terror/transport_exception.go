// Package terror implements the three disjoint wire-facing error
// families described in spec.md §6/§7: transport errors (I/O layer),
// protocol errors (malformed wire data), and application exceptions
// (semantic errors serialized back to the peer).
// file: internal/terror/transport_exception.go
package terror

import "github.com/cockroachdb/errors"

// TTransportExceptionCode classifies a transport-layer failure.
type TTransportExceptionCode int

const (
	TTransportUnknown           TTransportExceptionCode = 0
	TTransportNotOpen           TTransportExceptionCode = 1
	TTransportAlreadyOpen       TTransportExceptionCode = 2
	TTransportTimedOut          TTransportExceptionCode = 3
	TTransportEndOfFile         TTransportExceptionCode = 4
	TTransportNegativeSize      TTransportExceptionCode = 5
	TTransportSizeLimit         TTransportExceptionCode = 6
	TTransportInvalidClientType TTransportExceptionCode = 7
	TTransportCorruptedData     TTransportExceptionCode = 8
)

// TTransportException is always fatal to the connection it came from:
// the caller must close rather than reuse a transport that raised one.
type TTransportException struct {
	Code    TTransportExceptionCode
	Message string
	Cause   error
}

// NewTTransportException builds a TTransportException with the given
// code from an underlying cause, taking its message from the cause.
func NewTTransportException(code TTransportExceptionCode, cause error) *TTransportException {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	}
	return &TTransportException{Code: code, Message: msg, Cause: wrapped}
}

// NewTTransportExceptionMsg builds a TTransportException with an
// explicit message and no underlying cause.
func NewTTransportExceptionMsg(code TTransportExceptionCode, message string) *TTransportException {
	return &TTransportException{Code: code, Message: message}
}

func (e *TTransportException) Error() string {
	return e.Message
}

func (e *TTransportException) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a TTransportException of the same code,
// so callers can write errors.Is(err, &TTransportException{Code: ...}).
func (e *TTransportException) Is(target error) bool {
	t, ok := target.(*TTransportException)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
