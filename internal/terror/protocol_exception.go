// file: internal/terror/protocol_exception.go
package terror

import "github.com/cockroachdb/errors"

// TProtocolExceptionCode classifies malformed-wire-data failures.
type TProtocolExceptionCode int

const (
	TProtocolUnknown      TProtocolExceptionCode = 0
	TProtocolInvalidData  TProtocolExceptionCode = 1
	TProtocolNegativeSize TProtocolExceptionCode = 2
	TProtocolSizeLimit    TProtocolExceptionCode = 3
	TProtocolBadVersion   TProtocolExceptionCode = 4
	TProtocolNotImpl      TProtocolExceptionCode = 5
	TProtocolDepthLimit   TProtocolExceptionCode = 6
)

// TProtocolException is fatal to the in-flight message; the protocol
// never attempts to repair data once one is raised, per spec.md §7.
type TProtocolException struct {
	Code    TProtocolExceptionCode
	Message string
	Cause   error
}

// NewTProtocolException wraps cause as TProtocolUnknown unless the
// caller narrows it with NewTProtocolExceptionWithType.
func NewTProtocolException(cause error) *TProtocolException {
	if cause == nil {
		return nil
	}
	if pe, ok := cause.(*TProtocolException); ok {
		return pe
	}
	return &TProtocolException{
		Code:    TProtocolUnknown,
		Message: cause.Error(),
		Cause:   errors.WithStack(cause),
	}
}

// NewTProtocolExceptionWithType builds a TProtocolException carrying an
// explicit classification code.
func NewTProtocolExceptionWithType(code TProtocolExceptionCode, cause error) *TProtocolException {
	msg := ""
	var wrapped error
	if cause != nil {
		msg = cause.Error()
		wrapped = errors.WithStack(cause)
	}
	return &TProtocolException{Code: code, Message: msg, Cause: wrapped}
}

func (e *TProtocolException) Error() string {
	return e.Message
}

func (e *TProtocolException) Unwrap() error {
	return e.Cause
}

func (e *TProtocolException) Is(target error) bool {
	t, ok := target.(*TProtocolException)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
