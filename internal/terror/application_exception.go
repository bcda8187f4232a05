// file: internal/terror/application_exception.go
package terror

import (
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// TApplicationExceptionType classifies an application-level failure
// reported back to an RPC caller as a reply message of type EXCEPTION.
type TApplicationExceptionType int32

const (
	AppUnknown                TApplicationExceptionType = 0
	AppUnknownMethod          TApplicationExceptionType = 1
	AppInvalidMessageType     TApplicationExceptionType = 2
	AppWrongMethodName        TApplicationExceptionType = 3
	AppBadSequenceID          TApplicationExceptionType = 4
	AppMissingResult          TApplicationExceptionType = 5
	AppInternalError          TApplicationExceptionType = 6
	AppProtocolError          TApplicationExceptionType = 7
	AppInvalidTransform       TApplicationExceptionType = 8
	AppInvalidProtocol        TApplicationExceptionType = 9
	AppUnsupportedClientType  TApplicationExceptionType = 10
)

// TApplicationException is itself a Thrift struct on the wire: field 1
// is the message string, field 2 is the type code (the on-wire field
// name is "type", not "code" — spec.md §6 calls this out explicitly
// since it is easy to get backwards when porting).
type TApplicationException struct {
	Message string
	Type    TApplicationExceptionType
}

// NewTApplicationException builds an application exception with an
// explicit type and message.
func NewTApplicationException(t TApplicationExceptionType, message string) *TApplicationException {
	return &TApplicationException{Message: message, Type: t}
}

func (e *TApplicationException) Error() string {
	return e.Message
}

// appWriter is the minimal write surface TApplicationException needs.
// Any Protocol implementation satisfies this structurally without
// terror importing the protocol package, avoiding an import cycle
// (protocol needs terror to construct its own errors).
type appWriter interface {
	WriteStructBegin(name string) error
	WriteFieldBegin(name string, typeID ttype.TType, id int16) error
	WriteFieldEnd() error
	WriteFieldStop() error
	WriteStructEnd() error
	WriteString(v string) error
	WriteI32(v int32) error
}

// appReader is the minimal read surface TApplicationException needs.
type appReader interface {
	ReadStructBegin() (name string, err error)
	ReadFieldBegin() (name string, typeID ttype.TType, id int16, err error)
	ReadFieldEnd() error
	ReadStructEnd() error
	ReadString() (string, error)
	ReadI32() (int32, error)
	Skip(fieldType ttype.TType) error
}

// Write serializes the exception as a normal Thrift struct: STOP-
// terminated, field 1 string message, field 2 i32 type.
func (e *TApplicationException) Write(p appWriter) error {
	if err := p.WriteStructBegin("TApplicationException"); err != nil {
		return err
	}
	if e.Message != "" {
		if err := p.WriteFieldBegin("message", ttype.STRING, 1); err != nil {
			return err
		}
		if err := p.WriteString(e.Message); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if err := p.WriteFieldBegin("type", ttype.I32, 2); err != nil {
		return err
	}
	if err := p.WriteI32(int32(e.Type)); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(); err != nil {
		return err
	}
	if err := p.WriteFieldStop(); err != nil {
		return err
	}
	return p.WriteStructEnd()
}

// Read deserializes a TApplicationException, skipping any unknown
// fields a future version of this struct might carry.
func ReadTApplicationException(p appReader) (*TApplicationException, error) {
	if _, err := p.ReadStructBegin(); err != nil {
		return nil, err
	}
	result := &TApplicationException{}
	for {
		_, fieldType, id, err := p.ReadFieldBegin()
		if err != nil {
			return nil, err
		}
		if fieldType == ttype.STOP {
			break
		}
		switch {
		case id == 1 && fieldType == ttype.STRING:
			msg, err := p.ReadString()
			if err != nil {
				return nil, err
			}
			result.Message = msg
		case id == 2 && fieldType == ttype.I32:
			code, err := p.ReadI32()
			if err != nil {
				return nil, err
			}
			result.Type = TApplicationExceptionType(code)
		default:
			if err := p.Skip(fieldType); err != nil {
				return nil, err
			}
		}
		if err := p.ReadFieldEnd(); err != nil {
			return nil, err
		}
	}
	if err := p.ReadStructEnd(); err != nil {
		return nil, err
	}
	return result, nil
}

// Is lets errors.Is match by exception type, e.g.
// errors.Is(err, terror.NewTApplicationException(terror.AppUnknownMethod, "")).
func (e *TApplicationException) Is(target error) bool {
	t, ok := target.(*TApplicationException)
	if !ok {
		return false
	}
	return e.Type == t.Type
}
