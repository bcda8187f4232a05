// Package ttype defines the small set of wire type and message type
// tags shared by every protocol and transport in this module.
// file: internal/ttype/ttype.go
package ttype

import "fmt"

// TType is the wire tag identifying a Thrift logical type. It appears as
// the type code in struct field headers, container element headers, and
// (for the compact protocol) is remapped onto a denser on-wire encoding.
type TType byte

// Wire type codes, fixed by the Thrift wire specification.
const (
	STOP   TType = 0
	VOID   TType = 1
	BOOL   TType = 2
	BYTE   TType = 3
	DOUBLE TType = 4
	I16    TType = 6
	I32    TType = 8
	I64    TType = 10
	STRING TType = 11
	STRUCT TType = 12
	MAP    TType = 13
	SET    TType = 14
	LIST   TType = 15
)

// String renders a TType for logging and error messages.
func (t TType) String() string {
	switch t {
	case STOP:
		return "STOP"
	case VOID:
		return "VOID"
	case BOOL:
		return "BOOL"
	case BYTE:
		return "BYTE"
	case DOUBLE:
		return "DOUBLE"
	case I16:
		return "I16"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case STRING:
		return "STRING"
	case STRUCT:
		return "STRUCT"
	case MAP:
		return "MAP"
	case SET:
		return "SET"
	case LIST:
		return "LIST"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", byte(t))
	}
}

// TMessageType identifies the kind of a message envelope.
type TMessageType int32

const (
	CALL      TMessageType = 1
	REPLY     TMessageType = 2
	EXCEPTION TMessageType = 3
	ONEWAY    TMessageType = 4
)

// String renders a TMessageType for logging and error messages.
func (t TMessageType) String() string {
	switch t {
	case CALL:
		return "CALL"
	case REPLY:
		return "REPLY"
	case EXCEPTION:
		return "EXCEPTION"
	case ONEWAY:
		return "ONEWAY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(t))
	}
}
