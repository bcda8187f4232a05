// Package protocol defines the typed-token cursor every concrete wire
// encoding (JSON, SimpleJSON, Compact) implements, plus the
// encoding-agnostic helpers — generic type skip and the binary-skip
// static helper — that only need the Protocol or Transport contract.
// file: internal/protocol/protocol.go
package protocol

import (
	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// Protocol is the write/read cursor generated serializers drive: one
// call per structural boundary (message/struct/field/container) and
// one call per primitive value.
type Protocol interface {
	WriteMessageBegin(name string, typeID ttype.TMessageType, seqID int32) error
	WriteMessageEnd() error
	WriteStructBegin(name string) error
	WriteStructEnd() error
	WriteFieldBegin(name string, typeID ttype.TType, id int16) error
	WriteFieldEnd() error
	WriteFieldStop() error
	WriteMapBegin(keyType, valType ttype.TType, size int) error
	WriteMapEnd() error
	WriteListBegin(elemType ttype.TType, size int) error
	WriteListEnd() error
	WriteSetBegin(elemType ttype.TType, size int) error
	WriteSetEnd() error
	WriteBool(v bool) error
	WriteByte(v int8) error
	WriteI16(v int16) error
	WriteI32(v int32) error
	WriteI64(v int64) error
	WriteDouble(v float64) error
	WriteString(v string) error
	WriteBinary(v []byte) error

	ReadMessageBegin() (name string, typeID ttype.TMessageType, seqID int32, err error)
	ReadMessageEnd() error
	ReadStructBegin() (name string, err error)
	ReadStructEnd() error
	ReadFieldBegin() (name string, typeID ttype.TType, id int16, err error)
	ReadFieldEnd() error
	ReadMapBegin() (keyType, valType ttype.TType, size int, err error)
	ReadMapEnd() error
	ReadListBegin() (elemType ttype.TType, size int, err error)
	ReadListEnd() error
	ReadSetBegin() (elemType ttype.TType, size int, err error)
	ReadSetEnd() error
	ReadBool() (bool, error)
	ReadByte() (int8, error)
	ReadI16() (int16, error)
	ReadI32() (int32, error)
	ReadI64() (int64, error)
	ReadDouble() (float64, error)
	ReadString() (string, error)
	ReadBinary() ([]byte, error)

	// Skip consumes exactly one well-formed value of fieldType without
	// materializing it, for forward-compatible field/element skipping.
	Skip(fieldType ttype.TType) error

	Transport() transport.Transport
}

// Skip implements the generic recursive skip described in spec.md §4.2
// in terms of the Protocol interface alone, so every concrete protocol
// can share one implementation by delegating its Skip method to this
// function.
func Skip(p Protocol, fieldType ttype.TType) error {
	switch fieldType {
	case ttype.BOOL:
		_, err := p.ReadBool()
		return err
	case ttype.BYTE:
		_, err := p.ReadByte()
		return err
	case ttype.I16:
		_, err := p.ReadI16()
		return err
	case ttype.I32:
		_, err := p.ReadI32()
		return err
	case ttype.I64:
		_, err := p.ReadI64()
		return err
	case ttype.DOUBLE:
		_, err := p.ReadDouble()
		return err
	case ttype.STRING:
		_, err := p.ReadString()
		return err
	case ttype.STRUCT:
		if _, err := p.ReadStructBegin(); err != nil {
			return err
		}
		for {
			_, ft, _, err := p.ReadFieldBegin()
			if err != nil {
				return err
			}
			if ft == ttype.STOP {
				break
			}
			if err := p.Skip(ft); err != nil {
				return err
			}
			if err := p.ReadFieldEnd(); err != nil {
				return err
			}
		}
		return p.ReadStructEnd()
	case ttype.MAP:
		keyType, valType, size, err := p.ReadMapBegin()
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			if err := p.Skip(keyType); err != nil {
				return err
			}
			if err := p.Skip(valType); err != nil {
				return err
			}
		}
		return p.ReadMapEnd()
	case ttype.SET:
		elemType, size, err := p.ReadSetBegin()
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			if err := p.Skip(elemType); err != nil {
				return err
			}
		}
		return p.ReadSetEnd()
	case ttype.LIST:
		elemType, size, err := p.ReadListBegin()
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			if err := p.Skip(elemType); err != nil {
				return err
			}
		}
		return p.ReadListEnd()
	default:
		return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
			errors.Newf("cannot skip unknown type %s", fieldType))
	}
}
