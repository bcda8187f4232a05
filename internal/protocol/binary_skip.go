// file: internal/protocol/binary_skip.go
package protocol

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// fixedWidth gives the on-wire byte width of the binary-protocol fixed
// primitives; variable-width types (STRING, and the recursive
// STRUCT/MAP/SET/LIST) are handled separately in BinarySkip.
func fixedWidth(t ttype.TType) (int, bool) {
	switch t {
	case ttype.BOOL, ttype.BYTE:
		return 1, true
	case ttype.I16:
		return 2, true
	case ttype.I32:
		return 4, true
	case ttype.I64, ttype.DOUBLE:
		return 8, true
	default:
		return 0, false
	}
}

// BinarySkip consumes one well-formed value of fieldType directly from
// a raw Transport, with no Protocol instance involved. It assumes the
// binary on-wire layout described in spec.md §4.2: fixed-width
// primitives, 4-byte-length-prefixed strings, and struct/container
// headers in the same shape the binary protocol would write them.
func BinarySkip(t transport.Transport, cfg *transport.TConfiguration, fieldType ttype.TType) error {
	if width, ok := fixedWidth(fieldType); ok {
		_, err := t.ReadAll(width)
		return err
	}
	switch fieldType {
	case ttype.STRING:
		lenBytes, err := t.ReadAll(4)
		if err != nil {
			return err
		}
		size := int64(int32(binary.BigEndian.Uint32(lenBytes)))
		if err := cfg.CheckSize(size); err != nil {
			return err
		}
		_, err = t.ReadAll(int(size))
		return err
	case ttype.STRUCT:
		for {
			header, err := t.ReadAll(1)
			if err != nil {
				return err
			}
			ft := ttype.TType(header[0])
			if ft == ttype.STOP {
				return nil
			}
			if _, err := t.ReadAll(2); err != nil { // field id
				return err
			}
			if err := BinarySkip(t, cfg, ft); err != nil {
				return err
			}
		}
	case ttype.MAP:
		header, err := t.ReadAll(6)
		if err != nil {
			return err
		}
		keyType := ttype.TType(header[0])
		valType := ttype.TType(header[1])
		size := int64(int32(binary.BigEndian.Uint32(header[2:6])))
		if err := cfg.CheckSize(size); err != nil {
			return err
		}
		for i := int64(0); i < size; i++ {
			if err := BinarySkip(t, cfg, keyType); err != nil {
				return err
			}
			if err := BinarySkip(t, cfg, valType); err != nil {
				return err
			}
		}
		return nil
	case ttype.SET, ttype.LIST:
		header, err := t.ReadAll(5)
		if err != nil {
			return err
		}
		elemType := ttype.TType(header[0])
		size := int64(int32(binary.BigEndian.Uint32(header[1:5])))
		if err := cfg.CheckSize(size); err != nil {
			return err
		}
		for i := int64(0); i < size; i++ {
			if err := BinarySkip(t, cfg, elemType); err != nil {
				return err
			}
		}
		return nil
	default:
		return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
			errors.Newf("binary skip: unknown type %s", fieldType))
	}
}
