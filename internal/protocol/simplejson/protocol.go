// Package simplejson implements the write-only "simple JSON" encoding
// from spec.md §4.4: plain JSON with field ids/type tags dropped for
// human readability. Every read method fails with NOT_IMPLEMENTED.
// file: internal/protocol/simplejson/protocol.go
package simplejson

import (
	"encoding/base64"
	stdjson "encoding/json"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// TSimpleJSONProtocol is the write-only Protocol for the simple JSON
// encoding. Field names (not ids) key struct objects; containers carry
// no type tags.
type TSimpleJSONProtocol struct {
	trans  transport.Transport
	stack  *protocol.ContextStack
	logger logging.Logger
}

func New(trans transport.Transport, logger logging.Logger) *TSimpleJSONProtocol {
	return &TSimpleJSONProtocol{
		trans:  trans,
		stack:  protocol.NewContextStack(),
		logger: logging.OrNoop(logger),
	}
}

func (p *TSimpleJSONProtocol) Transport() transport.Transport { return p.trans }

func notImplemented(op string) error {
	return terror.NewTProtocolExceptionWithType(terror.TProtocolNotImpl,
		errors.Newf("simplejson protocol: %s is not implemented (write-only)", op))
}

// errContainerMapKey is returned, per spec.md §4.4, when a map's key
// type is itself a container — SimpleJSON requires scalar keys since
// it has no type-tagged representation to round-trip a container key
// through a JSON object string.
func errContainerMapKey(t ttype.TType) error {
	return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
		errors.Newf("simplejson protocol: map key type %s is a container, not a scalar", t))
}

func (p *TSimpleJSONProtocol) writeRaw(s string) error {
	return p.trans.Write([]byte(s))
}

func (p *TSimpleJSONProtocol) beginValue() error {
	if sep := p.stack.Top().Separator(); sep != 0 {
		return p.writeRaw(string(sep))
	}
	return nil
}

func (p *TSimpleJSONProtocol) endValue() { p.stack.Top().Advance() }

func (p *TSimpleJSONProtocol) writeRawToken(tok string) error {
	if err := p.beginValue(); err != nil {
		return err
	}
	if err := p.writeRaw(tok); err != nil {
		return err
	}
	p.endValue()
	return nil
}

func (p *TSimpleJSONProtocol) writeJSONString(v string) error {
	if err := p.beginValue(); err != nil {
		return err
	}
	lit, err := stdjson.Marshal(v)
	if err != nil {
		return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData, err)
	}
	if err := p.writeRaw(string(lit)); err != nil {
		return err
	}
	p.endValue()
	return nil
}

func (p *TSimpleJSONProtocol) writeJSONInteger(v int64) error {
	ctx := p.stack.Top()
	if err := p.beginValue(); err != nil {
		return err
	}
	s := strconv.FormatInt(v, 10)
	if ctx.EscapeNum() {
		s = `"` + s + `"`
	}
	if err := p.writeRaw(s); err != nil {
		return err
	}
	p.endValue()
	return nil
}

func (p *TSimpleJSONProtocol) WriteMessageBegin(name string, typeID ttype.TMessageType, seqID int32) error {
	p.stack.Push(protocol.ListContext)
	if err := p.writeRaw("["); err != nil {
		return err
	}
	if err := p.writeJSONString(name); err != nil {
		return err
	}
	if err := p.writeJSONInteger(int64(typeID)); err != nil {
		return err
	}
	return p.writeJSONInteger(int64(seqID))
}

func (p *TSimpleJSONProtocol) WriteMessageEnd() error {
	if err := p.writeRaw("]"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TSimpleJSONProtocol) WriteStructBegin(_ string) error {
	if err := p.writeRawToken("{"); err != nil {
		return err
	}
	p.stack.Push(protocol.StructContext)
	return nil
}

func (p *TSimpleJSONProtocol) WriteStructEnd() error {
	if err := p.writeRaw("}"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

// WriteFieldBegin writes the field's name as the object key; the
// caller's subsequent primitive/container write supplies the value.
// Unlike the bidirectional JSON encoding, no type tag is written.
func (p *TSimpleJSONProtocol) WriteFieldBegin(name string, _ ttype.TType, _ int16) error {
	return p.writeJSONString(name)
}

func (p *TSimpleJSONProtocol) WriteFieldEnd() error { return nil }

func (p *TSimpleJSONProtocol) WriteFieldStop() error { return nil }

func (p *TSimpleJSONProtocol) WriteListBegin(_ ttype.TType, _ int) error {
	if err := p.writeRawToken("["); err != nil {
		return err
	}
	p.stack.Push(protocol.ListContext)
	return nil
}

func (p *TSimpleJSONProtocol) WriteListEnd() error {
	if err := p.writeRaw("]"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TSimpleJSONProtocol) WriteSetBegin(elemType ttype.TType, size int) error {
	return p.WriteListBegin(elemType, size)
}
func (p *TSimpleJSONProtocol) WriteSetEnd() error { return p.WriteListEnd() }

func (p *TSimpleJSONProtocol) WriteMapBegin(keyType, _ ttype.TType, _ int) error {
	if keyType == ttype.MAP || keyType == ttype.SET || keyType == ttype.LIST {
		return errContainerMapKey(keyType)
	}
	if err := p.writeRawToken("{"); err != nil {
		return err
	}
	p.stack.Push(protocol.MapContext)
	return nil
}

func (p *TSimpleJSONProtocol) WriteMapEnd() error {
	if err := p.writeRaw("}"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TSimpleJSONProtocol) WriteBool(v bool) error {
	n := int64(0)
	if v {
		n = 1
	}
	return p.writeJSONInteger(n)
}

func (p *TSimpleJSONProtocol) WriteByte(v int8) error { return p.writeJSONInteger(int64(v)) }
func (p *TSimpleJSONProtocol) WriteI16(v int16) error { return p.writeJSONInteger(int64(v)) }
func (p *TSimpleJSONProtocol) WriteI32(v int32) error { return p.writeJSONInteger(int64(v)) }
func (p *TSimpleJSONProtocol) WriteI64(v int64) error { return p.writeJSONInteger(v) }

func (p *TSimpleJSONProtocol) WriteDouble(v float64) error {
	ctx := p.stack.Top()
	if err := p.beginValue(); err != nil {
		return err
	}
	var s string
	special := true
	switch {
	case math.IsNaN(v):
		s = "NaN"
	case math.IsInf(v, 1):
		s = "Infinity"
	case math.IsInf(v, -1):
		s = "-Infinity"
	default:
		special = false
		s = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if ctx.EscapeNum() || special {
		s = `"` + s + `"`
	}
	if err := p.writeRaw(s); err != nil {
		return err
	}
	p.endValue()
	return nil
}

func (p *TSimpleJSONProtocol) WriteString(v string) error { return p.writeJSONString(v) }

func (p *TSimpleJSONProtocol) WriteBinary(v []byte) error {
	return p.writeJSONString(base64.StdEncoding.EncodeToString(v))
}

func (p *TSimpleJSONProtocol) ReadMessageBegin() (string, ttype.TMessageType, int32, error) {
	return "", 0, 0, notImplemented("ReadMessageBegin")
}
func (p *TSimpleJSONProtocol) ReadMessageEnd() error { return notImplemented("ReadMessageEnd") }
func (p *TSimpleJSONProtocol) ReadStructBegin() (string, error) {
	return "", notImplemented("ReadStructBegin")
}
func (p *TSimpleJSONProtocol) ReadStructEnd() error { return notImplemented("ReadStructEnd") }
func (p *TSimpleJSONProtocol) ReadFieldBegin() (string, ttype.TType, int16, error) {
	return "", 0, 0, notImplemented("ReadFieldBegin")
}
func (p *TSimpleJSONProtocol) ReadFieldEnd() error { return notImplemented("ReadFieldEnd") }
func (p *TSimpleJSONProtocol) ReadMapBegin() (ttype.TType, ttype.TType, int, error) {
	return 0, 0, 0, notImplemented("ReadMapBegin")
}
func (p *TSimpleJSONProtocol) ReadMapEnd() error { return notImplemented("ReadMapEnd") }
func (p *TSimpleJSONProtocol) ReadListBegin() (ttype.TType, int, error) {
	return 0, 0, notImplemented("ReadListBegin")
}
func (p *TSimpleJSONProtocol) ReadListEnd() error { return notImplemented("ReadListEnd") }
func (p *TSimpleJSONProtocol) ReadSetBegin() (ttype.TType, int, error) {
	return 0, 0, notImplemented("ReadSetBegin")
}
func (p *TSimpleJSONProtocol) ReadSetEnd() error           { return notImplemented("ReadSetEnd") }
func (p *TSimpleJSONProtocol) ReadBool() (bool, error)     { return false, notImplemented("ReadBool") }
func (p *TSimpleJSONProtocol) ReadByte() (int8, error)     { return 0, notImplemented("ReadByte") }
func (p *TSimpleJSONProtocol) ReadI16() (int16, error)     { return 0, notImplemented("ReadI16") }
func (p *TSimpleJSONProtocol) ReadI32() (int32, error)     { return 0, notImplemented("ReadI32") }
func (p *TSimpleJSONProtocol) ReadI64() (int64, error)     { return 0, notImplemented("ReadI64") }
func (p *TSimpleJSONProtocol) ReadDouble() (float64, error) {
	return 0, notImplemented("ReadDouble")
}
func (p *TSimpleJSONProtocol) ReadString() (string, error) { return "", notImplemented("ReadString") }
func (p *TSimpleJSONProtocol) ReadBinary() ([]byte, error) { return nil, notImplemented("ReadBinary") }

func (p *TSimpleJSONProtocol) Skip(_ ttype.TType) error { return notImplemented("Skip") }
