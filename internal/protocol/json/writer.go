// file: internal/protocol/json/writer.go
package json

import (
	"encoding/base64"
	stdjson "encoding/json"
	"math"
	"strconv"

	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

func (p *TJSONProtocol) writeJSONInteger(v int64) error {
	escape, err := p.beginValue()
	if err != nil {
		return err
	}
	s := strconv.FormatInt(v, 10)
	if escape {
		s = `"` + s + `"`
	}
	if err := p.writeRaw(s); err != nil {
		return err
	}
	p.endValue()
	return nil
}

// writeJSONString writes v as a fully quoted, escaped JSON string
// literal. Strings are always quoted regardless of context, so no
// EscapeNum handling is needed here.
func (p *TJSONProtocol) writeJSONString(v string) error {
	if _, err := p.beginValue(); err != nil {
		return err
	}
	lit, err := stdjson.Marshal(v)
	if err != nil {
		return newInvalidDataError("cannot encode string as JSON: %v", err)
	}
	if err := p.writeRaw(string(lit)); err != nil {
		return err
	}
	p.endValue()
	return nil
}

func (p *TJSONProtocol) WriteMessageBegin(name string, typeID ttype.TMessageType, seqID int32) error {
	p.stack.Push(protocol.ListContext)
	if err := p.writeRaw("["); err != nil {
		return err
	}
	if err := p.writeJSONInteger(jsonVersion1); err != nil {
		return err
	}
	if err := p.writeJSONString(name); err != nil {
		return err
	}
	if err := p.writeJSONInteger(int64(typeID)); err != nil {
		return err
	}
	if err := p.writeJSONInteger(int64(seqID)); err != nil {
		return err
	}
	return nil
}

func (p *TJSONProtocol) WriteMessageEnd() error {
	if err := p.writeRaw("]"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TJSONProtocol) WriteStructBegin(_ string) error {
	if err := p.writeRawToken("{"); err != nil {
		return err
	}
	p.stack.Push(protocol.StructContext)
	return nil
}

func (p *TJSONProtocol) WriteStructEnd() error {
	if err := p.writeRaw("}"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

// WriteFieldBegin writes the `"<id>": {"<tag>": ` prefix of a field
// entry. The caller follows with the primitive/container write for
// the value itself, then WriteFieldEnd closes the tag-value object.
func (p *TJSONProtocol) WriteFieldBegin(_ string, typeID ttype.TType, id int16) error {
	if err := p.writeJSONInteger(int64(id)); err != nil {
		return err
	}
	if err := p.writeRawToken("{"); err != nil {
		return err
	}
	p.stack.Push(protocol.StructContext)
	tag, err := tagForType(typeID)
	if err != nil {
		return err
	}
	return p.writeJSONString(tag)
}

func (p *TJSONProtocol) WriteFieldEnd() error {
	if err := p.writeRaw("}"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

// WriteFieldStop is a no-op: in the JSON encoding, absence of further
// field entries before the closing "}" is itself the STOP marker.
func (p *TJSONProtocol) WriteFieldStop() error { return nil }

func (p *TJSONProtocol) writeContainerHeader(open string) error {
	return p.writeRawToken(open)
}

func (p *TJSONProtocol) WriteListBegin(elemType ttype.TType, size int) error {
	if err := p.writeContainerHeader("["); err != nil {
		return err
	}
	p.stack.Push(protocol.ListContext)
	tag, err := tagForType(elemType)
	if err != nil {
		return err
	}
	if err := p.writeJSONString(tag); err != nil {
		return err
	}
	return p.writeJSONInteger(int64(size))
}

func (p *TJSONProtocol) WriteListEnd() error {
	if err := p.writeRaw("]"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TJSONProtocol) WriteSetBegin(elemType ttype.TType, size int) error {
	return p.WriteListBegin(elemType, size)
}

func (p *TJSONProtocol) WriteSetEnd() error { return p.WriteListEnd() }

func (p *TJSONProtocol) WriteMapBegin(keyType, valType ttype.TType, size int) error {
	if err := p.writeContainerHeader("["); err != nil {
		return err
	}
	p.stack.Push(protocol.ListContext)
	kTag, err := tagForType(keyType)
	if err != nil {
		return err
	}
	if err := p.writeJSONString(kTag); err != nil {
		return err
	}
	vTag, err := tagForType(valType)
	if err != nil {
		return err
	}
	if err := p.writeJSONString(vTag); err != nil {
		return err
	}
	if err := p.writeJSONInteger(int64(size)); err != nil {
		return err
	}
	if err := p.writeRawToken("{"); err != nil {
		return err
	}
	p.stack.Push(protocol.MapContext)
	return nil
}

func (p *TJSONProtocol) WriteMapEnd() error {
	if err := p.writeRaw("}"); err != nil {
		return err
	}
	p.stack.Pop()
	if err := p.writeRaw("]"); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TJSONProtocol) WriteBool(v bool) error {
	n := int64(0)
	if v {
		n = 1
	}
	return p.writeJSONInteger(n)
}

func (p *TJSONProtocol) WriteByte(v int8) error  { return p.writeJSONInteger(int64(v)) }
func (p *TJSONProtocol) WriteI16(v int16) error  { return p.writeJSONInteger(int64(v)) }
func (p *TJSONProtocol) WriteI32(v int32) error  { return p.writeJSONInteger(int64(v)) }
func (p *TJSONProtocol) WriteI64(v int64) error  { return p.writeJSONInteger(v) }

func (p *TJSONProtocol) WriteDouble(v float64) error {
	escape, err := p.beginValue()
	if err != nil {
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
	if escape || special {
		s = `"` + s + `"`
	}
	if err := p.writeRaw(s); err != nil {
		return err
	}
	p.endValue()
	return nil
}

func (p *TJSONProtocol) WriteString(v string) error {
	return p.writeJSONString(v)
}

func (p *TJSONProtocol) WriteBinary(v []byte) error {
	return p.writeJSONString(base64.StdEncoding.EncodeToString(v))
}
