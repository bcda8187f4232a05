// file: internal/protocol/json/reader.go
package json

import (
	"encoding/base64"
	stdjson "encoding/json"
	"math"
	"strconv"

	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// readRawJSONStringLiteral reads a complete `"..."` literal (quotes
// included, escapes left intact) so it can be handed to encoding/json
// for unescaping rather than hand-rolling the JSON string grammar.
func (p *TJSONProtocol) readRawJSONStringLiteral() ([]byte, error) {
	first, err := p.reader.Read()
	if err != nil {
		return nil, err
	}
	if first != '"' {
		return nil, newBadCharError('"', first)
	}
	buf := []byte{'"'}
	escaped := false
	for {
		b, err := p.reader.Read()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
		if escaped {
			escaped = false
			continue
		}
		if b == '\\' {
			escaped = true
			continue
		}
		if b == '"' {
			break
		}
	}
	return buf, nil
}

func (p *TJSONProtocol) readJSONStringLiteral() (string, error) {
	lit, err := p.readRawJSONStringLiteral()
	if err != nil {
		return "", err
	}
	var s string
	if err := stdjson.Unmarshal(lit, &s); err != nil {
		return "", newInvalidDataError("invalid JSON string literal: %v", err)
	}
	return s, nil
}

// readJSONString reads a context-separated quoted string value.
func (p *TJSONProtocol) readJSONString() (string, error) {
	if err := p.readSeparator(); err != nil {
		return "", err
	}
	s, err := p.readJSONStringLiteral()
	if err != nil {
		return "", err
	}
	p.stack.Top().Advance()
	return s, nil
}

func (p *TJSONProtocol) readNumericRun() (string, error) {
	buf := make([]byte, 0, 16)
	for {
		b, err := p.reader.Peek()
		if err != nil {
			return "", err
		}
		if b == '-' || b == '+' || b == '.' || b == 'e' || b == 'E' || (b >= '0' && b <= '9') {
			if _, err := p.reader.Read(); err != nil {
				return "", err
			}
			buf = append(buf, b)
			continue
		}
		break
	}
	if len(buf) == 0 {
		b, _ := p.reader.Peek()
		return "", newInvalidDataError("expected a number but found %q", b)
	}
	return string(buf), nil
}

// readJSONInteger reads a context-separated integer, transparently
// consuming surrounding quotes when the context forces numeric
// escaping (e.g. a struct field-id key).
func (p *TJSONProtocol) readJSONInteger() (int64, error) {
	ctx := p.stack.Top()
	if err := p.readSeparator(); err != nil {
		return 0, err
	}
	quoted := ctx.EscapeNum()
	if quoted {
		if err := p.reader.expect('"'); err != nil {
			return 0, err
		}
	}
	digits, err := p.readNumericRun()
	if err != nil {
		return 0, err
	}
	if quoted {
		if err := p.reader.expect('"'); err != nil {
			return 0, err
		}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, newInvalidDataError("invalid integer literal %q: %v", digits, err)
	}
	ctx.Advance()
	return v, nil
}

func (p *TJSONProtocol) ReadMessageBegin() (name string, typeID ttype.TMessageType, seqID int32, err error) {
	if err = p.reader.skipWhitespace(); err != nil {
		return
	}
	if err = p.reader.expect('['); err != nil {
		return
	}
	p.stack.Push(protocol.ListContext)
	version, err := p.readJSONInteger()
	if err != nil {
		return
	}
	if version != jsonVersion1 {
		err = newBadVersionError(version)
		return
	}
	name, err = p.readJSONString()
	if err != nil {
		return
	}
	t, err := p.readJSONInteger()
	if err != nil {
		return
	}
	typeID = ttype.TMessageType(t)
	seq, err := p.readJSONInteger()
	if err != nil {
		return
	}
	seqID = int32(seq)
	return
}

func (p *TJSONProtocol) ReadMessageEnd() error {
	if err := p.reader.expect(']'); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TJSONProtocol) ReadStructBegin() (string, error) {
	if err := p.expectToken('{'); err != nil {
		return "", err
	}
	p.stack.Push(protocol.StructContext)
	return "", nil
}

func (p *TJSONProtocol) ReadStructEnd() error {
	if err := p.reader.skipWhitespace(); err != nil {
		return err
	}
	if err := p.reader.expect('}'); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

// ReadFieldBegin returns STOP without consuming the closing brace
// when the struct has no further fields, matching spec.md §9's note
// that the JSON protocol leaves the field name empty on read.
func (p *TJSONProtocol) ReadFieldBegin() (name string, typeID ttype.TType, id int16, err error) {
	if err = p.reader.skipWhitespace(); err != nil {
		return
	}
	next, err := p.reader.Peek()
	if err != nil {
		return
	}
	if next == '}' {
		typeID = ttype.STOP
		err = nil
		return
	}
	fieldID, err := p.readJSONInteger()
	if err != nil {
		return
	}
	id = int16(fieldID)
	if err = p.expectToken('{'); err != nil {
		return
	}
	p.stack.Push(protocol.StructContext)
	tag, err := p.readJSONString()
	if err != nil {
		return
	}
	typeID, err = typeForTag(tag)
	return "", typeID, id, err
}

func (p *TJSONProtocol) ReadFieldEnd() error {
	if err := p.reader.skipWhitespace(); err != nil {
		return err
	}
	if err := p.reader.expect('}'); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TJSONProtocol) ReadListBegin() (elemType ttype.TType, size int, err error) {
	if err = p.expectToken('['); err != nil {
		return
	}
	p.stack.Push(protocol.ListContext)
	tag, err := p.readJSONString()
	if err != nil {
		return
	}
	elemType, err = typeForTag(tag)
	if err != nil {
		return
	}
	n, err := p.readJSONInteger()
	size = int(n)
	return
}

func (p *TJSONProtocol) ReadListEnd() error {
	if err := p.reader.skipWhitespace(); err != nil {
		return err
	}
	if err := p.reader.expect(']'); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TJSONProtocol) ReadSetBegin() (ttype.TType, int, error) { return p.ReadListBegin() }
func (p *TJSONProtocol) ReadSetEnd() error                       { return p.ReadListEnd() }

func (p *TJSONProtocol) ReadMapBegin() (keyType, valType ttype.TType, size int, err error) {
	if err = p.expectToken('['); err != nil {
		return
	}
	p.stack.Push(protocol.ListContext)
	kTag, err := p.readJSONString()
	if err != nil {
		return
	}
	keyType, err = typeForTag(kTag)
	if err != nil {
		return
	}
	vTag, err := p.readJSONString()
	if err != nil {
		return
	}
	valType, err = typeForTag(vTag)
	if err != nil {
		return
	}
	n, err := p.readJSONInteger()
	if err != nil {
		return
	}
	size = int(n)
	if err = p.expectToken('{'); err != nil {
		return
	}
	p.stack.Push(protocol.MapContext)
	return
}

func (p *TJSONProtocol) ReadMapEnd() error {
	if err := p.reader.skipWhitespace(); err != nil {
		return err
	}
	if err := p.reader.expect('}'); err != nil {
		return err
	}
	p.stack.Pop()
	if err := p.reader.skipWhitespace(); err != nil {
		return err
	}
	if err := p.reader.expect(']'); err != nil {
		return err
	}
	p.stack.Pop()
	return nil
}

func (p *TJSONProtocol) ReadBool() (bool, error) {
	v, err := p.readJSONInteger()
	return v != 0, err
}

func (p *TJSONProtocol) ReadByte() (int8, error) {
	v, err := p.readJSONInteger()
	return int8(v), err
}

func (p *TJSONProtocol) ReadI16() (int16, error) {
	v, err := p.readJSONInteger()
	return int16(v), err
}

func (p *TJSONProtocol) ReadI32() (int32, error) {
	v, err := p.readJSONInteger()
	return int32(v), err
}

func (p *TJSONProtocol) ReadI64() (int64, error) {
	return p.readJSONInteger()
}

func (p *TJSONProtocol) ReadDouble() (float64, error) {
	ctx := p.stack.Top()
	if err := p.readSeparator(); err != nil {
		return 0, err
	}
	b, err := p.reader.Peek()
	if err != nil {
		return 0, err
	}
	if b == '"' {
		lit, err := p.readJSONStringLiteral()
		if err != nil {
			return 0, err
		}
		ctx.Advance()
		switch lit {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		default:
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return 0, newInvalidDataError("invalid quoted double literal %q: %v", lit, err)
			}
			return v, nil
		}
	}
	digits, err := p.readNumericRun()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, newInvalidDataError("invalid double literal %q: %v", digits, err)
	}
	ctx.Advance()
	return v, nil
}

func (p *TJSONProtocol) ReadString() (string, error) {
	return p.readJSONString()
}

func (p *TJSONProtocol) ReadBinary() ([]byte, error) {
	s, err := p.readJSONString()
	if err != nil {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, newInvalidDataError("invalid base64 binary literal: %v", err)
	}
	return b, nil
}
