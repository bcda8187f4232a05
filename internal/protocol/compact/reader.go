// file: internal/protocol/compact/reader.go
package compact

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

func (p *TCompactProtocol) ReadMessageBegin() (name string, typeID ttype.TMessageType, seqID int32, err error) {
	id, err := p.trans.ReadByte()
	if err != nil {
		return
	}
	if id != protocolID {
		err = terror.NewTProtocolExceptionWithType(terror.TProtocolBadVersion,
			errors.Newf("expected protocol id %#x but got %#x", protocolID, id))
		return
	}
	versionAndType, err := p.trans.ReadByte()
	if err != nil {
		return
	}
	v := versionAndType & versionMask
	typeID = ttype.TMessageType((versionAndType >> typeShiftAmount) & typeBits)
	if v != version {
		err = terror.NewTProtocolExceptionWithType(terror.TProtocolBadVersion,
			errors.Newf("expected version %#x but got %#x", version, v))
		return
	}
	seq, err := p.readVarint32()
	if err != nil {
		err = terror.NewTProtocolException(err)
		return
	}
	seqID = seq
	name, err = p.ReadString()
	return
}

func (p *TCompactProtocol) ReadMessageEnd() error { return nil }

func (p *TCompactProtocol) ReadStructBegin() (string, error) {
	p.lastField = append(p.lastField, p.lastFieldID)
	p.lastFieldID = 0
	return "", nil
}

func (p *TCompactProtocol) ReadStructEnd() error {
	if len(p.lastField) == 0 {
		return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
			errors.New("ReadStructEnd called without a matching ReadStructBegin"))
	}
	p.lastFieldID = p.lastField[len(p.lastField)-1]
	p.lastField = p.lastField[:len(p.lastField)-1]
	return nil
}

func (p *TCompactProtocol) ReadFieldBegin() (name string, typeID ttype.TType, id int16, err error) {
	t, err := p.trans.ReadByte()
	if err != nil {
		return
	}
	if t&0x0f == byte(ttype.STOP) {
		return "", ttype.STOP, 0, nil
	}
	modifier := int16((t & 0xf0) >> 4)
	if modifier == 0 {
		id, err = p.ReadI16()
		if err != nil {
			return
		}
	} else {
		id = int16(p.lastFieldID) + modifier
	}
	typeID, err = ttypeFor(compactType(t & 0x0f))
	if err != nil {
		return
	}
	if isBoolType(t) {
		p.boolValue = t&0x0f == byte(cBooleanTrue)
		p.boolValueValid = true
	}
	p.lastFieldID = int(id)
	return
}

func isBoolType(t byte) bool {
	return t&0x0f == byte(cBooleanTrue) || t&0x0f == byte(cBooleanFalse)
}

func (p *TCompactProtocol) ReadFieldEnd() error { return nil }

func (p *TCompactProtocol) ReadMapBegin() (keyType, valType ttype.TType, size int, err error) {
	sz, err := p.readVarint32()
	if err != nil {
		err = terror.NewTProtocolException(err)
		return
	}
	size = int(sz)
	var keyAndValue byte
	if size != 0 {
		keyAndValue, err = p.trans.ReadByte()
		if err != nil {
			return
		}
	}
	keyType, _ = ttypeFor(compactType(keyAndValue >> 4))
	valType, _ = ttypeFor(compactType(keyAndValue & 0xf))
	if err = p.cfg.CheckSize(int64(size) * int64(minSerializedSize(keyType)+minSerializedSize(valType))); err != nil {
		return
	}
	return
}

func (p *TCompactProtocol) ReadMapEnd() error { return nil }

func (p *TCompactProtocol) ReadListBegin() (elemType ttype.TType, size int, err error) {
	sizeAndType, err := p.trans.ReadByte()
	if err != nil {
		return
	}
	size = int((sizeAndType >> 4) & 0x0f)
	if size == 15 {
		sz, e := p.readVarint32()
		if e != nil {
			err = terror.NewTProtocolException(e)
			return
		}
		size = int(sz)
	}
	elemType, err = ttypeFor(compactType(sizeAndType & 0x0f))
	if err != nil {
		return
	}
	if err = p.cfg.CheckSize(int64(size) * int64(minSerializedSize(elemType))); err != nil {
		return
	}
	return
}

func (p *TCompactProtocol) ReadListEnd() error { return nil }

func (p *TCompactProtocol) ReadSetBegin() (ttype.TType, int, error) { return p.ReadListBegin() }
func (p *TCompactProtocol) ReadSetEnd() error                       { return nil }

func (p *TCompactProtocol) ReadBool() (bool, error) {
	if p.boolValueValid {
		p.boolValueValid = false
		return p.boolValue, nil
	}
	b, err := p.trans.ReadByte()
	return b == byte(cBooleanTrue), terror.NewTProtocolException(err)
}

func (p *TCompactProtocol) ReadByte() (int8, error) {
	b, err := p.trans.ReadByte()
	return int8(b), terror.NewTProtocolException(err)
}

func (p *TCompactProtocol) ReadI16() (int16, error) {
	v, err := p.ReadI32()
	return int16(v), err
}

func (p *TCompactProtocol) ReadI32() (int32, error) {
	v, err := p.readVarint32()
	if err != nil {
		return 0, terror.NewTProtocolException(err)
	}
	return unzigzag32(v), nil
}

func (p *TCompactProtocol) ReadI64() (int64, error) {
	v, err := p.readVarint64()
	if err != nil {
		return 0, terror.NewTProtocolException(err)
	}
	return unzigzag64(v), nil
}

func (p *TCompactProtocol) ReadDouble() (float64, error) {
	buf, err := p.trans.ReadAll(8)
	if err != nil {
		return 0, terror.NewTProtocolException(err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

func (p *TCompactProtocol) ReadString() (string, error) {
	length, err := p.readVarint32()
	if err != nil {
		return "", terror.NewTProtocolException(err)
	}
	if err := p.cfg.CheckSize(int64(length)); err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	buf, err := p.trans.ReadAll(int(length))
	if err != nil {
		return "", terror.NewTProtocolException(err)
	}
	return string(buf), nil
}

func (p *TCompactProtocol) ReadBinary() ([]byte, error) {
	length, err := p.readVarint32()
	if err != nil {
		return nil, terror.NewTProtocolException(err)
	}
	if err := p.cfg.CheckSize(int64(length)); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	return p.trans.ReadAll(int(length))
}

func (p *TCompactProtocol) readVarint32() (int32, error) {
	v, err := p.readVarint64()
	return int32(v), err
}

func (p *TCompactProtocol) readVarint64() (int64, error) {
	shift := uint(0)
	result := int64(0)
	for {
		b, err := p.trans.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		if b&0x80 != 0x80 {
			break
		}
		shift += 7
	}
	return result, nil
}

func minSerializedSize(t ttype.TType) int32 {
	switch t {
	case ttype.STOP, ttype.VOID, ttype.BOOL, ttype.BYTE, ttype.I16, ttype.I32, ttype.I64,
		ttype.STRING, ttype.STRUCT, ttype.MAP, ttype.SET, ttype.LIST:
		return 1
	case ttype.DOUBLE:
		return 8
	default:
		return 1
	}
}
