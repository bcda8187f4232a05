// Package compact implements the Thrift compact binary encoding:
// zigzag varints for signed integers, delta-encoded struct field ids,
// and packed small-list/map headers. Adapted from the upstream Apache
// Thrift Go compact protocol onto this module's Transport/Protocol/
// terror types.
// file: internal/protocol/compact/protocol.go
package compact

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

const (
	protocolID       = 0x82
	version          = 1
	versionMask      = 0x1f
	typeMask         = 0xE0
	typeBits         = 0x07
	typeShiftAmount  = 5
)

type compactType byte

const (
	cBooleanTrue  compactType = 0x01
	cBooleanFalse compactType = 0x02
	cByte         compactType = 0x03
	cI16          compactType = 0x04
	cI32          compactType = 0x05
	cI64          compactType = 0x06
	cDouble       compactType = 0x07
	cBinary       compactType = 0x08
	cList         compactType = 0x09
	cSet          compactType = 0x0A
	cMap          compactType = 0x0B
	cStruct       compactType = 0x0C
)

var ttypeToCompact = map[ttype.TType]compactType{
	ttype.BOOL:   cBooleanTrue,
	ttype.BYTE:   cByte,
	ttype.I16:    cI16,
	ttype.I32:    cI32,
	ttype.I64:    cI64,
	ttype.DOUBLE: cDouble,
	ttype.STRING: cBinary,
	ttype.LIST:   cList,
	ttype.SET:    cSet,
	ttype.MAP:    cMap,
	ttype.STRUCT: cStruct,
}

func compactTypeFor(t ttype.TType) compactType { return ttypeToCompact[t] }

func ttypeFor(c compactType) (ttype.TType, error) {
	switch c {
	case 0:
		return ttype.STOP, nil
	case cBooleanFalse, cBooleanTrue:
		return ttype.BOOL, nil
	case cByte:
		return ttype.BYTE, nil
	case cI16:
		return ttype.I16, nil
	case cI32:
		return ttype.I32, nil
	case cI64:
		return ttype.I64, nil
	case cDouble:
		return ttype.DOUBLE, nil
	case cBinary:
		return ttype.STRING, nil
	case cList:
		return ttype.LIST, nil
	case cSet:
		return ttype.SET, nil
	case cMap:
		return ttype.MAP, nil
	case cStruct:
		return ttype.STRUCT, nil
	default:
		return ttype.STOP, terror.NewTProtocolException(errors.Newf("unknown compact type %#x", c))
	}
}

// TCompactProtocol is the Protocol implementation for the compact
// binary encoding.
type TCompactProtocol struct {
	trans transport.ByteTransport
	cfg   *transport.TConfiguration

	// lastField/lastFieldID track the delta-encoded field id scheme:
	// each nested struct pushes the enclosing struct's last field id
	// so it can be restored on WriteStructEnd/ReadStructEnd.
	lastField   []int
	lastFieldID int

	// A pending boolean field header defers its type byte until the
	// value itself is known, since compact encodes bool values in the
	// low nibble of the field header rather than as a separate byte.
	boolFieldName    string
	boolFieldID      int16
	boolFieldPending bool

	boolValue        bool
	boolValueValid   bool

	scratch [10]byte
}

func New(trans transport.Transport, logger logging.Logger) *TCompactProtocol {
	_ = logging.OrNoop(logger)
	return &TCompactProtocol{
		trans: transport.NewRichTransport(trans),
		cfg:   transport.DefaultConfiguration(),
	}
}

func (p *TCompactProtocol) Transport() transport.Transport { return p.trans }

func (p *TCompactProtocol) SetTConfiguration(cfg *transport.TConfiguration) {
	p.cfg = cfg
	transport.PropagateTConfiguration(p.trans, cfg)
}

func (p *TCompactProtocol) Skip(fieldType ttype.TType) error {
	return protocol.Skip(p, fieldType)
}

// --- writing ---

func (p *TCompactProtocol) WriteMessageBegin(name string, typeID ttype.TMessageType, seqID int32) error {
	if err := p.trans.WriteByte(protocolID); err != nil {
		return terror.NewTProtocolException(err)
	}
	header := byte(version&versionMask) | ((byte(typeID) << typeShiftAmount) & typeMask)
	if err := p.trans.WriteByte(header); err != nil {
		return terror.NewTProtocolException(err)
	}
	if _, err := p.writeVarint32(seqID); err != nil {
		return terror.NewTProtocolException(err)
	}
	return p.WriteString(name)
}

func (p *TCompactProtocol) WriteMessageEnd() error { return nil }

func (p *TCompactProtocol) WriteStructBegin(_ string) error {
	p.lastField = append(p.lastField, p.lastFieldID)
	p.lastFieldID = 0
	return nil
}

func (p *TCompactProtocol) WriteStructEnd() error {
	if len(p.lastField) == 0 {
		return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
			errors.New("WriteStructEnd called without a matching WriteStructBegin"))
	}
	p.lastFieldID = p.lastField[len(p.lastField)-1]
	p.lastField = p.lastField[:len(p.lastField)-1]
	return nil
}

func (p *TCompactProtocol) WriteFieldBegin(name string, typeID ttype.TType, id int16) error {
	if typeID == ttype.BOOL {
		p.boolFieldName, p.boolFieldID, p.boolFieldPending = name, id, true
		return nil
	}
	return p.writeFieldHeader(typeID, id, 0xFF)
}

func (p *TCompactProtocol) writeFieldHeader(typeID ttype.TType, id int16, override byte) error {
	var typeByte byte
	if override == 0xFF {
		typeByte = byte(compactTypeFor(typeID))
	} else {
		typeByte = override
	}
	fieldID := int(id)
	if fieldID > p.lastFieldID && fieldID-p.lastFieldID <= 15 {
		if err := p.trans.WriteByte(byte((fieldID-p.lastFieldID)<<4) | typeByte); err != nil {
			return terror.NewTProtocolException(err)
		}
	} else {
		if err := p.trans.WriteByte(typeByte); err != nil {
			return terror.NewTProtocolException(err)
		}
		if err := p.WriteI16(id); err != nil {
			return err
		}
	}
	p.lastFieldID = fieldID
	return nil
}

func (p *TCompactProtocol) WriteFieldEnd() error { return nil }

func (p *TCompactProtocol) WriteFieldStop() error {
	return terror.NewTProtocolException(p.trans.WriteByte(byte(ttype.STOP)))
}

func (p *TCompactProtocol) WriteMapBegin(keyType, valType ttype.TType, size int) error {
	if size == 0 {
		return terror.NewTProtocolException(p.trans.WriteByte(0))
	}
	if _, err := p.writeVarint32(int32(size)); err != nil {
		return terror.NewTProtocolException(err)
	}
	header := byte(compactTypeFor(keyType))<<4 | byte(compactTypeFor(valType))
	return terror.NewTProtocolException(p.trans.WriteByte(header))
}

func (p *TCompactProtocol) WriteMapEnd() error { return nil }

func (p *TCompactProtocol) writeCollectionBegin(elemType ttype.TType, size int) error {
	if size <= 14 {
		return terror.NewTProtocolException(p.trans.WriteByte(byte(size<<4) | byte(compactTypeFor(elemType))))
	}
	if err := p.trans.WriteByte(0xF0 | byte(compactTypeFor(elemType))); err != nil {
		return terror.NewTProtocolException(err)
	}
	_, err := p.writeVarint32(int32(size))
	return terror.NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteListBegin(elemType ttype.TType, size int) error {
	return p.writeCollectionBegin(elemType, size)
}
func (p *TCompactProtocol) WriteListEnd() error { return nil }

func (p *TCompactProtocol) WriteSetBegin(elemType ttype.TType, size int) error {
	return p.writeCollectionBegin(elemType, size)
}
func (p *TCompactProtocol) WriteSetEnd() error { return nil }

func (p *TCompactProtocol) WriteBool(v bool) error {
	val := cBooleanFalse
	if v {
		val = cBooleanTrue
	}
	if p.boolFieldPending {
		p.boolFieldPending = false
		return p.writeFieldHeader(ttype.BOOL, p.boolFieldID, byte(val))
	}
	return terror.NewTProtocolException(p.trans.WriteByte(byte(val)))
}

func (p *TCompactProtocol) WriteByte(v int8) error {
	return terror.NewTProtocolException(p.trans.WriteByte(byte(v)))
}

func (p *TCompactProtocol) WriteI16(v int16) error {
	_, err := p.writeVarint32(zigzag32(int32(v)))
	return terror.NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteI32(v int32) error {
	_, err := p.writeVarint32(zigzag32(v))
	return terror.NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteI64(v int64) error {
	_, err := p.writeVarint64(zigzag64(v))
	return terror.NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteDouble(v float64) error {
	buf := p.scratch[0:8]
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	return terror.NewTProtocolException(p.trans.Write(buf))
}

func (p *TCompactProtocol) WriteString(v string) error {
	if _, err := p.writeVarint32(int32(len(v))); err != nil {
		return terror.NewTProtocolException(err)
	}
	if len(v) == 0 {
		return nil
	}
	return terror.NewTProtocolException(p.trans.Write([]byte(v)))
}

func (p *TCompactProtocol) WriteBinary(v []byte) error {
	if _, err := p.writeVarint32(int32(len(v))); err != nil {
		return terror.NewTProtocolException(err)
	}
	if len(v) == 0 {
		return nil
	}
	return terror.NewTProtocolException(p.trans.Write(v))
}

func (p *TCompactProtocol) writeVarint32(n int32) (int, error) {
	buf := p.scratch[0:5]
	idx := 0
	for {
		if n&^0x7F == 0 {
			buf[idx] = byte(n)
			idx++
			break
		}
		buf[idx] = byte(n&0x7F) | 0x80
		idx++
		n = int32(uint32(n) >> 7)
	}
	return idx, p.trans.Write(buf[:idx])
}

func (p *TCompactProtocol) writeVarint64(n int64) (int, error) {
	buf := p.scratch[0:10]
	idx := 0
	for {
		if n&^0x7F == 0 {
			buf[idx] = byte(n)
			idx++
			break
		}
		buf[idx] = byte(n&0x7F) | 0x80
		idx++
		n = int64(uint64(n) >> 7)
	}
	return idx, p.trans.Write(buf[:idx])
}

func zigzag32(n int32) int32 { return (n << 1) ^ (n >> 31) }
func zigzag64(n int64) int64 { return (n << 1) ^ (n >> 63) }
func unzigzag32(n int32) int32 {
	u := uint32(n)
	return int32(u>>1) ^ -(n & 1)
}
func unzigzag64(n int64) int64 {
	u := uint64(n)
	return int64(u>>1) ^ -(n & 1)
}
