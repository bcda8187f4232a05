// file: internal/protocol/compact/protocol_test.go
package compact

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

func TestMessageEnvelopeRoundTrip(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	require.NoError(t, p.WriteMessageBegin("ping", ttype.CALL, 42))
	require.NoError(t, p.WriteMessageEnd())

	reader := New(buf, nil)
	name, msgType, seqID, err := reader.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, "ping", name)
	require.Equal(t, ttype.CALL, msgType)
	require.Equal(t, int32(42), seqID)
}

// TestZigzagVarintNegativeAndLargeValues round-trips values chosen to
// exercise zigzag's sign folding (negatives) and varint's multi-byte
// continuation (values needing more than one 7-bit group).
func TestZigzagVarintNegativeAndLargeValues(t *testing.T) {
	values := []int32{0, -1, 1, -64, 127, -128, 1 << 20, -(1 << 20), 1<<31 - 1, -(1 << 31)}
	for _, v := range values {
		buf := transport.NewMemoryBuffer(0)
		p := New(buf, nil)
		require.NoError(t, p.WriteI32(v))

		reader := New(buf, nil)
		got, err := reader.ReadI32()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestI64ZigzagVarintRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, 1 << 40, -(1 << 40)}
	for _, v := range values {
		buf := transport.NewMemoryBuffer(0)
		p := New(buf, nil)
		require.NoError(t, p.WriteI64(v))

		reader := New(buf, nil)
		got, err := reader.ReadI64()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

// TestDeltaFieldIDEncoding writes ascending field ids within one
// struct (exercising the delta encoding's common case) followed by a
// non-ascending id (forcing the fallback long form), then reads both
// back.
func TestDeltaFieldIDEncoding(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	require.NoError(t, p.WriteStructBegin("s"))
	require.NoError(t, p.WriteFieldBegin("a", ttype.I32, 1))
	require.NoError(t, p.WriteI32(10))
	require.NoError(t, p.WriteFieldEnd())
	require.NoError(t, p.WriteFieldBegin("b", ttype.I32, 3))
	require.NoError(t, p.WriteI32(20))
	require.NoError(t, p.WriteFieldEnd())
	require.NoError(t, p.WriteFieldBegin("c", ttype.I32, 2))
	require.NoError(t, p.WriteI32(30))
	require.NoError(t, p.WriteFieldEnd())
	require.NoError(t, p.WriteFieldStop())
	require.NoError(t, p.WriteStructEnd())

	reader := New(buf, nil)
	_, err := reader.ReadStructBegin()
	require.NoError(t, err)

	var ids []int16
	var vals []int32
	for {
		_, fieldType, id, err := reader.ReadFieldBegin()
		require.NoError(t, err)
		if fieldType == ttype.STOP {
			break
		}
		v, err := reader.ReadI32()
		require.NoError(t, err)
		ids = append(ids, id)
		vals = append(vals, v)
		require.NoError(t, reader.ReadFieldEnd())
	}
	require.NoError(t, reader.ReadStructEnd())

	require.Equal(t, []int16{1, 3, 2}, ids)
	require.Equal(t, []int32{10, 20, 30}, vals)
}

func TestMapAndListRoundTrip(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	require.NoError(t, p.WriteListBegin(ttype.STRING, 2))
	require.NoError(t, p.WriteString("x"))
	require.NoError(t, p.WriteString("y"))
	require.NoError(t, p.WriteListEnd())

	reader := New(buf, nil)
	elemType, size, err := reader.ReadListBegin()
	require.NoError(t, err)
	require.Equal(t, ttype.STRING, elemType)
	require.Equal(t, 2, size)
	v1, err := reader.ReadString()
	require.NoError(t, err)
	v2, err := reader.ReadString()
	require.NoError(t, err)
	require.NoError(t, reader.ReadListEnd())
	require.Equal(t, "x", v1)
	require.Equal(t, "y", v2)
}

func TestBoolFieldPackedIntoHeader(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	require.NoError(t, p.WriteStructBegin("s"))
	require.NoError(t, p.WriteFieldBegin("flag", ttype.BOOL, 1))
	require.NoError(t, p.WriteBool(true))
	require.NoError(t, p.WriteFieldEnd())
	require.NoError(t, p.WriteFieldStop())
	require.NoError(t, p.WriteStructEnd())

	reader := New(buf, nil)
	_, err := reader.ReadStructBegin()
	require.NoError(t, err)
	_, fieldType, id, err := reader.ReadFieldBegin()
	require.NoError(t, err)
	require.Equal(t, ttype.BOOL, fieldType)
	require.Equal(t, int16(1), id)
	v, err := reader.ReadBool()
	require.NoError(t, err)
	require.True(t, v)
}
