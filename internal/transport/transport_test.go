// file: internal/transport/transport_test.go
package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBufferReadWriteRoundTrip(t *testing.T) {
	buf := NewMemoryBuffer(0)
	require.NoError(t, buf.Write([]byte("hello")))
	out, err := buf.ReadAll(5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))
}

func TestMemoryBufferEnforcesLimit(t *testing.T) {
	buf := NewMemoryBuffer(4)
	require.Error(t, buf.Write([]byte("12345")))
}

func TestMemoryBufferReadAllShortFails(t *testing.T) {
	buf := NewMemoryBufferFrom([]byte("ab"))
	_, err := buf.ReadAll(5)
	require.Error(t, err)
}

// TestFramedTransportHelloWorldFrame exercises the exact byte sequence
// from spec.md §8's partial-read scenario: a 13-byte "Hello, world!"
// payload framed as 00 00 00 0D followed by the ASCII bytes, read back
// in pieces smaller than the full frame.
func TestFramedTransportHelloWorldFrame(t *testing.T) {
	raw := []byte{
		0x00, 0x00, 0x00, 0x0D,
		'H', 'e', 'l', 'l', 'o', ',', ' ', 'w', 'o', 'r', 'l', 'd', '!',
	}
	buf := NewMemoryBufferFrom(raw)
	framed := NewFramedTransport(buf, nil)

	first, err := framed.ReadAll(5)
	require.NoError(t, err)
	require.Equal(t, "Hello", string(first))

	rest, err := framed.ReadAll(8)
	require.NoError(t, err)
	require.Equal(t, ", world!", string(rest))
}

func TestFramedTransportZeroLengthFrame(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x00, 0x00}
	buf := NewMemoryBufferFrom(raw)
	framed := NewFramedTransport(buf, nil)

	out, err := framed.Read(10)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestFramedTransportWriteFlushRoundTrip(t *testing.T) {
	buf := NewMemoryBuffer(0)
	framed := NewFramedTransport(buf, nil)

	require.NoError(t, framed.Write([]byte("abc")))
	require.NoError(t, framed.Write([]byte("def")))
	require.NoError(t, framed.Flush())

	readBack := NewFramedTransport(buf, nil)
	out, err := readBack.ReadAll(6)
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(out))
}

func TestFramedTransportRejectsOversizedFrame(t *testing.T) {
	header := []byte{0x7F, 0xFF, 0xFF, 0xFF} // huge declared length
	buf := NewMemoryBufferFrom(header)
	framed := NewFramedTransport(buf, nil)
	framed.SetTConfiguration(&TConfiguration{MaxMessageSize: 1024})

	_, err := framed.Read(1)
	require.Error(t, err)
}

func TestFramedTransportPutBackPrependsToReadBuffer(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	buf := NewMemoryBufferFrom(raw)
	framed := NewFramedTransport(buf, nil)

	first, err := framed.ReadAll(2)
	require.NoError(t, err)
	require.Equal(t, "he", string(first))

	framed.PutBack([]byte("xy"))
	rest, err := framed.ReadAll(5)
	require.NoError(t, err)
	require.Equal(t, "xyllo", string(rest))
}

func TestFramedTransportPutBackEmptyIsNoop(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x00, 0x02, 'a', 'b'}
	buf := NewMemoryBufferFrom(raw)
	framed := NewFramedTransport(buf, nil)

	framed.PutBack(nil)
	out, err := framed.ReadAll(2)
	require.NoError(t, err)
	require.Equal(t, "ab", string(out))
}

func TestBufferedTransportCoalescesWrites(t *testing.T) {
	buf := NewMemoryBuffer(0)
	bt := NewBufferedTransport(buf, 1024, nil)

	require.NoError(t, bt.Write([]byte("one ")))
	require.NoError(t, bt.Write([]byte("two")))
	// Nothing underlying yet: still within capacity.
	require.Equal(t, 0, buf.Len())
	require.NoError(t, bt.Flush())
	require.Equal(t, "one two", string(buf.Bytes()))
}

func TestPipePairDeliversWrites(t *testing.T) {
	pair := NewPipePair(0)
	require.NoError(t, pair.Left.Write([]byte("ping")))
	out, err := pair.Right.ReadAll(4)
	require.NoError(t, err)
	require.Equal(t, "ping", string(out))

	require.NoError(t, pair.Right.Write([]byte("pong")))
	out, err = pair.Left.ReadAll(4)
	require.NoError(t, err)
	require.Equal(t, "pong", string(out))
}

func TestCheckSizeRejectsNegativeAndOversized(t *testing.T) {
	cfg := &TConfiguration{MaxMessageSize: 10}
	require.Error(t, cfg.CheckSize(-1))
	require.Error(t, cfg.CheckSize(11))
	require.NoError(t, cfg.CheckSize(10))
}
