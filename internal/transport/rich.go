// file: internal/transport/rich.go
package transport

import "github.com/dkoosis/thriftrt/internal/terror"

// ByteTransport adds single-byte read/write operations on top of the
// base Transport contract. The compact protocol's varint and zigzag
// encodings read and write one byte at a time; routing every one of
// those through Read/Write's slice allocation would be wasteful, so
// protocols type-assert for this narrower interface and fall back to
// RichTransport when a layer doesn't provide it natively.
type ByteTransport interface {
	Transport
	ReadByte() (byte, error)
	WriteByte(b byte) error
}

// RichTransport adapts any Transport into a ByteTransport, allocating a
// small reusable scratch buffer rather than one per call.
type RichTransport struct {
	Transport
	scratch [1]byte
}

// NewRichTransport wraps t, returning t unchanged if it already
// implements ByteTransport.
func NewRichTransport(t Transport) ByteTransport {
	if bt, ok := t.(ByteTransport); ok {
		return bt
	}
	return &RichTransport{Transport: t}
}

func (r *RichTransport) ReadByte() (byte, error) {
	b, err := r.Transport.ReadAll(1)
	if err != nil {
		return 0, err
	}
	if len(b) != 1 {
		return 0, terror.NewTTransportExceptionMsg(terror.TTransportEndOfFile, "short byte read")
	}
	return b[0], nil
}

func (r *RichTransport) WriteByte(b byte) error {
	r.scratch[0] = b
	return r.Transport.Write(r.scratch[:])
}
