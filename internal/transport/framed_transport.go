// file: internal/transport/framed_transport.go
package transport

import (
	"encoding/binary"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/terror"
)

// FramedTransport wraps an underlying Transport so that every Flush
// emits one self-delimited frame: a 4-byte big-endian length prefix
// followed by exactly that many payload bytes. Reads are similarly
// frame-aware: the entire next frame is pulled into an internal
// buffer on first Read/ReadAll after the previous frame is exhausted.
type FramedTransport struct {
	underlying Transport
	cfg        *TConfiguration
	logger     logging.Logger

	writeBuf []byte // accumulates bytes written since the last Flush
	readBuf  []byte // unread bytes from the current frame
}

// NewFramedTransport wraps underlying in frame encoding/decoding.
func NewFramedTransport(underlying Transport, logger logging.Logger) *FramedTransport {
	return &FramedTransport{
		underlying: underlying,
		cfg:        DefaultConfiguration(),
		logger:     orNoopLogger(logger),
	}
}

func (f *FramedTransport) SetTConfiguration(cfg *TConfiguration) {
	f.cfg = cfg
	PropagateTConfiguration(f.underlying, cfg)
}

func (f *FramedTransport) IsOpen() bool { return f.underlying.IsOpen() }

func (f *FramedTransport) Open() error { return f.underlying.Open() }

func (f *FramedTransport) Close() error {
	f.readBuf = nil
	f.writeBuf = nil
	return f.underlying.Close()
}

// readFrame blocks until a full frame header and body have been read
// into readBuf, failing fast on a declared length that violates the
// configured size limit before any body buffer is allocated.
func (f *FramedTransport) readFrame() error {
	header, err := f.underlying.ReadAll(4)
	if err != nil {
		return err
	}
	size := int64(binary.BigEndian.Uint32(header))
	if err := f.cfg.CheckSize(size); err != nil {
		return err
	}
	body, err := f.underlying.ReadAll(int(size))
	if err != nil {
		return err
	}
	f.readBuf = body
	return nil
}

// PeekFrame ensures the next frame is loaded into readBuf and returns a
// copy of its entire remaining contents without consuming any of it, so
// a subsequent Read/ReadAll still sees the frame from its start. Valid
// only when called before any Read/ReadAll of the frame has begun.
func (f *FramedTransport) PeekFrame() ([]byte, error) {
	if len(f.readBuf) == 0 {
		if err := f.readFrame(); err != nil {
			return nil, err
		}
	}
	return append([]byte{}, f.readBuf...), nil
}

var _ FrameReader = (*FramedTransport)(nil)

func (f *FramedTransport) Read(maxLen int) ([]byte, error) {
	if len(f.readBuf) == 0 {
		if err := f.readFrame(); err != nil {
			return nil, err
		}
	}
	n := maxLen
	if n > len(f.readBuf) {
		n = len(f.readBuf)
	}
	out := f.readBuf[:n]
	f.readBuf = f.readBuf[n:]
	return out, nil
}

// PutBack prepends data to the unread portion of the current frame, so
// a subsequent Read/ReadAll sees it again before anything else. This is
// how a caller that peeked past a logical boundary (e.g. a protocol
// doing lookahead) un-reads what it didn't actually consume.
func (f *FramedTransport) PutBack(data []byte) {
	if len(data) == 0 {
		return
	}
	f.readBuf = append(append([]byte{}, data...), f.readBuf...)
}

func (f *FramedTransport) ReadAll(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if len(f.readBuf) == 0 {
			if err := f.readFrame(); err != nil {
				return nil, err
			}
		}
		need := n - len(out)
		take := need
		if take > len(f.readBuf) {
			take = len(f.readBuf)
		}
		out = append(out, f.readBuf[:take]...)
		f.readBuf = f.readBuf[take:]
	}
	return out, nil
}

// Write appends p to the pending-frame buffer; nothing reaches the
// underlying transport until Flush.
func (f *FramedTransport) Write(p []byte) error {
	f.writeBuf = append(f.writeBuf, p...)
	return nil
}

// Flush emits the accumulated write buffer as one length-prefixed
// frame. The write buffer is cleared before delegating to the
// underlying transport's Write/Flush, so a panic or error partway
// through the delegate call can never cause the same bytes to be
// framed and sent twice on a later Flush.
func (f *FramedTransport) Flush() error {
	size := int64(len(f.writeBuf))
	if err := f.cfg.CheckSize(size); err != nil {
		f.writeBuf = nil
		return err
	}
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(size))
	payload := f.writeBuf
	f.writeBuf = nil

	if err := f.underlying.Write(header); err != nil {
		return terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	if len(payload) > 0 {
		if err := f.underlying.Write(payload); err != nil {
			return terror.NewTTransportException(terror.TTransportUnknown, err)
		}
	}
	return f.underlying.Flush()
}
