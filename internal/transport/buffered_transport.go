// file: internal/transport/buffered_transport.go
package transport

import "github.com/dkoosis/thriftrt/internal/logging"

const defaultBufferCapacity = 4096

// BufferedTransport adds a fixed-capacity read-ahead and write-behind
// buffer in front of an underlying Transport, coalescing many small
// protocol-level reads/writes into fewer underlying syscalls. Unlike
// FramedTransport it imposes no message boundary of its own.
type BufferedTransport struct {
	underlying Transport
	logger     logging.Logger

	readBuf  []byte
	readPos  int
	writeBuf []byte
	capacity int
}

// NewBufferedTransport wraps underlying with read/write buffers sized
// to capacity bytes (defaultBufferCapacity if capacity <= 0).
func NewBufferedTransport(underlying Transport, capacity int, logger logging.Logger) *BufferedTransport {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &BufferedTransport{
		underlying: underlying,
		capacity:   capacity,
		logger:     orNoopLogger(logger),
	}
}

func (b *BufferedTransport) SetTConfiguration(cfg *TConfiguration) {
	PropagateTConfiguration(b.underlying, cfg)
}

func (b *BufferedTransport) IsOpen() bool { return b.underlying.IsOpen() }

func (b *BufferedTransport) Open() error { return b.underlying.Open() }

func (b *BufferedTransport) Close() error {
	b.readBuf = nil
	b.readPos = 0
	b.writeBuf = nil
	return b.underlying.Close()
}

func (b *BufferedTransport) fill() error {
	chunk, err := b.underlying.Read(b.capacity)
	if err != nil {
		return err
	}
	b.readBuf = chunk
	b.readPos = 0
	return nil
}

func (b *BufferedTransport) Read(maxLen int) ([]byte, error) {
	if b.readPos >= len(b.readBuf) {
		if err := b.fill(); err != nil {
			return nil, err
		}
	}
	n := maxLen
	if avail := len(b.readBuf) - b.readPos; n > avail {
		n = avail
	}
	out := b.readBuf[b.readPos : b.readPos+n]
	b.readPos += n
	return out, nil
}

func (b *BufferedTransport) ReadAll(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if b.readPos >= len(b.readBuf) {
			if err := b.fill(); err != nil {
				return nil, err
			}
		}
		need := n - len(out)
		avail := len(b.readBuf) - b.readPos
		take := need
		if take > avail {
			take = avail
		}
		out = append(out, b.readBuf[b.readPos:b.readPos+take]...)
		b.readPos += take
	}
	return out, nil
}

// Write appends to the write buffer, flushing automatically once the
// configured capacity would otherwise be exceeded.
func (b *BufferedTransport) Write(p []byte) error {
	b.writeBuf = append(b.writeBuf, p...)
	if len(b.writeBuf) >= b.capacity {
		return b.Flush()
	}
	return nil
}

func (b *BufferedTransport) Flush() error {
	if len(b.writeBuf) == 0 {
		return b.underlying.Flush()
	}
	payload := b.writeBuf
	b.writeBuf = nil
	if err := b.underlying.Write(payload); err != nil {
		return err
	}
	return b.underlying.Flush()
}
