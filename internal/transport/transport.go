// Package transport implements the layered byte-transport stack: a raw
// byte sink/source contract plus composable layers (framed, buffered,
// in-process pipe, memory buffer) that sit underneath a Protocol.
// file: internal/transport/transport.go
package transport

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/terror"
)

// DefaultMaxMessageSize bounds a single logical message when no explicit
// configuration is supplied. It exists so a misbehaving peer cannot make
// the runtime allocate unbounded memory for a single frame or container.
const DefaultMaxMessageSize = 100 * 1024 * 1024 // 100MiB

// Transport is the contract every layer in the stack implements: a
// duplex byte stream with explicit open/close lifecycle and the two read
// shapes generated protocol code needs (best-effort and exact).
type Transport interface {
	// IsOpen reports whether the transport is ready for reads/writes.
	IsOpen() bool

	// Open prepares the transport for use (e.g. dialing, acquiring a
	// handle). Whether opening an already-open transport is an error
	// depends on the layer: SocketTransport reports ALREADY_OPEN, while
	// MemoryBuffer and Pipe accept it.
	Open() error

	// Close releases any underlying resources. Closing an already-closed
	// transport is a no-op.
	Close() error

	// Read reads up to maxLen bytes, returning fewer if that is all that
	// is immediately available.
	Read(maxLen int) ([]byte, error)

	// ReadAll reads exactly n bytes or returns an error; it never
	// returns a short read without an error.
	ReadAll(n int) ([]byte, error)

	// Write buffers or sends p. Whether it reaches the peer before the
	// next Flush is layer-specific.
	Write(p []byte) error

	// Flush pushes any buffered bytes to the peer.
	Flush() error
}

// Timeout expresses a duration as the (seconds, microseconds) pair used
// to configure a transport's send/receive deadlines. A zero Timeout
// means no deadline.
type Timeout struct {
	Seconds      int64
	Microseconds int64
}

// Duration converts t to a time.Duration for use with net.Conn's
// deadline calls.
func (t Timeout) Duration() time.Duration {
	return time.Duration(t.Seconds)*time.Second + time.Duration(t.Microseconds)*time.Microsecond
}

// IsZero reports whether t configures no timeout at all.
func (t Timeout) IsZero() bool {
	return t.Seconds == 0 && t.Microseconds == 0
}

// TConfiguration carries the size limits and timeouts shared across a
// layered transport stack. It is a value object: nothing in this
// package mutates it at runtime, so the same *TConfiguration can be
// shared by every layer wrapping the same underlying connection.
type TConfiguration struct {
	// MaxMessageSize bounds any single frame length or declared
	// container/struct size read from the wire.
	MaxMessageSize int64

	// SendTimeout and RecvTimeout bound how long a single Write/Flush or
	// Read/ReadAll may block on the underlying connection before the
	// transport fails with TTransportTimedOut, per spec.md §5. A zero
	// Timeout leaves the corresponding deadline unset (block forever).
	SendTimeout Timeout
	RecvTimeout Timeout
}

// DefaultConfiguration returns a TConfiguration using DefaultMaxMessageSize
// and no timeouts.
func DefaultConfiguration() *TConfiguration {
	return &TConfiguration{MaxMessageSize: DefaultMaxMessageSize}
}

// CheckSize validates a declared size (a frame length, or a struct/
// container element count converted to a worst-case byte count) against
// the configured limit, failing before any buffer sized by that value is
// allocated.
func (c *TConfiguration) CheckSize(size int64) error {
	if c == nil {
		return nil
	}
	if size < 0 {
		return terror.NewTTransportException(terror.TTransportNegativeSize, errors.Newf("negative size %d", size))
	}
	if c.MaxMessageSize > 0 && size > c.MaxMessageSize {
		return terror.NewTTransportException(terror.TTransportSizeLimit, errors.Newf("size %d exceeds configured maximum %d", size, c.MaxMessageSize))
	}
	return nil
}

// FrameReader is implemented by transports that buffer an entire
// message frame before any of it is decoded, letting a caller inspect
// the raw frame bytes (e.g. for schema validation) without consuming
// them — the next Read/ReadAll still sees the full frame from its
// start.
type FrameReader interface {
	PeekFrame() ([]byte, error)
}

// configurationSetter is implemented by layers that forward configuration
// to whatever they wrap, mirroring how a stack of transports shares one
// size-limit policy end to end.
type configurationSetter interface {
	SetTConfiguration(cfg *TConfiguration)
}

// PropagateTConfiguration pushes cfg onto t if t (or something it wraps)
// knows how to accept one. It is a no-op for transports with no size
// policy of their own, e.g. MemoryBuffer.
func PropagateTConfiguration(t Transport, cfg *TConfiguration) {
	if t == nil || cfg == nil {
		return
	}
	if setter, ok := t.(configurationSetter); ok {
		setter.SetTConfiguration(cfg)
	}
}

func orNoopLogger(l logging.Logger) logging.Logger {
	return logging.OrNoop(l)
}
