// file: internal/transport/memory_buffer.go
package transport

import (
	"bytes"

	"github.com/dkoosis/thriftrt/internal/terror"
)

// MemoryBuffer is a Transport backed entirely by an in-process byte
// buffer. It never blocks; its only size policy is the optional write
// limit given to NewMemoryBuffer, and it ignores TConfiguration.
type MemoryBuffer struct {
	buf    bytes.Buffer
	open   bool
	limit  int // 0 means unbounded growth
}

// NewMemoryBuffer returns an empty, open MemoryBuffer. limit, if
// positive, bounds how many bytes Write will accept before failing.
func NewMemoryBuffer(limit int) *MemoryBuffer {
	return &MemoryBuffer{open: true, limit: limit}
}

// NewMemoryBufferFrom seeds the buffer with existing content, useful
// for constructing a transport a test can immediately read from.
func NewMemoryBufferFrom(data []byte) *MemoryBuffer {
	m := &MemoryBuffer{open: true}
	m.buf.Write(data)
	return m
}

func (m *MemoryBuffer) IsOpen() bool { return m.open }

func (m *MemoryBuffer) Open() error {
	m.open = true
	return nil
}

func (m *MemoryBuffer) Close() error {
	m.open = false
	m.buf.Reset()
	return nil
}

func (m *MemoryBuffer) Read(maxLen int) ([]byte, error) {
	if !m.open {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "memory buffer not open")
	}
	out := make([]byte, maxLen)
	n, err := m.buf.Read(out)
	if n == 0 && err != nil {
		return nil, terror.NewTTransportException(terror.TTransportEndOfFile, err)
	}
	return out[:n], nil
}

func (m *MemoryBuffer) ReadAll(n int) ([]byte, error) {
	if !m.open {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "memory buffer not open")
	}
	out := make([]byte, n)
	read := 0
	for read < n {
		k, err := m.buf.Read(out[read:])
		read += k
		if err != nil {
			if read < n {
				return nil, terror.NewTTransportException(terror.TTransportEndOfFile, err)
			}
			break
		}
		if k == 0 {
			return nil, terror.NewTTransportExceptionMsg(terror.TTransportEndOfFile, "unexpected end of memory buffer")
		}
	}
	return out, nil
}

func (m *MemoryBuffer) Write(p []byte) error {
	if !m.open {
		return terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "memory buffer not open")
	}
	if m.limit > 0 && m.buf.Len()+len(p) > m.limit {
		return terror.NewTTransportExceptionMsg(terror.TTransportSizeLimit, "memory buffer exceeds configured limit")
	}
	_, err := m.buf.Write(p)
	return err
}

// Flush is a no-op: MemoryBuffer has no downstream to push bytes to.
func (m *MemoryBuffer) Flush() error { return nil }

// Bytes returns the unread portion of the buffer without consuming it.
func (m *MemoryBuffer) Bytes() []byte { return m.buf.Bytes() }

// Len reports the number of unread bytes remaining.
func (m *MemoryBuffer) Len() int { return m.buf.Len() }

// Reset discards all buffered content, leaving the buffer open.
func (m *MemoryBuffer) Reset() { m.buf.Reset() }
