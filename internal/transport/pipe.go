// file: internal/transport/pipe.go
package transport

import (
	"bytes"
	"sync"

	"github.com/dkoosis/thriftrt/internal/terror"
)

// Pipe is an in-process Transport backed by a byte channel, letting a
// server and client Protocol talk to each other in a single process
// without any real I/O. PipePair wires two ends together the way a
// socket pair would.
type Pipe struct {
	incoming chan []byte
	outgoing chan []byte

	pending bytes.Buffer // bytes received but not yet consumed by Read/ReadAll

	mu     sync.Mutex
	closed bool
}

// PipePair holds two Pipe endpoints wired so writes to one are
// readable from the other.
type PipePair struct {
	Left  *Pipe
	Right *Pipe
}

// NewPipePair returns a connected pair of in-process transports.
func NewPipePair(bufSize int) *PipePair {
	if bufSize <= 0 {
		bufSize = 64
	}
	a := make(chan []byte, bufSize)
	b := make(chan []byte, bufSize)
	left := &Pipe{incoming: b, outgoing: a}
	right := &Pipe{incoming: a, outgoing: b}
	return &PipePair{Left: left, Right: right}
}

func (p *Pipe) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *Pipe) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = false
	return nil
}

func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Pipe) fillFromChannel() error {
	chunk, ok := <-p.incoming
	if !ok {
		return terror.NewTTransportExceptionMsg(terror.TTransportEndOfFile, "pipe closed by peer")
	}
	p.pending.Write(chunk)
	return nil
}

func (p *Pipe) Read(maxLen int) ([]byte, error) {
	if !p.IsOpen() {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "pipe not open")
	}
	if p.pending.Len() == 0 {
		if err := p.fillFromChannel(); err != nil {
			return nil, err
		}
	}
	out := make([]byte, maxLen)
	n, _ := p.pending.Read(out)
	return out[:n], nil
}

func (p *Pipe) ReadAll(n int) ([]byte, error) {
	if !p.IsOpen() {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "pipe not open")
	}
	for p.pending.Len() < n {
		if err := p.fillFromChannel(); err != nil {
			return nil, err
		}
	}
	out := make([]byte, n)
	_, _ = p.pending.Read(out)
	return out, nil
}

func (p *Pipe) Write(b []byte) error {
	if !p.IsOpen() {
		return terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "pipe not open")
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	p.outgoing <- cp
	return nil
}

// Flush is a no-op: each Write already delivers its chunk to the peer.
func (p *Pipe) Flush() error { return nil }
