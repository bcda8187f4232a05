// file: internal/transport/socket_transport.go
package transport

import (
	"net"
	"time"

	"github.com/dkoosis/thriftrt/internal/terror"
)

// SocketTransport is a Transport backed by a net.Conn — the leaf layer
// under FramedTransport/BufferedTransport for any networked deployment,
// as MemoryBuffer is for in-process tests.
type SocketTransport struct {
	addr string
	conn net.Conn
	cfg  *TConfiguration
}

// NewSocketTransport returns an unopened SocketTransport that will dial
// addr on Open.
func NewSocketTransport(addr string) *SocketTransport {
	return &SocketTransport{addr: addr, cfg: DefaultConfiguration()}
}

// NewSocketTransportFromConn wraps an already-connected net.Conn, as
// produced by a SocketServerTransport's Accept.
func NewSocketTransportFromConn(conn net.Conn) *SocketTransport {
	return &SocketTransport{conn: conn, cfg: DefaultConfiguration()}
}

func (s *SocketTransport) SetTConfiguration(cfg *TConfiguration) { s.cfg = cfg }

func (s *SocketTransport) IsOpen() bool { return s.conn != nil }

func (s *SocketTransport) Open() error {
	if s.conn != nil {
		return terror.NewTTransportExceptionMsg(terror.TTransportAlreadyOpen, "socket transport already open")
	}
	conn, err := net.Dial("tcp", s.addr)
	if err != nil {
		return terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	s.conn = conn
	return nil
}

func (s *SocketTransport) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	return nil
}

// applyReadDeadline sets conn's read deadline from the configured
// RecvTimeout, or clears it when no timeout is configured.
func (s *SocketTransport) applyReadDeadline() error {
	if s.cfg == nil || s.cfg.RecvTimeout.IsZero() {
		return s.conn.SetReadDeadline(time.Time{})
	}
	return s.conn.SetReadDeadline(time.Now().Add(s.cfg.RecvTimeout.Duration()))
}

// applyWriteDeadline sets conn's write deadline from the configured
// SendTimeout, or clears it when no timeout is configured.
func (s *SocketTransport) applyWriteDeadline() error {
	if s.cfg == nil || s.cfg.SendTimeout.IsZero() {
		return s.conn.SetWriteDeadline(time.Time{})
	}
	return s.conn.SetWriteDeadline(time.Now().Add(s.cfg.SendTimeout.Duration()))
}

func (s *SocketTransport) Read(maxLen int) ([]byte, error) {
	if s.conn == nil {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "socket transport not open")
	}
	if err := s.applyReadDeadline(); err != nil {
		return nil, terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	buf := make([]byte, maxLen)
	n, err := s.conn.Read(buf)
	if n == 0 && err != nil {
		return nil, classifyReadErr(err)
	}
	return buf[:n], nil
}

func (s *SocketTransport) ReadAll(n int) ([]byte, error) {
	if s.conn == nil {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "socket transport not open")
	}
	if err := s.applyReadDeadline(); err != nil {
		return nil, terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	out := make([]byte, n)
	read := 0
	for read < n {
		k, err := s.conn.Read(out[read:])
		read += k
		if err != nil {
			if read < n {
				return nil, classifyReadErr(err)
			}
			break
		}
		if k == 0 {
			return nil, terror.NewTTransportExceptionMsg(terror.TTransportEndOfFile, "unexpected end of stream")
		}
	}
	return out, nil
}

func (s *SocketTransport) Write(p []byte) error {
	if s.conn == nil {
		return terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "socket transport not open")
	}
	if err := s.applyWriteDeadline(); err != nil {
		return terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	_, err := s.conn.Write(p)
	if err != nil {
		return classifyWriteErr(err)
	}
	return nil
}

// Flush is a no-op: writes to a net.Conn reach the kernel immediately.
func (s *SocketTransport) Flush() error { return nil }

// netTimeoutErr reports whether err is a net.Error that timed out,
// letting both read and write paths surface TTransportTimedOut instead
// of the generic TTransportUnknown, per spec.md §5.
func netTimeoutErr(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func classifyReadErr(err error) error {
	if netTimeoutErr(err) {
		return terror.NewTTransportException(terror.TTransportTimedOut, err)
	}
	if err.Error() == "EOF" {
		return terror.NewTTransportException(terror.TTransportEndOfFile, err)
	}
	return terror.NewTTransportException(terror.TTransportUnknown, err)
}

func classifyWriteErr(err error) error {
	if netTimeoutErr(err) {
		return terror.NewTTransportException(terror.TTransportTimedOut, err)
	}
	return terror.NewTTransportException(terror.TTransportUnknown, err)
}

var _ Transport = (*SocketTransport)(nil)

// SocketServerTransport listens on a TCP address, handing off each
// accepted connection as a SocketTransport.
type SocketServerTransport struct {
	addr     string
	listener net.Listener
}

// NewSocketServerTransport returns a ServerTransport that will listen
// on addr (host:port, or :port for all interfaces) on Listen.
func NewSocketServerTransport(addr string) *SocketServerTransport {
	return &SocketServerTransport{addr: addr}
}

func (s *SocketServerTransport) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	s.listener = ln
	return nil
}

func (s *SocketServerTransport) Accept() (Transport, error) {
	if s.listener == nil {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportNotOpen, "server transport not listening")
	}
	conn, err := s.listener.Accept()
	if err != nil {
		return nil, terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	return NewSocketTransportFromConn(conn), nil
}

func (s *SocketServerTransport) Close() error {
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	if err != nil {
		return terror.NewTTransportException(terror.TTransportUnknown, err)
	}
	return nil
}

// Addr returns the listener's bound address, useful when addr was
// passed with a ":0" port for an ephemeral test listener.
func (s *SocketServerTransport) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

var _ ServerTransport = (*SocketServerTransport)(nil)
