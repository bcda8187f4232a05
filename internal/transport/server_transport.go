// file: internal/transport/server_transport.go
package transport

// ServerTransport is the listening side of a transport: it accepts
// individual connection Transports, each of which a server wraps with
// the configured per-connection transport layers and protocol pair.
type ServerTransport interface {
	Listen() error
	Accept() (Transport, error)
	Close() error
}

// Factory builds one Transport layer on top of another, letting a
// server apply the same wrapping (framed, buffered) to every accepted
// connection without repeating construction logic per call site.
type Factory interface {
	GetTransport(base Transport) (Transport, error)
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(base Transport) (Transport, error)

func (f FactoryFunc) GetTransport(base Transport) (Transport, error) { return f(base) }
