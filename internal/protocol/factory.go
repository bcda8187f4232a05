// file: internal/protocol/factory.go
package protocol

import "github.com/dkoosis/thriftrt/internal/transport"

// Factory builds a Protocol instance bound to trans. A server holds
// one Factory for the input direction and one for the output
// direction (generally the same concrete encoding), per spec.md §2.
type Factory interface {
	GetProtocol(trans transport.Transport) Protocol
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(trans transport.Transport) Protocol

func (f FactoryFunc) GetProtocol(trans transport.Transport) Protocol { return f(trans) }
