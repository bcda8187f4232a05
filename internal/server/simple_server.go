// file: internal/server/simple_server.go
package server

import (
	"context"
	"sync"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
)

// TSimpleServer runs a single-threaded accept loop: it serves one
// connection to completion before accepting the next, per spec.md
// §4.5/§5. It is the right choice for a test harness or a trusted,
// low-concurrency deployment; TForkingServer serves connections
// independently of each other.
type TSimpleServer struct {
	listener      transport.ServerTransport
	inputFactory  transport.Factory
	outputFactory transport.Factory
	inputProto    protocol.Factory
	outputProto   protocol.Factory
	processor     Processor
	logger        logging.Logger

	mu      sync.Mutex
	stopped bool
}

// NewTSimpleServer wires a listening transport, the per-connection
// transport factories (pass transport.FactoryFunc for an identity
// wrapper if no extra layering is needed), the protocol factory pair,
// and the processor every accepted connection is driven through.
func NewTSimpleServer(
	listener transport.ServerTransport,
	inputFactory, outputFactory transport.Factory,
	inputProto, outputProto protocol.Factory,
	processor Processor,
	logger logging.Logger,
) *TSimpleServer {
	return &TSimpleServer{
		listener:      listener,
		inputFactory:  inputFactory,
		outputFactory: outputFactory,
		inputProto:    inputProto,
		outputProto:   outputProto,
		processor:     processor,
		logger:        logging.OrNoop(logger),
	}
}

// Serve listens and accepts connections until Stop is called or the
// listener fails to accept.
func (s *TSimpleServer) Serve(ctx context.Context) error {
	if err := s.listener.Listen(); err != nil {
		return err
	}
	defer s.listener.Close()

	for {
		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return nil
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if terror.IsTransportException(err) {
				s.logger.Warn("accept failed, stopping", "error", err)
				return err
			}
			return err
		}
		s.serveConnection(ctx, conn)
	}
}

// Stop closes the listening transport; the accept loop exits at its
// next iteration, per the cooperative-cancellation model in spec.md §5.
func (s *TSimpleServer) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.listener.Close()
}

func (s *TSimpleServer) serveConnection(ctx context.Context, conn transport.Transport) {
	defer conn.Close()

	inTrans, err := s.inputFactory.GetTransport(conn)
	if err != nil {
		s.logger.Error("failed to build input transport", "error", err)
		return
	}
	outTrans, err := s.outputFactory.GetTransport(conn)
	if err != nil {
		s.logger.Error("failed to build output transport", "error", err)
		return
	}
	in := s.inputProto.GetProtocol(inTrans)
	out := s.outputProto.GetProtocol(outTrans)

	for {
		cont, err := s.processor.Process(ctx, in, out)
		if err != nil {
			if terror.IsTransportException(err) {
				s.logger.Debug("connection closed", "error", err)
			} else {
				s.logger.Error("processor error, closing connection", "error", err)
			}
			return
		}
		if !cont {
			return
		}
	}
}
