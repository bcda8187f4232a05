// file: internal/server/forking_server.go
package server

import (
	"context"
	"sync"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
)

// TForkingServer serves each accepted connection independently of the
// others, per spec.md §4.5's forking-server accept loop. The reference
// design forks a child OS process per connection; Go's runtime offers
// no equivalent (fork() duplicates only the calling thread, leaving
// every other goroutine's state undefined in the child), so this
// implementation runs one goroutine per connection instead. The
// external contract — independent connection lifetimes, nonblocking
// reap of finished work, parent-side handle cleanup — is preserved.
type TForkingServer struct {
	listener      transport.ServerTransport
	inputFactory  transport.Factory
	outputFactory transport.Factory
	inputProto    protocol.Factory
	outputProto   protocol.Factory
	processor     Processor
	logger        logging.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewTForkingServer(
	listener transport.ServerTransport,
	inputFactory, outputFactory transport.Factory,
	inputProto, outputProto protocol.Factory,
	processor Processor,
	logger logging.Logger,
) *TForkingServer {
	return &TForkingServer{
		listener:      listener,
		inputFactory:  inputFactory,
		outputFactory: outputFactory,
		inputProto:    inputProto,
		outputProto:   outputProto,
		processor:     processor,
		logger:        logging.OrNoop(logger),
	}
}

// Serve accepts connections until Stop is called or Accept fails (a
// transport exception from Accept ends it with nil), handing each one to
// its own goroutine ("child") and returning immediately to accept the
// next. It never blocks on a connection's full lifetime the way
// TSimpleServer does.
func (s *TForkingServer) Serve(ctx context.Context) error {
	if err := s.listener.Listen(); err != nil {
		return err
	}
	defer func() {
		s.listener.Close()
		s.wg.Wait() // reap remaining children before returning
	}()

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
				return nil
			}
			return err
		}

		s.wg.Add(1)
		go s.runChild(ctx, conn)
	}
}

func (s *TForkingServer) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.listener.Close()
}

// runChild is the "child process" body: it drives one connection to
// completion, closing its parent-side handle when done so the
// underlying resources are released without the parent having to poll.
func (s *TForkingServer) runChild(ctx context.Context, conn transport.Transport) {
	defer s.wg.Done()
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
			if !terror.IsTransportException(err) {
				s.logger.Error("child connection processor error", "error", err)
			}
			return
		}
		if !cont {
			return
		}
	}
}
