// file: internal/auth/sasl_transport.go
package auth

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/fsm"
	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
)

const (
	stateStart       fsm.State = "start"
	stateNegotiating fsm.State = "negotiating"
	stateComplete    fsm.State = "complete"
	stateFailed      fsm.State = "failed"

	eventBegin    fsm.Event = "begin"
	eventContinue fsm.Event = "continue"
	eventFinish   fsm.Event = "finish"
	eventFail     fsm.Event = "fail"
)

func newNegotiationFSM(logger logging.Logger) fsm.FSM {
	m := fsm.NewFSM(stateStart, logger)
	m.AddTransition(fsm.Transition{From: []fsm.State{stateStart}, To: stateNegotiating, Event: eventBegin})
	m.AddTransition(fsm.Transition{From: []fsm.State{stateNegotiating}, To: stateNegotiating, Event: eventContinue})
	m.AddTransition(fsm.Transition{From: []fsm.State{stateStart, stateNegotiating}, To: stateComplete, Event: eventFinish})
	m.AddTransition(fsm.Transition{From: []fsm.State{stateStart, stateNegotiating}, To: stateFailed, Event: eventFail})
	return m
}

// SASLTransport wraps a transport.Transport with the negotiation
// handshake and, once complete, per-frame Wrap/Unwrap described in
// spec.md §4.1. Construct one with NewClientSASLTransport or
// NewServerSASLTransport; Open() drives the handshake to completion
// before any application data may flow.
type SASLTransport struct {
	underlying transport.Transport
	cfg        *transport.TConfiguration
	mechanism  Mechanism
	isServer   bool
	machine    fsm.FSM
	logger     logging.Logger

	negotiated bool
	readBuf    []byte
	writeBuf   []byte
}

// NewClientSASLTransport builds the client side of a negotiation over
// underlying, using mechanism to produce responses to the server's
// challenges.
func NewClientSASLTransport(underlying transport.Transport, mechanism Mechanism, logger logging.Logger) *SASLTransport {
	logger = logging.OrNoop(logger).WithField("component", "sasl_transport")
	return &SASLTransport{
		underlying: underlying,
		cfg:        transport.DefaultConfiguration(),
		mechanism:  mechanism,
		isServer:   false,
		machine:    newNegotiationFSM(logger),
		logger:     logger,
	}
}

// NewServerSASLTransport builds the server side of a negotiation over
// underlying, using mechanism to validate the client's responses.
func NewServerSASLTransport(underlying transport.Transport, mechanism Mechanism, logger logging.Logger) *SASLTransport {
	logger = logging.OrNoop(logger).WithField("component", "sasl_transport")
	return &SASLTransport{
		underlying: underlying,
		cfg:        transport.DefaultConfiguration(),
		mechanism:  mechanism,
		isServer:   true,
		machine:    newNegotiationFSM(logger),
		logger:     logger,
	}
}

func (s *SASLTransport) SetTConfiguration(cfg *transport.TConfiguration) {
	s.cfg = cfg
	transport.PropagateTConfiguration(s.underlying, cfg)
}

func (s *SASLTransport) IsOpen() bool {
	return s.underlying.IsOpen() && s.negotiated
}

// Open drives the underlying transport open (if needed) and then runs
// the negotiation handshake to completion. Application Read/Write calls
// made before Open returns successfully will fail.
func (s *SASLTransport) Open() error {
	if err := s.machine.Build(); err != nil {
		return err
	}
	if !s.underlying.IsOpen() {
		if err := s.underlying.Open(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	if err := s.machine.Transition(ctx, eventBegin, nil); err != nil {
		return err
	}

	var err error
	if s.isServer {
		err = s.negotiateServer(ctx)
	} else {
		err = s.negotiateClient(ctx)
	}
	if err != nil {
		_ = s.machine.Transition(ctx, eventFail, nil)
		return err
	}

	s.negotiated = true
	return nil
}

func (s *SASLTransport) negotiateClient(ctx context.Context) error {
	response, complete, err := s.mechanism.EvaluateChallenge(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "SASL client failed to produce initial response")
	}
	startStatus := StatusStart
	if err := writeSASLHeader(s.underlying, startStatus, response); err != nil {
		return err
	}
	if complete {
		return s.awaitServerCompletion(ctx)
	}

	for {
		status, payload, err := readSASLHeader(s.underlying, s.cfg)
		if err != nil {
			return err
		}
		switch status {
		case StatusComplete:
			return s.finishClient(ctx)
		case StatusBad, StatusError:
			return errors.Newf("SASL negotiation rejected by server: %s", string(payload))
		case StatusOK:
			response, complete, err := s.mechanism.EvaluateChallenge(ctx, payload)
			if err != nil {
				return errors.Wrap(err, "SASL client failed to evaluate challenge")
			}
			nextStatus := StatusOK
			if complete {
				nextStatus = StatusComplete
			}
			if err := writeSASLHeader(s.underlying, nextStatus, response); err != nil {
				return err
			}
			if complete {
				return s.machine.Transition(ctx, eventFinish, nil)
			}
			if err := s.machine.Transition(ctx, eventContinue, nil); err != nil {
				return err
			}
		default:
			return errors.Newf("unexpected SASL status %d during negotiation", status)
		}
	}
}

func (s *SASLTransport) awaitServerCompletion(ctx context.Context) error {
	status, payload, err := readSASLHeader(s.underlying, s.cfg)
	if err != nil {
		return err
	}
	switch status {
	case StatusComplete:
		return s.finishClient(ctx)
	case StatusBad, StatusError:
		return errors.Newf("SASL negotiation rejected by server: %s", string(payload))
	default:
		return errors.Newf("unexpected SASL status %d awaiting server completion", status)
	}
}

func (s *SASLTransport) finishClient(ctx context.Context) error {
	return s.machine.Transition(ctx, eventFinish, nil)
}

func (s *SASLTransport) negotiateServer(ctx context.Context) error {
	status, payload, err := readSASLHeader(s.underlying, s.cfg)
	if err != nil {
		return err
	}
	if status != StatusStart {
		return errors.Newf("expected SASL status START, got %d", status)
	}

	for {
		outcome, complete, err := s.mechanism.EvaluateResponse(ctx, payload)
		if err != nil {
			_ = writeSASLHeader(s.underlying, StatusBad, []byte(err.Error()))
			return err
		}
		if complete {
			if err := writeSASLHeader(s.underlying, StatusComplete, outcome); err != nil {
				return err
			}
			return s.machine.Transition(ctx, eventFinish, nil)
		}
		if err := writeSASLHeader(s.underlying, StatusOK, outcome); err != nil {
			return err
		}
		if err := s.machine.Transition(ctx, eventContinue, nil); err != nil {
			return err
		}

		status, payload, err = readSASLHeader(s.underlying, s.cfg)
		if err != nil {
			return err
		}
		if status != StatusOK {
			return errors.Newf("expected SASL status OK, got %d", status)
		}
	}
}

// Close closes the underlying transport.
func (s *SASLTransport) Close() error {
	return s.underlying.Close()
}

func (s *SASLTransport) requireNegotiated() error {
	if !s.negotiated {
		return terror.NewTTransportException(terror.TTransportNotOpen, errors.New("SASL negotiation has not completed"))
	}
	return nil
}

// readApplicationFrame reads one length-prefixed application frame
// (no status byte — only negotiation frames carry one) and unwraps it
// per the mechanism's QOP.
func (s *SASLTransport) readApplicationFrame() error {
	lenBytes, err := s.underlying.ReadAll(4)
	if err != nil {
		return err
	}
	length := int64(binary.BigEndian.Uint32(lenBytes))
	if err := s.cfg.CheckSize(length); err != nil {
		return err
	}
	payload, err := s.underlying.ReadAll(int(length))
	if err != nil {
		return err
	}
	if s.mechanism.QOP() != QOPAuth {
		payload, err = s.mechanism.Unwrap(payload)
		if err != nil {
			return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData, errors.Wrap(err, "SASL unwrap failed"))
		}
	}
	s.readBuf = payload
	return nil
}

func (s *SASLTransport) Read(maxLen int) ([]byte, error) {
	if err := s.requireNegotiated(); err != nil {
		return nil, err
	}
	if len(s.readBuf) == 0 {
		if err := s.readApplicationFrame(); err != nil {
			return nil, err
		}
	}
	n := maxLen
	if n > len(s.readBuf) {
		n = len(s.readBuf)
	}
	out := s.readBuf[:n]
	s.readBuf = s.readBuf[n:]
	return out, nil
}

func (s *SASLTransport) ReadAll(n int) ([]byte, error) {
	if err := s.requireNegotiated(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		chunk, err := s.Read(n - len(out))
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return nil, terror.NewTTransportException(terror.TTransportEndOfFile, errors.New("SASL transport: short read"))
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (s *SASLTransport) Write(p []byte) error {
	if err := s.requireNegotiated(); err != nil {
		return err
	}
	s.writeBuf = append(s.writeBuf, p...)
	return nil
}

func (s *SASLTransport) Flush() error {
	if err := s.requireNegotiated(); err != nil {
		return err
	}
	payload := s.writeBuf
	s.writeBuf = nil

	var err error
	if s.mechanism.QOP() != QOPAuth {
		payload, err = s.mechanism.Wrap(payload)
		if err != nil {
			return terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData, errors.Wrap(err, "SASL wrap failed"))
		}
	}

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if err := s.underlying.Write(header); err != nil {
		return err
	}
	if err := s.underlying.Write(payload); err != nil {
		return err
	}
	return s.underlying.Flush()
}

var _ transport.Transport = (*SASLTransport)(nil)
