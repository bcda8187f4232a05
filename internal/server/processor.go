// Package server implements the generic accept loop and processor
// dispatch contract from spec.md §4.5: a Processor reads a message
// header, dispatches by method name, invokes a handler, writes a
// reply, and reports whether the connection should continue.
// file: internal/server/processor.go
package server

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// EnvelopeValidator is implemented by internal/schema.Validator. Kept
// as a narrow interface here so this package doesn't need the schema
// package's jsonschema dependency except when strict mode is wired in.
type EnvelopeValidator interface {
	Validate(data []byte) error
}

// Processor is implemented by generated service code: Process reads
// one message from in, dispatches it, writes the reply to out, and
// reports whether the caller should keep looping.
type Processor interface {
	Process(ctx context.Context, in, out protocol.Protocol) (bool, error)
}

// HandlerFunc handles one dispatched CALL/ONEWAY message body already
// positioned past the message header (the caller has read name/type,
// and is given seqID since it was already consumed reading that
// header, but not yet the argument struct). It reads its own arguments
// from in, including the terminating ReadMessageEnd, and — for non-
// oneway calls (out != nil) — writes its own complete reply
// (WriteMessageBegin through Transport().Flush()) to out, echoing
// seqID so the caller can match reply to call; MultiplexedProcessor
// only synthesizes a reply itself for the unknown-method and handler-
// error cases.
type HandlerFunc func(ctx context.Context, in, out protocol.Protocol, seqID int32) error

// MultiplexedProcessor is a name-keyed dispatch table: the teacher's
// jsonrpc_handler.go Adapter registry, generalized from JSON-RPC
// method names to Thrift message names and from a connection-object
// reply to a Protocol writer.
type MultiplexedProcessor struct {
	handlers  map[string]HandlerFunc
	logger    logging.Logger
	validator EnvelopeValidator
}

// NewMultiplexedProcessor returns an empty dispatch table.
func NewMultiplexedProcessor(logger logging.Logger) *MultiplexedProcessor {
	return &MultiplexedProcessor{
		handlers: make(map[string]HandlerFunc),
		logger:   logging.OrNoop(logger),
	}
}

// RegisterHandler binds name to fn, overwriting any previous binding.
func (m *MultiplexedProcessor) RegisterHandler(name string, fn HandlerFunc) {
	m.handlers[name] = fn
}

// SetValidator enables strict mode: every incoming message's raw frame
// is validated before it is decoded. Only effective when in's transport
// implements transport.FrameReader (FramedTransport does); otherwise
// Process silently skips validation, since there is no whole-frame view
// to check.
func (m *MultiplexedProcessor) SetValidator(v EnvelopeValidator) {
	m.validator = v
}

// Process implements Processor. It returns (true, nil) unless the
// message header itself cannot be read, strict mode rejects the frame,
// or skipping an unknown method's arguments or writing a reply fails,
// in which case the caller should close the connection rather than
// retry.
func (m *MultiplexedProcessor) Process(ctx context.Context, in, out protocol.Protocol) (bool, error) {
	if m.validator != nil {
		if fr, ok := in.Transport().(transport.FrameReader); ok {
			raw, err := fr.PeekFrame()
			if err != nil {
				return false, err
			}
			if err := m.validator.Validate(raw); err != nil {
				m.logger.Error("strict mode rejected incoming frame", "error", err)
				return false, err
			}
		}
	}

	name, msgType, seqID, err := in.ReadMessageBegin()
	if err != nil {
		return false, err
	}
	log := m.logger.WithField("method", name).WithField("seqid", seqID)

	handler, ok := m.handlers[name]
	if !ok {
		log.Warn("no handler registered for method")
		if err := m.discardAndReplyUnknownMethod(ctx, in, out, name, seqID); err != nil {
			return false, err
		}
		return true, nil
	}

	if msgType == ttype.ONEWAY {
		if err := m.runOneway(ctx, in, handler, seqID, log); err != nil {
			log.Error("oneway handler failed", "error", err)
		}
		return true, nil
	}

	if err := m.runAndReply(ctx, in, out, handler, name, seqID, log); err != nil {
		return false, err
	}
	return true, nil
}

// discardAndReplyUnknownMethod consumes the unrecognized call's
// argument struct (so the connection's read cursor stays aligned) and
// replies with TApplicationException(UNKNOWN_METHOD), per spec.md
// §4.5 and the unknown-method scenario in spec.md §8.
func (m *MultiplexedProcessor) discardAndReplyUnknownMethod(ctx context.Context, in, out protocol.Protocol, name string, seqID int32) error {
	if err := protocol.Skip(in, ttype.STRUCT); err != nil {
		return err
	}
	if err := in.ReadMessageEnd(); err != nil {
		return err
	}
	appErr := terror.NewTApplicationException(terror.AppUnknownMethod,
		errors.Newf("unknown method %q", name).Error())
	return writeExceptionReply(out, name, seqID, appErr)
}

func (m *MultiplexedProcessor) runOneway(ctx context.Context, in protocol.Protocol, handler HandlerFunc, seqID int32, log logging.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic recovered in oneway handler: %v", r)
		}
	}()
	return handler(ctx, in, nil, seqID)
}

// runAndReply invokes handler with panic recovery, translating any
// returned error into a reply message rather than propagating it to
// the accept loop (only transport-level failures do that).
func (m *MultiplexedProcessor) runAndReply(ctx context.Context, in, out protocol.Protocol, handler HandlerFunc, name string, seqID int32, log logging.Logger) (err error) {
	handlerErr := func() (handlerErr error) {
		defer func() {
			if r := recover(); r != nil {
				handlerErr = errors.Newf("panic recovered in handler for %q: %v", name, r)
			}
		}()
		return handler(ctx, in, out, seqID)
	}()

	if handlerErr == nil {
		return nil
	}

	log.Error("handler returned an error", "error", handlerErr)
	var appErr *terror.TApplicationException
	if !errors.As(handlerErr, &appErr) {
		appErr = terror.NewTApplicationException(terror.AppInternalError, handlerErr.Error())
	}
	return writeExceptionReply(out, name, seqID, appErr)
}

func writeExceptionReply(out protocol.Protocol, name string, seqID int32, appErr *terror.TApplicationException) error {
	if err := out.WriteMessageBegin(name, ttype.EXCEPTION, seqID); err != nil {
		return err
	}
	if err := appErr.Write(out); err != nil {
		return err
	}
	if err := out.WriteMessageEnd(); err != nil {
		return err
	}
	return out.Transport().Flush()
}
