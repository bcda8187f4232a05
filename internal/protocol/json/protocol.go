// Package json implements the bidirectional JSON wire encoding
// described in spec.md §4.3: a version-tagged message envelope, field-
// id-keyed struct objects wrapping a single type-tag/value pair, and
// list/set/map container grammars built on a JSON-family context
// stack shared with the SimpleJSON encoding.
// file: internal/protocol/json/protocol.go
package json

import (
	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

const jsonVersion1 = 1

// TJSONProtocol is the bidirectional Protocol implementation for the
// JSON wire encoding.
type TJSONProtocol struct {
	trans  transport.Transport
	cfg    *transport.TConfiguration
	stack  *protocol.ContextStack
	reader *lookaheadReader
	logger logging.Logger
}

// New returns a TJSONProtocol reading from and writing to trans.
func New(trans transport.Transport, logger logging.Logger) *TJSONProtocol {
	return &TJSONProtocol{
		trans:  trans,
		cfg:    transport.DefaultConfiguration(),
		stack:  protocol.NewContextStack(),
		reader: newLookaheadReader(trans),
		logger: logging.OrNoop(logger),
	}
}

func (p *TJSONProtocol) Transport() transport.Transport { return p.trans }

func (p *TJSONProtocol) SetTConfiguration(cfg *transport.TConfiguration) {
	p.cfg = cfg
	transport.PropagateTConfiguration(p.trans, cfg)
}

func (p *TJSONProtocol) writeRaw(s string) error {
	return p.trans.Write([]byte(s))
}

// beginValue writes the separator the current context requires before
// its next value and reports whether that value must be numeric-
// quoted. Every value-shaped write (number, string, or a literal brace
// standing in for a nested container) goes through this first.
func (p *TJSONProtocol) beginValue() (escapeNum bool, err error) {
	ctx := p.stack.Top()
	if sep := ctx.Separator(); sep != 0 {
		if err := p.writeRaw(string(sep)); err != nil {
			return false, err
		}
	}
	return ctx.EscapeNum(), nil
}

func (p *TJSONProtocol) endValue() {
	p.stack.Top().Advance()
}

// writeRawToken writes a brace or bracket occupying exactly one value
// slot in the current context (the container itself, not its
// contents).
func (p *TJSONProtocol) writeRawToken(tok string) error {
	if _, err := p.beginValue(); err != nil {
		return err
	}
	if err := p.writeRaw(tok); err != nil {
		return err
	}
	p.endValue()
	return nil
}

// readSeparator consumes the separator byte the current context
// expects before its next value, mirroring beginValue on read.
func (p *TJSONProtocol) readSeparator() error {
	ctx := p.stack.Top()
	if sep := ctx.Separator(); sep != 0 {
		return p.reader.expect(sep)
	}
	return nil
}

func (p *TJSONProtocol) expectToken(tok byte) error {
	if err := p.readSeparator(); err != nil {
		return err
	}
	if err := p.reader.expect(tok); err != nil {
		return err
	}
	p.stack.Top().Advance()
	return nil
}

func (p *TJSONProtocol) Skip(fieldType ttype.TType) error {
	return protocol.Skip(p, fieldType)
}
