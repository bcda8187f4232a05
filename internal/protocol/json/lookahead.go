// file: internal/protocol/json/lookahead.go
package json

import "github.com/dkoosis/thriftrt/internal/transport"

// lookaheadReader provides one-byte peek/read atop a Transport's
// ReadAll(1), used to detect structural characters (',', ':', '}',
// ']', '"') without consuming them, per spec.md §4.3.
type lookaheadReader struct {
	trans   transport.Transport
	hasByte bool
	pending byte
}

func newLookaheadReader(t transport.Transport) *lookaheadReader {
	return &lookaheadReader{trans: t}
}

func (l *lookaheadReader) Peek() (byte, error) {
	if l.hasByte {
		return l.pending, nil
	}
	b, err := l.trans.ReadAll(1)
	if err != nil {
		return 0, err
	}
	l.pending = b[0]
	l.hasByte = true
	return l.pending, nil
}

func (l *lookaheadReader) Read() (byte, error) {
	if l.hasByte {
		l.hasByte = false
		return l.pending, nil
	}
	b, err := l.trans.ReadAll(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// skipWhitespace advances past any run of JSON insignificant
// whitespace ahead of the next token.
func (l *lookaheadReader) skipWhitespace() error {
	for {
		b, err := l.Peek()
		if err != nil {
			return err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			if _, err := l.Read(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// expect consumes exactly one occurrence of want, failing if the next
// byte (after whitespace) differs.
func (l *lookaheadReader) expect(want byte) error {
	if err := l.skipWhitespace(); err != nil {
		return err
	}
	got, err := l.Read()
	if err != nil {
		return err
	}
	if got != want {
		return newBadCharError(want, got)
	}
	return nil
}
