// file: internal/auth/plain_mechanism.go
package auth

import (
	"bytes"
	"context"

	"github.com/cockroachdb/errors"
)

// VerifyFunc checks a username/password pair on the server side. It
// returns an error (rather than a bare bool) so a verifier backed by a
// slow credential store can report transient failures distinctly from
// "wrong password".
type VerifyFunc func(ctx context.Context, username, password string) error

// PlainMechanism implements the SASL PLAIN mechanism (RFC 4616): a
// single response of `authzid NUL username NUL password`, no
// challenges, QOP always "auth" (no per-frame wrapping). It is the
// simplest mechanism this runtime ships, used by cmd/thriftecho and as
// the default for internal/config's SASLConfig.
type PlainMechanism struct {
	// Client-side fields.
	Authzid  string
	Username string
	Password string

	// Server-side field.
	Verify VerifyFunc
}

func (m *PlainMechanism) Name() string { return "PLAIN" }
func (m *PlainMechanism) QOP() QOP     { return QOPAuth }

// EvaluateChallenge produces the client's single response on the first
// call (challenge == nil) and fails if the server asks for more.
func (m *PlainMechanism) EvaluateChallenge(_ context.Context, challenge []byte) ([]byte, bool, error) {
	if challenge != nil {
		return nil, false, errors.New("PLAIN mechanism does not expect a server challenge")
	}
	response := bytes.Join([][]byte{
		[]byte(m.Authzid),
		[]byte(m.Username),
		[]byte(m.Password),
	}, []byte{0})
	return response, true, nil
}

// EvaluateResponse parses the client's single response and verifies it.
func (m *PlainMechanism) EvaluateResponse(ctx context.Context, response []byte) ([]byte, bool, error) {
	parts := bytes.SplitN(response, []byte{0}, 3)
	if len(parts) != 3 {
		return nil, false, errors.New("malformed PLAIN response: expected authzid\\0username\\0password")
	}
	username, password := string(parts[1]), string(parts[2])

	if m.Verify == nil {
		return nil, false, errors.New("PLAIN mechanism configured without a verifier")
	}
	if err := m.Verify(ctx, username, password); err != nil {
		return nil, false, errors.Wrap(err, "PLAIN authentication rejected")
	}
	return nil, true, nil
}

func (m *PlainMechanism) Wrap(data []byte) ([]byte, error)   { return data, nil }
func (m *PlainMechanism) Unwrap(data []byte) ([]byte, error) { return data, nil }
