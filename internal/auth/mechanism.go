// file: internal/auth/mechanism.go
package auth

import "context"

// QOP is the SASL Quality of Protection a mechanism negotiates. It
// determines whether post-negotiation application frames pass through
// Wrap/Unwrap.
type QOP string

const (
	QOPAuth     QOP = "auth"      // authentication only, no per-frame wrapping
	QOPAuthInt  QOP = "auth-int"  // integrity-protected frames
	QOPAuthConf QOP = "auth-conf" // confidentiality-protected frames
)

// Mechanism drives one side of a SASL negotiation and, once negotiated,
// wraps/unwraps application payloads according to its QOP.
//
// A client calls EvaluateChallenge with each challenge the server sends
// (nil on the very first call, to produce an optional initial response);
// a server calls EvaluateResponse with each response the client sends.
// Both return the next outbound payload and whether negotiation is now
// complete on that side.
type Mechanism interface {
	Name() string
	QOP() QOP

	EvaluateChallenge(ctx context.Context, challenge []byte) (response []byte, complete bool, err error)
	EvaluateResponse(ctx context.Context, response []byte) (challengeOrOutcome []byte, complete bool, err error)

	// Wrap/Unwrap apply the negotiated QOP's protection to one
	// application-data frame. Mechanisms negotiating QOPAuth return data
	// unchanged.
	Wrap(data []byte) ([]byte, error)
	Unwrap(data []byte) ([]byte, error)
}
