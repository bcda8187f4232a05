// Package auth implements the SASL wrapping transport ([SASL-TRANSPORT]):
// a negotiation handshake layered on top of any transport.Transport,
// followed by optional per-frame integrity/confidentiality wrapping once
// negotiation completes.
// file: internal/auth/sasl_header.go
package auth

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
)

// Status is the single byte prefixing every negotiation frame.
type Status byte

const (
	StatusStart    Status = 1
	StatusOK       Status = 2
	StatusBad      Status = 3
	StatusError    Status = 4
	StatusComplete Status = 5
)

func (s Status) valid() bool {
	return s >= StatusStart && s <= StatusComplete
}

// readSASLHeader reads one (status, length, payload) negotiation frame.
// An invalid status or an out-of-range length aborts with an error whose
// text names the offending value verbatim, matching the wire-level
// diagnostics a peer implementation is expected to surface.
func readSASLHeader(t transport.Transport, cfg *transport.TConfiguration) (Status, []byte, error) {
	statusByte, err := t.ReadAll(1)
	if err != nil {
		return 0, nil, err
	}
	status := Status(statusByte[0])
	if !status.valid() {
		return 0, nil, terror.NewTProtocolExceptionWithType(
			terror.TProtocolInvalidData,
			errors.Newf("Invalid status %d", int8(statusByte[0])))
	}

	lenBytes, err := t.ReadAll(4)
	if err != nil {
		return 0, nil, err
	}
	length := int32(binary.BigEndian.Uint32(lenBytes))

	maxLen := int64(transport.DefaultMaxMessageSize)
	if cfg != nil && cfg.MaxMessageSize > 0 {
		maxLen = cfg.MaxMessageSize
	}
	if length < 0 || int64(length) > maxLen {
		return status, nil, terror.NewTProtocolExceptionWithType(
			terror.TProtocolInvalidData,
			errors.Newf("Invalid payload header length: %d", length))
	}

	payload, err := t.ReadAll(int(length))
	if err != nil {
		return status, nil, err
	}
	return status, payload, nil
}

// writeSASLHeader writes one negotiation frame and flushes it immediately
// — negotiation is a strict request/reply exchange, so there is no
// benefit to buffering across frames the way application data frames do.
func writeSASLHeader(t transport.Transport, status Status, payload []byte) error {
	header := make([]byte, 5+len(payload))
	header[0] = byte(status)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(payload)))
	copy(header[5:], payload)
	if err := t.Write(header); err != nil {
		return err
	}
	return t.Flush()
}
