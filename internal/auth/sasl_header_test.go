// file: internal/auth/sasl_header_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkoosis/thriftrt/internal/transport"
)

func TestReadSASLHeaderRejectsInvalidStatus(t *testing.T) {
	buf := transport.NewMemoryBufferFrom([]byte{0xFF, 0x00, 0x00, 0x00, 0x05})
	_, _, err := readSASLHeader(buf, nil)
	require.ErrorContains(t, err, "Invalid status -1")
}

func TestReadSASLHeaderRejectsNegativeLength(t *testing.T) {
	buf := transport.NewMemoryBufferFrom([]byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF})
	_, _, err := readSASLHeader(buf, nil)
	require.ErrorContains(t, err, "Invalid payload header length: -1")
}

func TestReadSASLHeaderRejectsOversizedLength(t *testing.T) {
	buf := transport.NewMemoryBufferFrom([]byte{0x01, 0x64, 0x00, 0x00, 0x00})
	_, _, err := readSASLHeader(buf, nil)
	require.ErrorContains(t, err, "Invalid payload header length: 1677721600")
}

func TestSASLHeaderRoundTrip(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	require.NoError(t, writeSASLHeader(buf, StatusOK, []byte("payload bytes")))

	status, payload, err := readSASLHeader(buf, nil)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	require.Equal(t, []byte("payload bytes"), payload)
}
