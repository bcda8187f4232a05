// file: internal/terror/terror_test.go
package terror_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/thriftrt/internal/protocol/json"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
)

func TestTTransportExceptionIsMatchesByCode(t *testing.T) {
	err := terror.NewTTransportExceptionMsg(terror.TTransportEndOfFile, "eof")
	require.True(t, errors.Is(err, &terror.TTransportException{Code: terror.TTransportEndOfFile}))
	require.False(t, errors.Is(err, &terror.TTransportException{Code: terror.TTransportTimedOut}))
}

func TestTTransportExceptionUnwrapsCause(t *testing.T) {
	cause := errors.New("broken pipe")
	err := terror.NewTTransportException(terror.TTransportUnknown, cause)
	require.ErrorIs(t, err, cause)
}

func TestTProtocolExceptionIsMatchesByCode(t *testing.T) {
	err := terror.NewTProtocolExceptionWithType(terror.TProtocolNegativeSize, errors.New("bad length"))
	require.True(t, errors.Is(err, &terror.TProtocolException{Code: terror.TProtocolNegativeSize}))
	require.False(t, errors.Is(err, &terror.TProtocolException{Code: terror.TProtocolBadVersion}))
}

func TestNewTProtocolExceptionPassesThroughExisting(t *testing.T) {
	original := terror.NewTProtocolExceptionWithType(terror.TProtocolDepthLimit, errors.New("too deep"))
	wrapped := terror.NewTProtocolException(original)
	require.Same(t, original, wrapped)
}

func TestNewTProtocolExceptionNilCauseIsNil(t *testing.T) {
	require.Nil(t, terror.NewTProtocolException(nil))
}

func TestTApplicationExceptionIsMatchesByType(t *testing.T) {
	err := terror.NewTApplicationException(terror.AppUnknownMethod, "no such method")
	require.True(t, errors.Is(err, terror.NewTApplicationException(terror.AppUnknownMethod, "")))
	require.False(t, errors.Is(err, terror.NewTApplicationException(terror.AppInternalError, "")))
}

func TestTApplicationExceptionWriteReadRoundTrip(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := json.New(buf, nil)

	original := terror.NewTApplicationException(terror.AppBadSequenceID, "sequence mismatch")
	require.NoError(t, original.Write(p))
	require.NoError(t, p.Transport().Flush())

	reader := json.New(buf, nil)
	got, err := terror.ReadTApplicationException(reader)
	require.NoError(t, err)
	require.Equal(t, original.Message, got.Message)
	require.Equal(t, original.Type, got.Type)
}

func TestClassifyHelpers(t *testing.T) {
	require.True(t, terror.IsTransportException(terror.NewTTransportExceptionMsg(terror.TTransportUnknown, "x")))
	require.False(t, terror.IsTransportException(errors.New("plain")))

	require.True(t, terror.IsProtocolException(terror.NewTProtocolExceptionWithType(terror.TProtocolUnknown, errors.New("x"))))
	require.False(t, terror.IsProtocolException(errors.New("plain")))

	require.True(t, terror.IsApplicationException(terror.NewTApplicationException(terror.AppUnknown, "x")))
	require.False(t, terror.IsApplicationException(errors.New("plain")))
}
