// file: internal/transport/socket_transport_test.go
package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkoosis/thriftrt/internal/terror"
)

func TestSocketTransportRoundTrip(t *testing.T) {
	listener := NewSocketServerTransport("127.0.0.1:0")
	require.NoError(t, listener.Listen())
	defer listener.Close()

	accepted := make(chan Transport, 1)
	acceptErr := make(chan error, 1)
	go func() {
		conn, err := listener.Accept()
		accepted <- conn
		acceptErr <- err
	}()

	client := NewSocketTransport(listener.Addr().String())
	require.NoError(t, client.Open())
	defer client.Close()

	require.NoError(t, <-acceptErr)
	server := <-accepted
	defer server.Close()

	require.NoError(t, client.Write([]byte("hello")))
	require.NoError(t, client.Flush())

	out, err := server.ReadAll(5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))
}

func TestSocketTransportReadTimesOut(t *testing.T) {
	listener := NewSocketServerTransport("127.0.0.1:0")
	require.NoError(t, listener.Listen())
	defer listener.Close()

	accepted := make(chan Transport, 1)
	acceptErr := make(chan error, 1)
	go func() {
		conn, err := listener.Accept()
		accepted <- conn
		acceptErr <- err
	}()

	client := NewSocketTransport(listener.Addr().String())
	require.NoError(t, client.Open())
	defer client.Close()

	require.NoError(t, <-acceptErr)
	server := <-accepted
	defer server.Close()
	server.(*SocketTransport).SetTConfiguration(&TConfiguration{
		RecvTimeout: Timeout{Microseconds: 50_000}, // 50ms
	})

	_, err := server.ReadAll(1)
	require.Error(t, err)
	require.True(t, terror.IsTransportException(err))
	var te *terror.TTransportException
	require.ErrorAs(t, err, &te)
	require.Equal(t, terror.TTransportTimedOut, te.Code)
}

func TestTimeoutDurationConversion(t *testing.T) {
	to := Timeout{Seconds: 2, Microseconds: 500_000}
	require.Equal(t, 2500*time.Millisecond, to.Duration())
	require.False(t, to.IsZero())
	require.True(t, Timeout{}.IsZero())
}
