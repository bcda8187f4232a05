// file: internal/server/server_test.go
package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkoosis/thriftrt/internal/protocol"
	jsonproto "github.com/dkoosis/thriftrt/internal/protocol/json"
	"github.com/dkoosis/thriftrt/internal/schema"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

func pingHandler(ctx context.Context, in, out protocol.Protocol, seqID int32) error {
	if err := in.ReadMessageEnd(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := out.WriteMessageBegin("ping", ttype.REPLY, seqID); err != nil {
		return err
	}
	if err := out.WriteStructBegin("ping_result"); err != nil {
		return err
	}
	if err := out.WriteFieldStop(); err != nil {
		return err
	}
	if err := out.WriteStructEnd(); err != nil {
		return err
	}
	if err := out.WriteMessageEnd(); err != nil {
		return err
	}
	return out.Transport().Flush()
}

func writeCall(t *testing.T, name string, seqID int32) *transport.MemoryBuffer {
	t.Helper()
	buf := transport.NewMemoryBuffer(0)
	p := jsonproto.New(buf, nil)
	require.NoError(t, p.WriteMessageBegin(name, ttype.CALL, seqID))
	require.NoError(t, p.WriteStructBegin(name+"_args"))
	require.NoError(t, p.WriteFieldStop())
	require.NoError(t, p.WriteStructEnd())
	require.NoError(t, p.WriteMessageEnd())
	require.NoError(t, p.Transport().Flush())
	return buf
}

func TestMultiplexedProcessorDispatchesRegisteredHandler(t *testing.T) {
	in := writeCall(t, "ping", 9)
	out := transport.NewMemoryBuffer(0)
	proc := NewMultiplexedProcessor(nil)
	proc.RegisterHandler("ping", pingHandler)

	cont, err := proc.Process(context.Background(), jsonproto.New(in, nil), jsonproto.New(out, nil))
	require.NoError(t, err)
	require.True(t, cont)

	reader := jsonproto.New(out, nil)
	name, msgType, seqID, err := reader.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, "ping", name)
	require.Equal(t, ttype.REPLY, msgType)
	require.Equal(t, int32(9), seqID)
}

func TestMultiplexedProcessorUnknownMethodRepliesException(t *testing.T) {
	in := writeCall(t, "nope", 1)
	out := transport.NewMemoryBuffer(0)
	proc := NewMultiplexedProcessor(nil)

	cont, err := proc.Process(context.Background(), jsonproto.New(in, nil), jsonproto.New(out, nil))
	require.NoError(t, err)
	require.True(t, cont)

	reader := jsonproto.New(out, nil)
	_, msgType, _, err := reader.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, ttype.EXCEPTION, msgType)
}

func TestMultiplexedProcessorHandlerErrorRepliesException(t *testing.T) {
	in := writeCall(t, "boom", 1)
	out := transport.NewMemoryBuffer(0)
	proc := NewMultiplexedProcessor(nil)
	proc.RegisterHandler("boom", func(ctx context.Context, in, out protocol.Protocol, seqID int32) error {
		_ = in.ReadMessageEnd()
		return errors.New("handler exploded")
	})

	cont, err := proc.Process(context.Background(), jsonproto.New(in, nil), jsonproto.New(out, nil))
	require.NoError(t, err)
	require.True(t, cont)

	reader := jsonproto.New(out, nil)
	_, msgType, _, err := reader.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, ttype.EXCEPTION, msgType)
	appErr, err := terror.ReadTApplicationException(reader)
	require.NoError(t, err)
	require.Equal(t, terror.AppInternalError, appErr.Type)
}

func TestMultiplexedProcessorHandlerPanicRecovered(t *testing.T) {
	in := writeCall(t, "panics", 1)
	out := transport.NewMemoryBuffer(0)
	proc := NewMultiplexedProcessor(nil)
	proc.RegisterHandler("panics", func(ctx context.Context, in, out protocol.Protocol, seqID int32) error {
		panic("boom")
	})

	cont, err := proc.Process(context.Background(), jsonproto.New(in, nil), jsonproto.New(out, nil))
	require.NoError(t, err)
	require.True(t, cont)
}

func TestMultiplexedProcessorOnewaySkipsReply(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := jsonproto.New(buf, nil)
	require.NoError(t, p.WriteMessageBegin("fireAndForget", ttype.ONEWAY, 1))
	require.NoError(t, p.WriteStructBegin("args"))
	require.NoError(t, p.WriteFieldStop())
	require.NoError(t, p.WriteStructEnd())
	require.NoError(t, p.WriteMessageEnd())
	require.NoError(t, p.Transport().Flush())

	called := false
	proc := NewMultiplexedProcessor(nil)
	proc.RegisterHandler("fireAndForget", func(ctx context.Context, in, out protocol.Protocol, seqID int32) error {
		called = true
		require.Nil(t, out)
		return in.ReadMessageEnd()
	})

	cont, err := proc.Process(context.Background(), jsonproto.New(buf, nil), nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.True(t, called)
}

// writeFramedCall behaves like writeCall but frames the encoded message,
// so the result implements transport.FrameReader the way a real
// connection would, exercising the strict-mode validation path.
func writeFramedCall(t *testing.T, name string, seqID int32) *transport.FramedTransport {
	t.Helper()
	buf := transport.NewMemoryBuffer(0)
	framed := transport.NewFramedTransport(buf, nil)
	p := jsonproto.New(framed, nil)
	require.NoError(t, p.WriteMessageBegin(name, ttype.CALL, seqID))
	require.NoError(t, p.WriteStructBegin(name+"_args"))
	require.NoError(t, p.WriteFieldStop())
	require.NoError(t, p.WriteStructEnd())
	require.NoError(t, p.WriteMessageEnd())
	require.NoError(t, p.Transport().Flush())
	return framed
}

func newInitializedValidator(t *testing.T) *schema.Validator {
	t.Helper()
	v := schema.NewValidator(nil)
	require.NoError(t, v.Initialize())
	return v
}

func TestMultiplexedProcessorStrictModeAcceptsValidFrame(t *testing.T) {
	in := writeFramedCall(t, "ping", 5)
	out := transport.NewMemoryBuffer(0)
	proc := NewMultiplexedProcessor(nil)
	proc.RegisterHandler("ping", pingHandler)
	proc.SetValidator(newInitializedValidator(t))

	cont, err := proc.Process(context.Background(), jsonproto.New(in, nil), jsonproto.New(out, nil))
	require.NoError(t, err)
	require.True(t, cont)

	reader := jsonproto.New(out, nil)
	name, msgType, _, err := reader.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, "ping", name)
	require.Equal(t, ttype.REPLY, msgType)
}

func TestMultiplexedProcessorStrictModeRejectsMalformedFrame(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	framed := transport.NewFramedTransport(buf, nil)
	require.NoError(t, framed.Write([]byte(`{"not":"an envelope"}`)))
	require.NoError(t, framed.Flush())

	proc := NewMultiplexedProcessor(nil)
	proc.SetValidator(newInitializedValidator(t))

	cont, err := proc.Process(context.Background(), jsonproto.New(framed, nil), jsonproto.New(transport.NewMemoryBuffer(0), nil))
	require.Error(t, err)
	require.False(t, cont)
}

// halfDuplex composes two MemoryBuffers into one Transport so a server
// reading a pre-loaded request and writing its reply don't feed one
// into the other the way a single shared buffer would.
type halfDuplex struct {
	in  transport.Transport
	out transport.Transport
}

func (h *halfDuplex) IsOpen() bool                   { return h.in.IsOpen() }
func (h *halfDuplex) Open() error                    { return h.in.Open() }
func (h *halfDuplex) Close() error                   { return h.in.Close() }
func (h *halfDuplex) Read(n int) ([]byte, error)      { return h.in.Read(n) }
func (h *halfDuplex) ReadAll(n int) ([]byte, error)   { return h.in.ReadAll(n) }
func (h *halfDuplex) Write(p []byte) error           { return h.out.Write(p) }
func (h *halfDuplex) Flush() error                   { return h.out.Flush() }

var _ transport.Transport = (*halfDuplex)(nil)

// fakeServerTransport hands out a fixed queue of connections, then
// reports a transport exception once exhausted, the way a closed
// listener would.
type fakeServerTransport struct {
	conns []transport.Transport
	next  int
}

func (f *fakeServerTransport) Listen() error { return nil }
func (f *fakeServerTransport) Close() error  { return nil }
func (f *fakeServerTransport) Accept() (transport.Transport, error) {
	if f.next >= len(f.conns) {
		return nil, terror.NewTTransportExceptionMsg(terror.TTransportEndOfFile, "listener closed")
	}
	c := f.conns[f.next]
	f.next++
	return c, nil
}

func identityFactory() transport.Factory {
	return transport.FactoryFunc(func(base transport.Transport) (transport.Transport, error) {
		return base, nil
	})
}

func jsonProtoFactory() protocol.Factory {
	return protocol.FactoryFunc(func(t transport.Transport) protocol.Protocol {
		return jsonproto.New(t, nil)
	})
}

func TestTSimpleServerServesOneConnectionAndStopsOnAcceptFailure(t *testing.T) {
	conn := &halfDuplex{in: writeCall(t, "ping", 5), out: transport.NewMemoryBuffer(0)}
	listener := &fakeServerTransport{conns: []transport.Transport{conn}}

	proc := NewMultiplexedProcessor(nil)
	proc.RegisterHandler("ping", pingHandler)

	srv := NewTSimpleServer(listener, identityFactory(), identityFactory(), jsonProtoFactory(), jsonProtoFactory(), proc, nil)
	err := srv.Serve(context.Background())
	require.Error(t, err)
	require.True(t, terror.IsTransportException(err))

	reader := jsonproto.New(conn.out, nil)
	name, msgType, seqID, err := reader.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, "ping", name)
	require.Equal(t, ttype.REPLY, msgType)
	require.Equal(t, int32(5), seqID)
}

func TestTForkingServerReturnsNilOnAcceptFailure(t *testing.T) {
	listener := &fakeServerTransport{conns: nil}
	proc := NewMultiplexedProcessor(nil)

	srv := NewTForkingServer(listener, identityFactory(), identityFactory(), jsonProtoFactory(), jsonProtoFactory(), proc, nil)
	require.NoError(t, srv.Serve(context.Background()))
}

func TestTForkingServerServesConnectionInBackground(t *testing.T) {
	conn := &halfDuplex{in: writeCall(t, "ping", 1), out: transport.NewMemoryBuffer(0)}
	listener := &fakeServerTransport{conns: []transport.Transport{conn}}

	proc := NewMultiplexedProcessor(nil)
	proc.RegisterHandler("ping", pingHandler)

	srv := NewTForkingServer(listener, identityFactory(), identityFactory(), jsonProtoFactory(), jsonProtoFactory(), proc, nil)
	require.NoError(t, srv.Serve(context.Background()))

	reader := jsonproto.New(conn.out, nil)
	_, msgType, _, err := reader.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, ttype.REPLY, msgType)
}
