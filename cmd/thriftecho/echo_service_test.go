// file: cmd/thriftecho/echo_service_test.go
package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	jsonproto "github.com/dkoosis/thriftrt/internal/protocol/json"
	"github.com/dkoosis/thriftrt/internal/server"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

func writeEchoCall(t *testing.T, proto *jsonproto.TJSONProtocol, seqID int32, message string) {
	t.Helper()
	require.NoError(t, proto.WriteMessageBegin("echo", ttype.CALL, seqID))
	require.NoError(t, proto.WriteStructBegin("echo_args"))
	require.NoError(t, proto.WriteFieldBegin("message", ttype.STRING, 1))
	require.NoError(t, proto.WriteString(message))
	require.NoError(t, proto.WriteFieldEnd())
	require.NoError(t, proto.WriteFieldStop())
	require.NoError(t, proto.WriteStructEnd())
	require.NoError(t, proto.WriteMessageEnd())
	require.NoError(t, proto.Transport().Flush())
}

func TestEchoHandlerRoundTrip(t *testing.T) {
	reqBuf := transport.NewMemoryBuffer(0)
	in := jsonproto.New(reqBuf, nil)
	writeEchoCall(t, in, 42, "hello, world")

	replyBuf := transport.NewMemoryBuffer(0)
	out := jsonproto.New(replyBuf, nil)

	processor := server.NewMultiplexedProcessor(nil)
	processor.RegisterHandler("echo", newEchoHandler(nil))

	cont, err := processor.Process(context.Background(), in, out)
	require.NoError(t, err)
	require.True(t, cont)

	name, msgType, seqID, err := out.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, "echo", name)
	require.Equal(t, ttype.REPLY, msgType)
	require.Equal(t, int32(42), seqID)

	_, err = out.ReadStructBegin()
	require.NoError(t, err)
	_, fieldType, fieldID, err := out.ReadFieldBegin()
	require.NoError(t, err)
	require.Equal(t, ttype.STRING, fieldType)
	require.Equal(t, int16(0), fieldID)
	result, err := out.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello, world", result)
	require.NoError(t, out.ReadFieldEnd())

	_, fieldType, _, err = out.ReadFieldBegin()
	require.NoError(t, err)
	require.Equal(t, ttype.STOP, fieldType)
	require.NoError(t, out.ReadStructEnd())
	require.NoError(t, out.ReadMessageEnd())
}

func TestEchoHandlerOnewayWritesNoReply(t *testing.T) {
	reqBuf := transport.NewMemoryBuffer(0)
	in := jsonproto.New(reqBuf, nil)
	require.NoError(t, in.WriteMessageBegin("echo", ttype.ONEWAY, 7))
	require.NoError(t, in.WriteStructBegin("echo_args"))
	require.NoError(t, in.WriteFieldBegin("message", ttype.STRING, 1))
	require.NoError(t, in.WriteString("fire and forget"))
	require.NoError(t, in.WriteFieldEnd())
	require.NoError(t, in.WriteFieldStop())
	require.NoError(t, in.WriteStructEnd())
	require.NoError(t, in.WriteMessageEnd())
	require.NoError(t, in.Transport().Flush())

	processor := server.NewMultiplexedProcessor(nil)
	processor.RegisterHandler("echo", newEchoHandler(nil))

	cont, err := processor.Process(context.Background(), in, nil)
	require.NoError(t, err)
	require.True(t, cont)
}

func TestUnknownMethodRepliesWithApplicationException(t *testing.T) {
	reqBuf := transport.NewMemoryBuffer(0)
	in := jsonproto.New(reqBuf, nil)
	require.NoError(t, in.WriteMessageBegin("doesnotexist", ttype.CALL, 1))
	require.NoError(t, in.WriteStructBegin("args"))
	require.NoError(t, in.WriteFieldStop())
	require.NoError(t, in.WriteStructEnd())
	require.NoError(t, in.WriteMessageEnd())
	require.NoError(t, in.Transport().Flush())

	replyBuf := transport.NewMemoryBuffer(0)
	out := jsonproto.New(replyBuf, nil)

	processor := server.NewMultiplexedProcessor(nil)
	processor.RegisterHandler("echo", newEchoHandler(nil))

	cont, err := processor.Process(context.Background(), in, out)
	require.NoError(t, err)
	require.True(t, cont)

	name, msgType, _, err := out.ReadMessageBegin()
	require.NoError(t, err)
	require.Equal(t, "doesnotexist", name)
	require.Equal(t, ttype.EXCEPTION, msgType)
}
