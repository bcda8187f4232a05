// file: internal/protocol/simplejson/protocol_test.go
package simplejson

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

func TestWriteMessageAndStruct(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	require.NoError(t, p.WriteMessageBegin("ping", ttype.CALL, 7))
	require.NoError(t, p.WriteStructBegin("ping_args"))
	require.NoError(t, p.WriteFieldBegin("count", ttype.I32, 1))
	require.NoError(t, p.WriteI32(3))
	require.NoError(t, p.WriteFieldEnd())
	require.NoError(t, p.WriteFieldStop())
	require.NoError(t, p.WriteStructEnd())
	require.NoError(t, p.WriteMessageEnd())

	require.Equal(t, `["ping",1,7,{"count":3}]`, string(buf.Bytes()))
}

func TestWriteMapOfScalarKeys(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	require.NoError(t, p.WriteMapBegin(ttype.I32, ttype.STRING, 1))
	require.NoError(t, p.WriteI32(1))
	require.NoError(t, p.WriteString("a"))
	require.NoError(t, p.WriteMapEnd())

	require.Equal(t, `{"1":"a"}`, string(buf.Bytes()))
}

func TestWriteMapRejectsContainerKey(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	err := p.WriteMapBegin(ttype.LIST, ttype.STRING, 0)
	require.Error(t, err)
}

func TestReadMethodsAreNotImplemented(t *testing.T) {
	buf := transport.NewMemoryBuffer(0)
	p := New(buf, nil)

	_, _, _, err := p.ReadMessageBegin()
	require.Error(t, err)

	_, err = p.ReadString()
	require.Error(t, err)
}
