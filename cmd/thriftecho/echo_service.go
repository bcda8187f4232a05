// file: cmd/thriftecho/echo_service.go
package main

import (
	"context"

	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	"github.com/dkoosis/thriftrt/internal/server"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// echoArgs is the single-field argument struct a generated
// "echo(string message)" call would produce: field 1, string.
type echoArgs struct {
	Message string
}

func readEchoArgs(in protocol.Protocol) (echoArgs, error) {
	var args echoArgs
	if _, err := in.ReadStructBegin(); err != nil {
		return args, err
	}
	for {
		_, fieldType, id, err := in.ReadFieldBegin()
		if err != nil {
			return args, err
		}
		if fieldType == ttype.STOP {
			break
		}
		if id == 1 && fieldType == ttype.STRING {
			msg, err := in.ReadString()
			if err != nil {
				return args, err
			}
			args.Message = msg
		} else if err := in.Skip(fieldType); err != nil {
			return args, err
		}
		if err := in.ReadFieldEnd(); err != nil {
			return args, err
		}
	}
	return args, in.ReadStructEnd()
}

func writeEchoResult(out protocol.Protocol, result string) error {
	if err := out.WriteStructBegin("echo_result"); err != nil {
		return err
	}
	if err := out.WriteFieldBegin("success", ttype.STRING, 0); err != nil {
		return err
	}
	if err := out.WriteString(result); err != nil {
		return err
	}
	if err := out.WriteFieldEnd(); err != nil {
		return err
	}
	if err := out.WriteFieldStop(); err != nil {
		return err
	}
	return out.WriteStructEnd()
}

// newEchoHandler returns the HandlerFunc for the "echo" method: it
// reads a single string argument and replies with the same string,
// demonstrating the HandlerFunc contract from internal/server/processor.go
// (read own arguments through ReadMessageEnd, write a complete reply).
func newEchoHandler(logger logging.Logger) server.HandlerFunc {
	return func(ctx context.Context, in, out protocol.Protocol, seqID int32) error {
		args, err := readEchoArgs(in)
		if err != nil {
			return err
		}
		if err := in.ReadMessageEnd(); err != nil {
			return err
		}
		logger.Debug("echo called", "message", args.Message)

		if out == nil {
			// oneway call: nothing to reply.
			return nil
		}

		if err := out.WriteMessageBegin("echo", ttype.REPLY, seqID); err != nil {
			return err
		}
		if err := writeEchoResult(out, args.Message); err != nil {
			return err
		}
		if err := out.WriteMessageEnd(); err != nil {
			return err
		}
		return out.Transport().Flush()
	}
}
