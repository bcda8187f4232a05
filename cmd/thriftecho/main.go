// Command thriftecho is a worked example wiring internal/transport,
// internal/protocol, internal/server, and internal/auth end to end
// against a single trivial "echo" method, in the style of the
// command-dispatch-table CLI this runtime's teacher ships as cmd/main.go.
// file: cmd/thriftecho/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dkoosis/thriftrt/internal/auth"
	"github.com/dkoosis/thriftrt/internal/config"
	"github.com/dkoosis/thriftrt/internal/logging"
	"github.com/dkoosis/thriftrt/internal/protocol"
	jsonproto "github.com/dkoosis/thriftrt/internal/protocol/json"
	"github.com/dkoosis/thriftrt/internal/schema"
	"github.com/dkoosis/thriftrt/internal/server"
	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/transport"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		configPath := serveCmd.String("config", "", "Path to configuration file.")
		debug := serveCmd.Bool("debug", false, "Enable debug logging.")
		if err := serveCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("failed to parse serve flags: %+v", err)
		}
		if err := runServe(*configPath, *debug); err != nil {
			log.Fatalf("serve failed: %+v", err)
		}

	case "call":
		callCmd := flag.NewFlagSet("call", flag.ExitOnError)
		configPath := callCmd.String("config", "", "Path to configuration file.")
		message := callCmd.String("message", "hello", "Message to echo.")
		if err := callCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("failed to parse call flags: %+v", err)
		}
		if err := runCall(*configPath, *message); err != nil {
			log.Fatalf("call failed: %+v", err)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	log.Println("Usage:")
	log.Println("  thriftecho serve [options]  - Run the echo server")
	log.Println("  thriftecho call [options]   - Call the echo server once and print the reply")
	log.Println("\nRun 'thriftecho <command> -h' for help on a specific command.")
}

func getDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("warning: could not get user home directory: %v; using relative fallback config path", err)
		return "configs/thriftecho.yaml"
	}
	return filepath.Join(homeDir, ".config", "thriftecho", "thriftecho.yaml")
}

func loadSettings(configPath string) (*config.Settings, error) {
	if configPath == "" {
		configPath = getDefaultConfigPath()
		if _, err := os.Stat(configPath); err != nil {
			return config.New(), nil
		}
	}
	return config.Load(configPath)
}

// connTransport applies the configured transport layering (framed or
// buffered) over base and returns the wrapped transport.
func connTransport(cfg *config.Settings, base transport.Transport) transport.Transport {
	if cfg.Transport.Framed {
		return transport.NewFramedTransport(base, nil)
	}
	return transport.NewBufferedTransport(base, cfg.Transport.BufferSize, nil)
}

// transportConfiguration converts the configured millisecond timeouts
// into the (seconds, microseconds) pairs transport.TConfiguration
// carries, and bundles in the configured size limit.
func transportConfiguration(cfg *config.Settings) *transport.TConfiguration {
	toTimeout := func(ms int64) transport.Timeout {
		return transport.Timeout{Seconds: ms / 1000, Microseconds: (ms % 1000) * 1000}
	}
	return &transport.TConfiguration{
		MaxMessageSize: cfg.Transport.MaxMessageSize,
		SendTimeout:    toTimeout(cfg.Transport.SendTimeoutMs),
		RecvTimeout:    toTimeout(cfg.Transport.RecvTimeoutMs),
	}
}

// wrapSASL layers SASL negotiation over base when enabled, returning
// base unchanged otherwise. The returned transport has already
// completed negotiation (Open has been called), since Thrift's SASL
// transport runs the handshake at Open time rather than lazily on
// first Read/Write.
func wrapSASL(cfg *config.Settings, base transport.Transport, isServer bool, logger logging.Logger) (transport.Transport, error) {
	if !cfg.SASL.Enabled {
		return base, nil
	}
	var sasl *auth.SASLTransport
	switch cfg.SASL.Mechanism {
	case "PLAIN", "":
		if isServer {
			store := auth.NewKeyringCredentialStore(logger)
			mech := &auth.PlainMechanism{
				Verify: func(ctx context.Context, username, password string) error {
					stored, err := store.Load(username)
					if err != nil {
						return err
					}
					if stored == "" || stored != password {
						return fmt.Errorf("invalid credentials for %q", username)
					}
					return nil
				},
			}
			sasl = auth.NewServerSASLTransport(base, mech, logger)
		} else {
			store := auth.NewKeyringCredentialStore(logger)
			password, err := store.Load(cfg.SASL.Username)
			if err != nil {
				return nil, err
			}
			mech := &auth.PlainMechanism{Username: cfg.SASL.Username, Password: password}
			sasl = auth.NewClientSASLTransport(base, mech, logger)
		}
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism %q", cfg.SASL.Mechanism)
	}
	if err := sasl.Open(); err != nil {
		return nil, err
	}
	return sasl, nil
}

func runServe(configPath string, debug bool) error {
	cfg, err := loadSettings(configPath)
	if err != nil {
		return err
	}

	var logger logging.Logger = logging.GetNoopLogger()
	if debug {
		logger = logging.GetLogger("thriftecho")
	}

	listener := transport.NewSocketServerTransport(cfg.GetServerAddress())

	inputFactory := transport.FactoryFunc(func(base transport.Transport) (transport.Transport, error) {
		wrapped, err := wrapSASL(cfg, base, true, logger)
		if err != nil {
			return nil, err
		}
		result := connTransport(cfg, wrapped)
		transport.PropagateTConfiguration(result, transportConfiguration(cfg))
		return result, nil
	})
	outputFactory := inputFactory

	protoFactory := protocol.FactoryFunc(func(t transport.Transport) protocol.Protocol {
		return jsonproto.New(t, logger)
	})

	processor := server.NewMultiplexedProcessor(logger)
	processor.RegisterHandler("echo", newEchoHandler(logger))

	if cfg.Server.Strict {
		validator := schema.NewValidator(logger)
		if err := validator.Initialize(); err != nil {
			return err
		}
		processor.SetValidator(validator)
		logger.Info("strict mode enabled: validating incoming envelopes against schema")
	}

	srv := server.NewTSimpleServer(listener, inputFactory, outputFactory, protoFactory, protoFactory, processor, logger)

	logger.Info("serving", "address", cfg.GetServerAddress())
	return srv.Serve(context.Background())
}

func runCall(configPath, message string) error {
	cfg, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	logger := logging.GetNoopLogger()

	base := transport.NewSocketTransport(cfg.GetServerAddress())
	if err := base.Open(); err != nil {
		return err
	}
	defer base.Close()

	wrapped, err := wrapSASL(cfg, base, false, logger)
	if err != nil {
		return err
	}
	conn := connTransport(cfg, wrapped)
	transport.PropagateTConfiguration(conn, transportConfiguration(cfg))

	proto := jsonproto.New(conn, logger)
	if err := proto.WriteMessageBegin("echo", ttype.CALL, 1); err != nil {
		return err
	}
	if err := proto.WriteStructBegin("echo_args"); err != nil {
		return err
	}
	if err := proto.WriteFieldBegin("message", ttype.STRING, 1); err != nil {
		return err
	}
	if err := proto.WriteString(message); err != nil {
		return err
	}
	if err := proto.WriteFieldEnd(); err != nil {
		return err
	}
	if err := proto.WriteFieldStop(); err != nil {
		return err
	}
	if err := proto.WriteStructEnd(); err != nil {
		return err
	}
	if err := proto.WriteMessageEnd(); err != nil {
		return err
	}
	if err := proto.Transport().Flush(); err != nil {
		return err
	}

	_, replyType, _, err := proto.ReadMessageBegin()
	if err != nil {
		return err
	}
	if replyType == ttype.EXCEPTION {
		appErr, err := terror.ReadTApplicationException(proto)
		if err != nil {
			return err
		}
		if err := proto.ReadMessageEnd(); err != nil {
			return err
		}
		return appErr
	}
	if _, err := proto.ReadStructBegin(); err != nil {
		return err
	}
	var result string
	for {
		_, fieldType, _, err := proto.ReadFieldBegin()
		if err != nil {
			return err
		}
		if fieldType == ttype.STOP {
			break
		}
		result, err = proto.ReadString()
		if err != nil {
			return err
		}
		if err := proto.ReadFieldEnd(); err != nil {
			return err
		}
	}
	if err := proto.ReadStructEnd(); err != nil {
		return err
	}
	if err := proto.ReadMessageEnd(); err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}
