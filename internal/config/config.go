// Package config handles application configuration: the settings a
// deployed thriftrt server or client reads at startup. Nothing in
// internal/transport, internal/protocol, or internal/server imports
// this package — the core stays a collection of plain value objects
// (transport.TConfiguration, protocol options) configured by whatever
// embeds it; this package is the concrete YAML-backed answer cmd/thriftecho
// uses.
// file: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/logging"
)

var logger = logging.GetLogger("config")

// Settings is the top-level configuration tree, loaded from YAML.
type Settings struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	SASL      SASLConfig      `yaml:"sasl"`
}

// ServerConfig configures the listening side of a thriftrt deployment.
type ServerConfig struct {
	Name          string `yaml:"name"`
	ListenAddress string `yaml:"listen_address"`
	Port          int    `yaml:"port"`

	// Strict enables schema validation of every incoming JSON envelope
	// before it is decoded, rejecting malformed frames outright instead
	// of letting the protocol decoder fail partway through. Off by
	// default: it is a conformance/debugging aid, not required for
	// correct operation.
	Strict bool `yaml:"strict"`
}

// TransportConfig configures the transport layering applied to every
// accepted (or dialed) connection.
type TransportConfig struct {
	// Framed selects a FramedTransport wrapper; otherwise a
	// BufferedTransport is used directly over the raw connection.
	Framed bool `yaml:"framed"`

	MaxMessageSize int64 `yaml:"max_message_size"`
	BufferSize     int   `yaml:"buffer_size"`

	// SendTimeoutMs and RecvTimeoutMs bound how long a socket write or
	// read may block before the connection fails as timed out. Zero
	// means no deadline.
	SendTimeoutMs int64 `yaml:"send_timeout_ms"`
	RecvTimeoutMs int64 `yaml:"recv_timeout_ms"`
}

// SASLConfig configures the optional SASL negotiation layer.
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Mechanism string `yaml:"mechanism"` // e.g. "PLAIN"
	Username  string `yaml:"username"`
	QOP       string `yaml:"qop"` // "auth" | "auth-int" | "auth-conf"

	// CredentialStorePath is parsed from YAML but nothing in this module
	// reads it: SASL credentials are always loaded from the OS keychain,
	// and no plaintext file store exists.
	CredentialStorePath string `yaml:"credential_store_path"`
}

// New returns Settings populated with the defaults a fresh deployment
// can run with unmodified.
func New() *Settings {
	logger.Debug("creating configuration settings with defaults")
	return &Settings{
		Server: ServerConfig{
			Name:          "thriftrt",
			ListenAddress: "127.0.0.1",
			Port:          9090,
			Strict:        false,
		},
		Transport: TransportConfig{
			Framed:         true,
			MaxMessageSize: 100 * 1024 * 1024,
			BufferSize:     4096,
			SendTimeoutMs:  0,
			RecvTimeoutMs:  0,
		},
		SASL: SASLConfig{
			Enabled:   false,
			Mechanism: "PLAIN",
			QOP:       "auth",
		},
	}
}

// GetServerName returns the configured server name.
func (s *Settings) GetServerName() string {
	return s.Server.Name
}

// GetServerAddress formats the configured listen address and port.
func (s *Settings) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", strings.TrimRight(s.Server.ListenAddress, ":"), s.Server.Port)
}

// ExpandPath expands a leading "~" to the user's home directory,
// returning other paths unchanged.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		wrapped := errors.Wrap(err, "ExpandPath: failed to get user home directory")
		logger.Error("failed to expand path", "input_path", path, "error", wrapped)
		return "", wrapped
	}
	return filepath.Join(home, path[1:]), nil
}
