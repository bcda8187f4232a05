// file: internal/auth/credentialstore.go
package auth

import (
	"github.com/cockroachdb/errors"
	"github.com/zalando/go-keyring"

	"github.com/dkoosis/thriftrt/internal/logging"
)

// CredentialStore persists a SASL client's long-lived secret (e.g. a
// PLAIN mechanism's password) between process runs. spec.md treats SASL
// negotiation mechanics as pluggable and says nothing about where this
// secret lives at rest; this module answers that question the way RTM
// auth tokens are kept: the OS keychain, never a plaintext config file.
type CredentialStore interface {
	// Load returns the stored secret for username, or "" with a nil
	// error if none is stored.
	Load(username string) (string, error)
	Save(username, secret string) error
	Delete(username string) error
}

const keyringService = "thriftrt-sasl"

// KeyringCredentialStore implements CredentialStore on top of the OS
// keychain via zalando/go-keyring.
type KeyringCredentialStore struct {
	logger logging.Logger
}

var _ CredentialStore = (*KeyringCredentialStore)(nil)

func NewKeyringCredentialStore(logger logging.Logger) *KeyringCredentialStore {
	return &KeyringCredentialStore{logger: logging.OrNoop(logger).WithField("component", "sasl_credentialstore")}
}

func (s *KeyringCredentialStore) Load(username string) (string, error) {
	secret, err := keyring.Get(keyringService, username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		s.logger.Error("keyring lookup failed", "username", username, "error", err)
		return "", errors.Wrap(err, "failed to load SASL credential from system keyring")
	}
	return secret, nil
}

func (s *KeyringCredentialStore) Save(username, secret string) error {
	if secret == "" {
		return errors.New("cannot save empty SASL credential to keyring")
	}
	if err := keyring.Set(keyringService, username, secret); err != nil {
		s.logger.Error("keyring save failed", "username", username, "error", err)
		return errors.Wrap(err, "failed to save SASL credential to system keyring")
	}
	return nil
}

func (s *KeyringCredentialStore) Delete(username string) error {
	if err := keyring.Delete(keyringService, username); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		s.logger.Error("keyring delete failed", "username", username, "error", err)
		return errors.Wrap(err, "failed to delete SASL credential from system keyring")
	}
	return nil
}
