package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "imgrab"
	keyringKey     = "imgur_client_id"
)

// KeyringStore reads the client id from the system keychain. Users put it
// there with their platform's own tooling, e.g.
//
//	secret-tool store --label=imgrab service imgrab username imgur_client_id
type KeyringStore struct {
	service string
	key     string
}

// NewKeyringStore creates a new keyring-based source
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService, key: keyringKey}
}

func (k *KeyringStore) Name() string {
	return "keyring"
}

// Lookup gets the client id from the system keychain
func (k *KeyringStore) Lookup() (string, error) {
	id, err := keyring.Get(k.service, k.key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrCredentialsNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}
