package auth

import "os"

// EnvironmentKeys are checked in order; the last one is the legacy dotenv key
var EnvironmentKeys = []string{"IMGRAB_CLIENT_ID", "IMGUR_CLIENT_ID", "imgur_client_id"}

// EnvironmentStore reads the client id from environment variables
type EnvironmentStore struct {
	keys []string
}

// NewEnvironmentStore creates a new environment-based source
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{keys: EnvironmentKeys}
}

func (e *EnvironmentStore) Name() string {
	return "environment"
}

// Lookup returns the first non-empty variable
func (e *EnvironmentStore) Lookup() (string, error) {
	for _, key := range e.keys {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", ErrCredentialsNotFound
}
