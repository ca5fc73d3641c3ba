package auth

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// ClientIDSource looks up an Imgur client id. Sources are read-only: imgrab
// never provisions or stores a credential.
type ClientIDSource interface {
	// Name identifies the source in logs
	Name() string
	// Lookup returns the client id or ErrCredentialsNotFound
	Lookup() (string, error)
}

// Manager consults its sources in order
type Manager struct {
	sources []ClientIDSource
}

// NewManager checks the environment first, then the system keychain
func NewManager() *Manager {
	return NewManagerWithSources(NewEnvironmentStore(), NewKeyringStore())
}

// NewManagerWithSources creates a manager over explicit sources
func NewManagerWithSources(sources ...ClientIDSource) *Manager {
	return &Manager{sources: sources}
}

// Lookup returns the first client id found and the name of its source.
// Unavailable sources are skipped.
func (m *Manager) Lookup() (string, string, error) {
	var lastErr error
	for _, source := range m.sources {
		id, err := source.Lookup()
		if err == nil && id != "" {
			return id, source.Name(), nil
		}
		if err != nil && !errors.Is(err, ErrCredentialsNotFound) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", "", fmt.Errorf("%w (last error: %v)", ErrCredentialsNotFound, lastErr)
	}
	return "", "", ErrCredentialsNotFound
}

// MaskCredential masks all but the first 4 and last 4 characters of a string
func MaskCredential(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
