// Package security provides API key loading, a runtime credential store
// and log redaction.
package security

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/flemzord/gemgate/internal/provider"
)

// LoadAPIKey returns explicit when set, otherwise the value of the
// environment variable envName. description names the key in errors.
// The returned error wraps provider.ErrLoadAPIKey.
func LoadAPIKey(explicit, envName, description string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	if envName == "" {
		return "", fmt.Errorf("%w: %s api key is missing", provider.ErrLoadAPIKey, description)
	}
	if v, ok := os.LookupEnv(envName); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return "", fmt.Errorf("%w: %s api key is missing; pass it explicitly or set the %s environment variable",
		provider.ErrLoadAPIKey, description, envName)
}

// CredentialStore is a thread-safe store for secrets loaded at runtime.
// Its values feed the Redactor so loaded keys never reach the logs.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]string
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]string)}
}

// Set stores a credential, replacing any previous value under name.
func (s *CredentialStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[name] = value
}

// Get returns the credential value and true, or "" and false if not found.
func (s *CredentialStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.creds[name]
	return v, ok
}

// Names returns the sorted credential names.
func (s *CredentialStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.creds))
	for name := range s.creds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Values returns all non-empty credential values in no particular order.
func (s *CredentialStore) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make([]string, 0, len(s.creds))
	for _, v := range s.creds {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}
