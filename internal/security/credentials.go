// Package security provides the runtime credential store, log redaction,
// audit logging and inbound payload validation.
package security

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrCredentialNotFound is returned by Lookup for unknown names.
var ErrCredentialNotFound = errors.New("credential not found")

// Credential is one named secret bundle of a given credential type.
type Credential struct {
	Type string
	Data map[string]string
}

// CredentialStore is a thread-safe store for configured credentials.
// It is the single source of truth for secrets at runtime.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		creds: make(map[string]Credential),
	}
}

// Set stores a credential. If a credential with the same name already exists,
// it is overwritten. The data map is copied.
func (s *CredentialStore) Set(name string, c Credential) {
	c.Data = maps.Clone(c.Data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[name] = c
}

// Replace swaps the whole credential set at once. Data maps are copied.
func (s *CredentialStore) Replace(creds map[string]Credential) {
	next := make(map[string]Credential, len(creds))
	for name, c := range creds {
		c.Data = maps.Clone(c.Data)
		next[name] = c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = next
}

// Lookup returns a copy of the named credential's fields after checking its
// type.
func (s *CredentialStore) Lookup(name, credentialType string) (map[string]string, error) {
	s.mu.RLock()
	c, ok := s.creds[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCredentialNotFound, name)
	}
	if c.Type != credentialType {
		return nil, fmt.Errorf("credential %s has type %s, want %s", name, c.Type, credentialType)
	}
	return maps.Clone(c.Data), nil
}

// Type returns the credential type of the named credential.
func (s *CredentialStore) Type(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[name]
	return c.Type, ok
}

// Names returns a sorted list of all credential names.
func (s *CredentialStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.creds))
}

// Values returns every non-empty field value. Order is not guaranteed.
// This is intended for registering values with a Redactor.
func (s *CredentialStore) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var values []string
	for _, c := range s.creds {
		for _, v := range c.Data {
			if v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// Len returns the number of stored credentials.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}
