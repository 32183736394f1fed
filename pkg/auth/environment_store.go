package auth

import (
	"os"
	"time"
)

const envKeyName = "GSVBATCH_API_KEY"

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only: Store and Delete report the store as unavailable.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the API key from the environment. The name is ignored;
// the environment holds at most one key.
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	apiKey := os.Getenv(envKeyName)
	if apiKey == "" {
		return nil, ErrCredentialNotFound
	}

	return &Credential{
		Name:         "environment",
		APIKey:       apiKey,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment credential if one is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if an API key is set in the environment
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(envKeyName) != ""
}
