package auth

import (
	"os"
	"strings"
	"time"

	"pixgallery/pkg/config"
)

// EnvAPIKey is the environment variable holding the API key
const EnvAPIKey = config.EnvPrefix + "API_KEY"

// EnvironmentStore reads the key from PIXGALLERY_API_KEY. It is read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Credential) error {
	return ErrStoreUnavailable
}

// Retrieve answers for any profile, since the environment holds one key
func (e *EnvironmentStore) Retrieve(profile string) (*Credential, error) {
	key := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if key == "" {
		return nil, ErrCredentialsNotFound
	}
	if profile == "" {
		profile = DefaultProfile
	}

	return &Credential{
		Profile:      profile,
		APIKey:       key,
		LastModified: time.Time{},
	}, nil
}

func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(string) bool {
	return strings.TrimSpace(os.Getenv(EnvAPIKey)) != ""
}
