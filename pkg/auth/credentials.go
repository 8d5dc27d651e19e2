// Package auth stores the Pixabay API key outside the config file.
//
// Keys are looked up in the system keychain first, then in an encrypted
// file under the config directory, then in the PIXGALLERY_API_KEY
// environment variable.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DefaultProfile is used when no profile name is given
const DefaultProfile = "default"

// Credential is a named Pixabay API key
type Credential struct {
	Profile      string    `json:"profile"`
	APIKey       string    `json:"api_key"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving keys
type CredentialStore interface {
	// Name identifies the backend in status output
	Name() string

	Store(cred *Credential) error
	Retrieve(profile string) (*Credential, error)
	List() ([]*Credential, error)
	Delete(profile string) error
	Exists(profile string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager over the keychain (when available), the
// encrypted file store and the environment
func NewManager() (*Manager, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return NewManagerInDir(configDir, true)
}

// NewManagerInDir is NewManager with an explicit directory for the
// encrypted file
func NewManagerInDir(configDir string, useKeyring bool) (*Manager, error) {
	var stores []CredentialStore

	if useKeyring {
		if keyringStore, err := NewKeyringStore(); err == nil {
			stores = append(stores, keyringStore)
		}
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// ValidateAPIKey rejects keys that cannot be valid
func ValidateAPIKey(key string) error {
	if key == "" {
		return errors.New("API key is required")
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return errors.New("API key must not contain whitespace")
	}
	if len(key) < 8 {
		return errors.New("API key is too short")
	}
	return nil
}

// Store saves the key in the first store that accepts it and returns
// that store's name
func (m *Manager) Store(cred *Credential) (string, error) {
	if cred.Profile == "" {
		cred.Profile = DefaultProfile
	}
	cred.APIKey = strings.TrimSpace(cred.APIKey)
	if err := ValidateAPIKey(cred.APIKey); err != nil {
		return "", err
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return store.Name(), nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return "", errors.New("no available credential stores")
}

// Retrieve gets the key for profile from the first store that has it
func (m *Manager) Retrieve(profile string) (*Credential, error) {
	cred, _, err := m.Resolve(profile)
	return cred, err
}

// Resolve is Retrieve that also names the store the key came from
func (m *Manager) Resolve(profile string) (*Credential, string, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if cred, err := store.Retrieve(profile); err == nil && cred != nil {
			return cred, store.Name(), nil
		}
	}
	return nil, "", fmt.Errorf("%w for profile %q", ErrCredentialsNotFound, profile)
}

// List returns all stored credentials from all stores
func (m *Manager) List() ([]*Credential, error) {
	byProfile := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byProfile[cred.Profile]; !ok || cred.LastModified.After(existing.LastModified) {
				byProfile[cred.Profile] = cred
			}
		}
	}

	var result []*Credential
	for _, cred := range byProfile {
		result = append(result, cred)
	}
	return result, nil
}

// Delete removes the key for profile from every writable store
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for profile %q", ErrCredentialsNotFound, profile)
	}
	return nil
}

// StoreNames lists the active backends in lookup order
func (m *Manager) StoreNames() []string {
	names := make([]string, len(m.stores))
	for i, s := range m.stores {
		names[i] = s.Name()
	}
	return names
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "pixgallery")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "pixgallery")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "pixgallery")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "pixgallery")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskKey masks all but the first 4 and last 4 characters of a key
func MaskKey(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
