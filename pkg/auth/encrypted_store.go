package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnv overrides the generated passphrase for the encrypted file
const PassphraseEnv = "PIXGALLERY_PASSPHRASE"

const (
	vaultVersion  = 2
	saltLen       = 32
	derivedKeyLen = 32
	kdfRounds     = 100_000
)

// vaultFile is the JSON layout on disk. Profiles holds the sealed JSON map
// of profile name to Credential, nonce first.
type vaultFile struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Profiles []byte    `json:"profiles"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore keeps API keys in one AES-GCM sealed file. The key is
// derived with PBKDF2 from PIXGALLERY_PASSPHRASE, or from a random
// passphrase saved beside the file on first use.
type EncryptedFileStore struct {
	path       string
	passphrase string

	mu sync.Mutex
	// salt and key cache the last PBKDF2 derivation
	salt []byte
	key  []byte
}

// NewEncryptedFileStore opens the store at path. The file itself is only
// created by the first Store.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := loadPassphrase(dir)
	if err != nil {
		return nil, err
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Name() string { return "encrypted-file" }

func (e *EncryptedFileStore) Store(cred *Credential) error {
	if cred == nil || cred.Profile == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(profiles map[string]Credential) error {
		profiles[cred.Profile] = *cred
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(profile string) (*Credential, error) {
	if profile == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	profiles, _, err := e.read()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	cred, ok := profiles[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &cred, nil
}

// List returns the stored credentials ordered by profile
func (e *EncryptedFileStore) List() ([]*Credential, error) {
	e.mu.Lock()
	profiles, _, err := e.read()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	creds := make([]*Credential, 0, len(profiles))
	for _, name := range slices.Sorted(maps.Keys(profiles)) {
		cred := profiles[name]
		creds = append(creds, &cred)
	}
	return creds, nil
}

// Delete removes profile. The file goes away with the last profile.
func (e *EncryptedFileStore) Delete(profile string) error {
	if profile == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(profiles map[string]Credential) error {
		if _, ok := profiles[profile]; !ok {
			return ErrCredentialsNotFound
		}
		delete(profiles, profile)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(profile string) bool {
	_, err := e.Retrieve(profile)
	return err == nil
}

// update applies fn to the stored profiles and writes the result back
func (e *EncryptedFileStore) update(fn func(map[string]Credential) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	profiles, salt, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(profiles); err != nil {
		return err
	}
	return e.write(profiles, salt)
}

// read opens the vault. A missing file is an empty vault with no salt.
// e.mu must be held.
func (e *EncryptedFileStore) read() (map[string]Credential, []byte, error) {
	raw, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Credential{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var vf vaultFile
	if err := json.Unmarshal(raw, &vf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if len(vf.Salt) == 0 {
		return nil, nil, errors.New("credentials file has no salt")
	}

	plain, err := unseal(e.deriveKey(vf.Salt), vf.Profiles)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt credentials (is %s right?): %w", PassphraseEnv, err)
	}

	profiles := map[string]Credential{}
	if err := json.Unmarshal(plain, &profiles); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return profiles, vf.Salt, nil
}

// write seals profiles into the file, replacing it atomically. A nil salt
// starts a new vault. e.mu must be held.
func (e *EncryptedFileStore) write(profiles map[string]Credential, salt []byte) error {
	if len(profiles) == 0 {
		if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}

	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	sealed, err := seal(e.deriveKey(salt), plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	content, err := json.MarshalIndent(vaultFile{
		Version:  vaultVersion,
		Salt:     salt,
		Profiles: sealed,
		Modified: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	// CreateTemp already uses 0600
	return os.Rename(tmp.Name(), e.path)
}

// deriveKey runs PBKDF2 for salt unless the last call used the same salt.
// e.mu must be held.
func (e *EncryptedFileStore) deriveKey(salt []byte) []byte {
	if e.key == nil || !bytes.Equal(salt, e.salt) {
		e.salt = bytes.Clone(salt)
		e.key = pbkdf2.Key([]byte(e.passphrase), salt, kdfRounds, derivedKeyLen, sha256.New)
	}
	return e.key
}

// loadPassphrase prefers PIXGALLERY_PASSPHRASE, then dir/.passphrase, and
// otherwise creates that file with a random value
func loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	file := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(file); err == nil {
		if pass := strings.TrimSpace(string(content)); pass != "" {
			return pass, nil
		}
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.RawURLEncoding.EncodeToString(b)
	if err := os.WriteFile(file, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(key, plain []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func unseal(key, sealed []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	n := aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("sealed data is truncated")
	}
	return aead.Open(nil, sealed[:n], sealed[n:], nil)
}
