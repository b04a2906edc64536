package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	ErrNoCredential       = errors.New("auth: no stored credential")
	ErrUnsupportedVersion = errors.New("auth: unsupported credential file version")
	ErrPassphrase         = errors.New("auth: credential passphrase missing or wrong")
)

// CredentialStore persists a single credential.
type CredentialStore interface {
	Load() (*Credential, error)
	Save(c *Credential) error
}

// envelope is the documented file format:
//
//	{"version":1,"credential":{...}}
//	{"version":1,"sealed":"<base64 salt|nonce|ciphertext>"}
type envelope struct {
	Version    int         `json:"version"`
	Credential *Credential `json:"credential,omitempty"`
	Sealed     string      `json:"sealed,omitempty"`
}

// FileStore keeps the credential in a JSON file, sealed when a passphrase is set.
type FileStore struct {
	Path       string
	Passphrase string
}

func NewFileStore(path, passphrase string) *FileStore {
	if path == "" {
		path = "token.json"
	}
	return &FileStore{Path: path, Passphrase: passphrase}
}

func (s *FileStore) Load() (*Credential, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("auth: read %s: %w", s.Path, err)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("auth: decode %s: %w", s.Path, err)
	}
	if env.Version != CredentialVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if env.Sealed == "" {
		if env.Credential == nil {
			return nil, ErrNoCredential
		}
		return env.Credential, nil
	}
	if s.Passphrase == "" {
		return nil, ErrPassphrase
	}
	plain, err := unseal(s.Passphrase, env.Sealed)
	if err != nil {
		return nil, err
	}
	var c Credential
	if err := json.Unmarshal(plain, &c); err != nil {
		return nil, fmt.Errorf("auth: decode sealed credential: %w", err)
	}
	return &c, nil
}

// Save replaces the file atomically with mode 0600.
func (s *FileStore) Save(c *Credential) error {
	if c == nil {
		return errors.New("auth: nil credential")
	}
	env := envelope{Version: CredentialVersion}
	if s.Passphrase == "" {
		env.Credential = c
	} else {
		plain, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if env.Sealed, err = seal(s.Passphrase, plain); err != nil {
			return fmt.Errorf("auth: seal credential: %w", err)
		}
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("auth: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("auth: write credential: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("auth: write credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("auth: write credential: %w", err)
	}
	return nil
}

// Remove deletes the file. A missing file is not an error.
func (s *FileStore) Remove() error {
	err := os.Remove(s.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("auth: remove %s: %w", s.Path, err)
	}
	return nil
}
