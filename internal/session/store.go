package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mtlprog/wealth/internal/domain"
)

// TokenStore persists the credential pair between runs.
type TokenStore interface {
	Load() (domain.Credentials, error)
	Save(domain.Credentials) error
	Clear() error
	// SetAccessToken replaces the access token only while a refresh token
	// is stored, and reports whether it did. Load, check and write happen
	// atomically so a concurrent Clear cannot be undone.
	SetAccessToken(token string) (bool, error)
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds domain.Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (domain.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

func (m *MemoryStore) Save(c domain.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = c
	return nil
}

func (m *MemoryStore) SetAccessToken(token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds.RefreshToken == "" {
		return false, nil
	}
	m.creds.AccessToken = token
	return true, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = domain.Credentials{}
	return nil
}

// FileStore keeps credentials in a JSON file readable only by the owner.
// A missing file is an empty credential pair.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (domain.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) Save(c domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(c)
}

func (f *FileStore) SetAccessToken(token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, err := f.load()
	if err != nil {
		return false, err
	}
	if c.RefreshToken == "" {
		return false, nil
	}
	c.AccessToken = token
	return true, f.save(c)
}

func (f *FileStore) load() (domain.Credentials, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("reading token file: %w", err)
	}
	var c domain.Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Credentials{}, fmt.Errorf("parsing token file %s: %w", f.path, err)
	}
	return c, nil
}

func (f *FileStore) save(c domain.Credentials) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
