package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Accounts stores optional passwords that protect player names. Methods may
// hash or touch disk; the hub only calls them through Hub.Go.
type Accounts interface {
	// Protected reports whether name has a password on record.
	Protected(name string) bool
	Authenticate(name, password string) bool
	// SetPassword creates or replaces the password protecting name.
	SetPassword(name, password string) error
	RecordLogin(name string, when time.Time) error
	Stats(name string) (AccountStats, bool)
}

type accountRecord struct {
	Name        string    `json:"name"`
	Password    string    `json:"password"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	LastLogin   time.Time `json:"last_login,omitempty"`
	TotalLogins int       `json:"total_logins,omitempty"`
}

// AccountStats summarises persistent account metadata.
type AccountStats struct {
	CreatedAt   time.Time
	LastLogin   time.Time
	TotalLogins int
}

// AccountManager keeps account records in a JSON file keyed by folded name.
// An empty path keeps everything in memory. Disk writes happen outside mu so
// readers never wait on the filesystem.
type AccountManager struct {
	mu       sync.RWMutex
	saveMu   sync.Mutex
	accounts map[string]accountRecord
	path     string
	cost     int
}

func NewAccountManager(path string) (*AccountManager, error) {
	manager := &AccountManager{
		accounts: make(map[string]accountRecord),
		path:     strings.TrimSpace(path),
		cost:     bcrypt.DefaultCost,
	}
	if err := manager.load(); err != nil {
		return nil, err
	}
	return manager, nil
}

func (a *AccountManager) load() error {
	if a.path == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) || len(data) == 0 {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read accounts file: %w", err)
	}
	var accounts map[string]accountRecord
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("decode accounts file: %w", err)
	}
	for key, record := range accounts {
		if record.Name == "" {
			record.Name = key
		}
		a.accounts[NameKey(record.Name)] = record
	}
	return nil
}

func (a *AccountManager) snapshotLocked() map[string]accountRecord {
	out := make(map[string]accountRecord, len(a.accounts))
	for k, v := range a.accounts {
		out[k] = v
	}
	return out
}

func (a *AccountManager) save(accounts map[string]accountRecord) error {
	if a.path == "" {
		return nil
	}
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "accounts-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accounts); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write accounts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp accounts file: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace accounts file: %w", err)
	}
	return nil
}

func (a *AccountManager) Protected(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.accounts[NameKey(name)]
	return ok
}

func (a *AccountManager) SetPassword(name, pass string) error {
	if err := ValidatePassword(pass); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pass), a.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	key := NameKey(name)
	a.mu.Lock()
	previous, existed := a.accounts[key]
	record := previous
	record.Name = name
	record.Password = string(hashed)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	a.accounts[key] = record
	snapshot := a.snapshotLocked()
	a.mu.Unlock()

	if err := a.save(snapshot); err != nil {
		a.mu.Lock()
		if existed {
			a.accounts[key] = previous
		} else {
			delete(a.accounts, key)
		}
		a.mu.Unlock()
		return err
	}
	return nil
}

func (a *AccountManager) Authenticate(name, pass string) bool {
	a.mu.RLock()
	record, ok := a.accounts[NameKey(name)]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(pass)) == nil
}

// RecordLogin updates bookkeeping for a successful login. Unprotected names
// have no record and are ignored.
func (a *AccountManager) RecordLogin(name string, when time.Time) error {
	key := NameKey(name)
	a.mu.Lock()
	record, ok := a.accounts[key]
	if !ok {
		a.mu.Unlock()
		return nil
	}
	record.LastLogin = when.UTC()
	record.TotalLogins++
	a.accounts[key] = record
	snapshot := a.snapshotLocked()
	a.mu.Unlock()
	return a.save(snapshot)
}

// Stats returns account metadata for display purposes.
func (a *AccountManager) Stats(name string) (AccountStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.accounts[NameKey(name)]
	if !ok {
		return AccountStats{}, false
	}
	return AccountStats{
		CreatedAt:   record.CreatedAt,
		LastLogin:   record.LastLogin,
		TotalLogins: record.TotalLogins,
	}, true
}
