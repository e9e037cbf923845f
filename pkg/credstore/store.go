// Package credstore keeps users' access token pairs between runs of the
// command line tool, preferring the system keychain over a plaintext file.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

const (
	serviceName = "mkm"
	fileName    = "credentials.json"

	// EnvNoKeyring forces the file backend when set to any value.
	EnvNoKeyring = "MKM_NO_KEYRING"
)

// ErrNotFound is returned when no token pair is stored for a profile.
var ErrNotFound = errors.New("credentials not found")

// UserToken is the access token pair of one marketplace user.
type UserToken struct {
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
	Username          string `json:"username,omitempty"`
}

// Store handles token storage, preferring system keychain.
type Store struct {
	useKeyring  bool
	fallbackDir string
	logger      *zap.Logger
}

// NewStore creates a token store. The keychain is probed once; when it is
// unavailable tokens go to fallbackDir/credentials.json.
func NewStore(fallbackDir string, logger *zap.Logger) *Store {
	if os.Getenv(EnvNoKeyring) != "" {
		return &Store{useKeyring: false, fallbackDir: fallbackDir, logger: logger}
	}

	probe := key("probe")
	if err := keyring.Set(serviceName, probe, "probe"); err == nil {
		_ = keyring.Delete(serviceName, probe)
		return &Store{useKeyring: true, fallbackDir: fallbackDir, logger: logger}
	}

	logger.Warn("System keyring unavailable, tokens stored in plaintext",
		zap.String("path", filepath.Join(fallbackDir, fileName)))
	return &Store{useKeyring: false, fallbackDir: fallbackDir, logger: logger}
}

func key(profile string) string {
	return fmt.Sprintf("mkm::%s", profile)
}

// Load retrieves the token pair stored for profile.
func (s *Store) Load(profile string) (*UserToken, error) {
	if s.useKeyring {
		return s.loadFromKeyring(profile)
	}
	return s.loadFromFile(profile)
}

// Save stores the token pair for profile, replacing any previous one.
func (s *Store) Save(profile string, token *UserToken) error {
	if token == nil || token.AccessToken == "" || token.AccessTokenSecret == "" {
		return fmt.Errorf("access token and access token secret are required")
	}
	if s.useKeyring {
		return s.saveToKeyring(profile, token)
	}
	return s.saveToFile(profile, token)
}

// Delete removes the token pair for profile. Deleting a missing profile
// reports ErrNotFound.
func (s *Store) Delete(profile string) error {
	if s.useKeyring {
		if err := keyring.Delete(serviceName, key(profile)); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	}
	return s.deleteFromFile(profile)
}

// UsingKeyring reports whether the store is backed by the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}

// Location describes where tokens are kept, for status output.
func (s *Store) Location() string {
	if s.useKeyring {
		return "system keyring"
	}
	return s.credentialsPath()
}

// Keyring methods

func (s *Store) loadFromKeyring(profile string) (*UserToken, error) {
	data, err := keyring.Get(serviceName, key(profile))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w for %s", ErrNotFound, profile)
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var token UserToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("invalid stored credentials: %w", err)
	}
	return &token, nil
}

func (s *Store) saveToKeyring(profile string, token *UserToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, key(profile), string(data))
}

// File fallback methods

func (s *Store) credentialsPath() string {
	return filepath.Join(s.fallbackDir, fileName)
}

func (s *Store) loadAllFromFile() (map[string]*UserToken, error) {
	data, err := os.ReadFile(s.credentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*UserToken), nil
		}
		return nil, err
	}

	var all map[string]*UserToken
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("invalid credentials file: %w", err)
	}
	if all == nil {
		all = make(map[string]*UserToken)
	}
	return all, nil
}

func (s *Store) saveAllToFile(all map[string]*UserToken) error {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.fallbackDir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Windows cannot rename over an existing file.
	destPath := s.credentialsPath()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) loadFromFile(profile string) (*UserToken, error) {
	all, err := s.loadAllFromFile()
	if err != nil {
		return nil, err
	}

	token, ok := all[profile]
	if !ok || token == nil {
		return nil, fmt.Errorf("%w for %s", ErrNotFound, profile)
	}
	return token, nil
}

func (s *Store) saveToFile(profile string, token *UserToken) error {
	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}

	all[profile] = token
	return s.saveAllToFile(all)
}

func (s *Store) deleteFromFile(profile string) error {
	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}
	if _, ok := all[profile]; !ok {
		return ErrNotFound
	}

	delete(all, profile)
	return s.saveAllToFile(all)
}

// MigrateToKeyring moves tokens from the plaintext file into the keyring and
// removes the file.
func (s *Store) MigrateToKeyring() error {
	if !s.useKeyring {
		return nil
	}

	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}

	for profile, token := range all {
		if err := s.saveToKeyring(profile, token); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", profile, err)
		}
	}

	s.logger.Info("Migrated stored tokens to keyring", zap.Int("profiles", len(all)))
	_ = os.Remove(s.credentialsPath())
	return nil
}
