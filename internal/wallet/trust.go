package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
)

// TrustStore is the set of origins the keystore wallet connects to without prompting.
type TrustStore struct {
	mu      sync.Mutex
	path    string
	origins []string
}

type trustFile struct {
	Origins []string `json:"origins"`
}

// LoadTrustStore reads the trust file at path. A missing file is an empty store.
func LoadTrustStore(path string) (*TrustStore, error) {
	store := &TrustStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trust file: %w", err)
	}

	var f trustFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trust file: %w", err)
	}
	store.origins = f.Origins
	return store, nil
}

// IsTrusted reports whether origin was approved before.
func (s *TrustStore) IsTrusted(origin string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.origins, origin)
}

// Add records origin as trusted and writes the file.
func (s *TrustStore) Add(origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.origins, origin) {
		return nil
	}
	origins := append(slices.Clone(s.origins), origin)

	data, err := json.MarshalIndent(trustFile{Origins: origins}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trust file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write trust file: %w", err)
	}

	s.origins = origins
	return nil
}
