package identity

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownKey is returned for keys outside the closed attribute set.
	ErrUnknownKey = errors.New("unknown identity key")
	// ErrSealed is returned for writes after Seal.
	ErrSealed = errors.New("identity store is sealed")
)

// Device is the real identity a device reports before any override.
type Device struct {
	Attributes  map[Key]string
	Incremental string
	InitialSDK  int
}

// Store is the owned identity attribute store. It is written during process
// start and read-only once sealed.
type Store struct {
	mu          sync.RWMutex
	attrs       map[Key]string
	incremental string
	version     map[VersionField]int
	sealed      bool
}

// NewStore seeded with the device's real values
func NewStore(d Device) *Store {
	s := &Store{
		attrs:       make(map[Key]string, len(Keys)),
		incremental: d.Incremental,
		version: map[VersionField]int{
			VersionDeviceInitialSDK: d.InitialSDK,
		},
	}
	for k, v := range d.Attributes {
		if k.Valid() {
			s.attrs[k] = v
		}
	}
	return s
}

// Set writes one attribute.
func (s *Store) Set(k Key, value string) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKey, int(k))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return fmt.Errorf("set %s: %w", k, ErrSealed)
	}
	s.attrs[k] = value
	return nil
}

// SetVersion writes one version-metadata field.
func (s *Store) SetVersion(f VersionField, value int) error {
	if VersionFieldString(f) == "UNKNOWN" {
		return fmt.Errorf("%w: version field %d", ErrUnknownKey, int(f))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return fmt.Errorf("set %s: %w", VersionFieldString(f), ErrSealed)
	}
	s.version[f] = value
	return nil
}

// Get
func (s *Store) Get(k Key) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attrs[k]
}

// Version
func (s *Store) Version(f VersionField) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version[f]
}

// Incremental returns the real build-incremental value. It is never overridden.
func (s *Store) Incremental() string {
	return s.incremental
}

// Seal makes the store read-only.
func (s *Store) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Sealed
func (s *Store) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// Snapshot copies the current attributes, keyed by attribute name.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.attrs))
	for k, v := range s.attrs {
		out[KeyString(k)] = v
	}
	return out
}
