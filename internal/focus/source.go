package focus

import (
	"errors"
	"sync"
)

// Listener is notified whenever the task stack changes.
type Listener interface {
	OnTaskStackChanged()
}

// TaskStackSource is the platform service reporting top-of-stack changes.
type TaskStackSource interface {
	RegisterTaskStackListener(l Listener) error
	UnregisterTaskStackListener(l Listener) error
	// FocusedTopActivity returns the flattened component name of the focused
	// task's top activity, or "" when there is none.
	FocusedTopActivity() (string, error)
}

// ErrNotRegistered is returned when unregistering an unknown listener.
var ErrNotRegistered = errors.New("listener not registered")

// LocalSource is an in-process TaskStackSource. Listeners are notified on the
// goroutine that calls SetTopActivity.
type LocalSource struct {
	mu          sync.Mutex
	top         string
	listeners   []Listener
	registerErr error
	snapshotErr error
}

// NewLocalSource with an initial top activity
func NewLocalSource(top string) *LocalSource {
	return &LocalSource{top: top}
}

func (s *LocalSource) RegisterTaskStackListener(l Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registerErr != nil {
		return s.registerErr
	}
	s.listeners = append(s.listeners, l)
	return nil
}

func (s *LocalSource) UnregisterTaskStackListener(l Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}

func (s *LocalSource) FocusedTopActivity() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshotErr != nil {
		return "", s.snapshotErr
	}
	return s.top, nil
}

// SetTopActivity moves activity to the top and notifies every listener.
func (s *LocalSource) SetTopActivity(activity string) {
	s.mu.Lock()
	s.top = activity
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnTaskStackChanged()
	}
}

// Listeners currently registered
func (s *LocalSource) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// FailRegistration makes subsequent registrations fail with err.
func (s *LocalSource) FailRegistration(err error) {
	s.mu.Lock()
	s.registerErr = err
	s.mu.Unlock()
}

// FailSnapshot makes FocusedTopActivity fail with err.
func (s *LocalSource) FailSnapshot(err error) {
	s.mu.Lock()
	s.snapshotErr = err
	s.mu.Unlock()
}
