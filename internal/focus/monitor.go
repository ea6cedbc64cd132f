package focus

import (
	"context"
	"fmt"
	"os"

	"github.com/propguard/propguard/internal/observability/logging"
)

const component = "focus"

// Terminator ends the hosting process.
type Terminator interface {
	Terminate(reason string)
}

// TerminatorFunc adapts a function to Terminator
type TerminatorFunc func(reason string)

func (f TerminatorFunc) Terminate(reason string) { f(reason) }

// ProcessTerminator kills the current process. The supervisor restarts it.
type ProcessTerminator struct{}

func (ProcessTerminator) Terminate(reason string) {
	p, err := os.FindProcess(os.Getpid())
	if err == nil && p.Kill() == nil {
		return
	}
	os.Exit(1)
}

// Monitor is an edge detector over "sensitive screen is topmost". The
// baseline is captured at registration and never changes.
type Monitor struct {
	source    TaskStackSource
	sensitive Component
	baseline  bool
	term      Terminator
	log       logging.Logger
}

// NewMonitor builds an unregistered monitor.
func NewMonitor(source TaskStackSource, sensitiveActivity string, term Terminator, log logging.Logger) (*Monitor, error) {
	c, err := ParseComponent(sensitiveActivity)
	if err != nil {
		return nil, fmt.Errorf("sensitive activity: %w", err)
	}
	if term == nil {
		term = ProcessTerminator{}
	}
	if log == nil {
		log = logging.From(context.Background())
	}
	return &Monitor{
		source:    source,
		sensitive: c,
		term:      term,
		log:       log,
	}, nil
}

// IsSensitiveScreenTopmost reads the current top activity. A failed snapshot
// reads as false.
func (m *Monitor) IsSensitiveScreenTopmost() bool {
	top, err := m.source.FocusedTopActivity()
	if err != nil {
		m.log.Error(component, "unable to get top activity", "error", err.Error())
		return false
	}
	return top != "" && sameComponent(top, m.sensitive)
}

// Register records baseline and subscribes to the source.
func (m *Monitor) Register(baseline bool) error {
	m.baseline = baseline
	if err := m.source.RegisterTaskStackListener(m); err != nil {
		return fmt.Errorf("failed to register task stack listener: %w", err)
	}
	return nil
}

// Baseline captured at registration
func (m *Monitor) Baseline() bool {
	return m.baseline
}

// OnTaskStackChanged terminates the process when the sensitive screen state
// differs from the baseline.
func (m *Monitor) OnTaskStackChanged() {
	current := m.IsSensitiveScreenTopmost()
	if current == m.baseline {
		return
	}
	reason := fmt.Sprintf("sensitive screen topmost is:%t was:%t", current, m.baseline)
	m.log.Warn(component, "terminating process", "reason", reason)
	m.term.Terminate(reason)
}

// Close unsubscribes from the source.
func (m *Monitor) Close() error {
	return m.source.UnregisterTaskStackListener(m)
}

// Start builds a monitor, takes the baseline snapshot and registers. A
// registration failure is logged and returned alongside the monitor; the
// baseline is still valid.
func Start(ctx context.Context, source TaskStackSource, sensitiveActivity string, term Terminator) (*Monitor, bool, error) {
	log := logging.From(ctx)
	m, err := NewMonitor(source, sensitiveActivity, term, log)
	if err != nil {
		return nil, false, err
	}
	was := m.IsSensitiveScreenTopmost()
	if err := m.Register(was); err != nil {
		log.Error(component, "edge restart disabled", "error", err.Error())
		return m, was, err
	}
	return m, was, nil
}
