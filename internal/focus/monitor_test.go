package focus

import (
	"context"
	"errors"
	"sync"
	"testing"
)

const (
	sensitive      = "com.google.android.gms/.auth.uiflows.minutemaid.MinuteMaidActivity"
	sensitiveLong  = "com.google.android.gms/com.google.android.gms.auth.uiflows.minutemaid.MinuteMaidActivity"
	launcher       = "com.android.launcher3/.Launcher"
	settingsScreen = "com.android.settings/.Settings"
)

type countingTerminator struct {
	mu      sync.Mutex
	reasons []string
}

func (c *countingTerminator) Terminate(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
}

func (c *countingTerminator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reasons)
}

func TestParseComponent(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{sensitive, sensitiveLong, false},
		{sensitiveLong, sensitiveLong, false},
		{"pkg", "", true},
		{"/cls", "", true},
		{"pkg/", "", true},
	}
	for _, tt := range tests {
		c, err := ParseComponent(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseComponent(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && c.Flatten() != tt.want {
			t.Errorf("ParseComponent(%q).Flatten() = %q, want %q", tt.in, c.Flatten(), tt.want)
		}
	}
}

func TestMonitorEdges(t *testing.T) {
	tests := []struct {
		name      string
		initial   string
		events    []string
		wantKills int
	}{
		{"no change", launcher, []string{settingsScreen, launcher}, 0},
		{"flip to sensitive", launcher, []string{sensitive}, 1},
		{"flip then flip back", launcher, []string{sensitive, launcher}, 1},
		{"already on sensitive, leaves", sensitive, []string{launcher}, 1},
		{"already on sensitive, stays", sensitive, []string{sensitiveLong, sensitive}, 0},
		{"repeated identical readings", launcher, []string{launcher, launcher, launcher}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewLocalSource(tt.initial)
			term := &countingTerminator{}

			m, was, err := Start(context.Background(), src, sensitive, term)
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			if want := tt.initial == sensitive; was != want || m.Baseline() != want {
				t.Fatalf("baseline = %v/%v, want %v", was, m.Baseline(), want)
			}

			for _, ev := range tt.events {
				src.SetTopActivity(ev)
			}
			if got := term.count(); got != tt.wantKills {
				t.Errorf("terminations = %d, want %d", got, tt.wantKills)
			}
		})
	}
}

func TestMonitorBaselineNeverChanges(t *testing.T) {
	src := NewLocalSource(launcher)
	term := &countingTerminator{}
	m, _, err := Start(context.Background(), src, sensitive, term)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// the terminator does not end the test process, so every flipped reading fires
	src.SetTopActivity(sensitive)
	src.SetTopActivity(sensitive)
	if term.count() != 2 {
		t.Errorf("terminations = %d, want 2", term.count())
	}
	if m.Baseline() {
		t.Error("baseline must stay false")
	}
}

func TestMonitorSnapshotFailureReadsFalse(t *testing.T) {
	src := NewLocalSource(sensitive)
	src.FailSnapshot(errors.New("binder died"))
	term := &countingTerminator{}

	_, was, err := Start(context.Background(), src, sensitive, term)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if was {
		t.Error("failed snapshot must read as not topmost")
	}

	src.SetTopActivity(sensitive)
	if term.count() != 0 {
		t.Error("failed snapshot equals baseline; no termination expected")
	}
}

func TestMonitorRegistrationFailure(t *testing.T) {
	src := NewLocalSource(launcher)
	src.FailRegistration(errors.New("permission denied"))
	term := &countingTerminator{}

	m, was, err := Start(context.Background(), src, sensitive, term)
	if err == nil {
		t.Fatal("expected registration error")
	}
	if m == nil {
		t.Fatal("monitor should still be returned")
	}
	if was {
		t.Error("baseline should be false")
	}
	if src.Listeners() != 0 {
		t.Errorf("listeners = %d, want 0", src.Listeners())
	}

	src.SetTopActivity(sensitive)
	if term.count() != 0 {
		t.Error("unregistered monitor must not terminate")
	}
}

func TestMonitorClose(t *testing.T) {
	src := NewLocalSource(launcher)
	term := &countingTerminator{}
	m, _, err := Start(context.Background(), src, sensitive, term)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	src.SetTopActivity(sensitive)
	if term.count() != 0 {
		t.Error("closed monitor must not terminate")
	}
	if err := m.Close(); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second Close error = %v, want ErrNotRegistered", err)
	}
}

func TestNewMonitorRejectsBadActivity(t *testing.T) {
	if _, err := NewMonitor(NewLocalSource(""), "not-a-component", nil, nil); err == nil {
		t.Error("expected error for invalid sensitive activity")
	}
}

func TestMonitorConcurrentEvents(t *testing.T) {
	src := NewLocalSource(launcher)
	term := &countingTerminator{}
	if _, _, err := Start(context.Background(), src, sensitive, term); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src.SetTopActivity(settingsScreen)
		}()
	}
	wg.Wait()
	if term.count() != 0 {
		t.Errorf("terminations = %d, want 0", term.count())
	}
}
