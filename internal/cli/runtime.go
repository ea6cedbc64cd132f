package cli

import (
	"context"
	"fmt"

	"github.com/propguard/propguard/internal/focus"
	"github.com/propguard/propguard/internal/identity"
	"github.com/propguard/propguard/internal/spoof"
)

// target names the simulated process
type target struct {
	pkg     string
	process string
}

func (t target) processName() string {
	if t.process == "" {
		return t.pkg
	}
	return t.process
}

// applied is the outcome of one simulated process start.
type applied struct {
	proc     *identity.Process
	decision spoof.Decision
	engine   *spoof.Engine
	device   map[string]string
}

// applyTarget seeds a store from the configured device and runs the engine.
// The caller must Close the returned engine.
func applyTarget(ctx context.Context, s *session, t target, source focus.TaskStackSource, term focus.Terminator) (*applied, error) {
	device, err := s.cfg.Device.IdentityDevice()
	if err != nil {
		return nil, err
	}

	engine, err := spoof.NewEngine(spoof.Options{
		Table:          s.table,
		Codename:       s.cfg.Device.Codename,
		AlternateModel: s.cfg.Device.AlternateModel,
		Source:         source,
		Terminator:     term,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	store := identity.NewStore(device)
	before := store.Snapshot()
	proc := identity.NewProcess(t.pkg, t.processName(), store)
	d := engine.Apply(ctx, proc)

	return &applied{proc: proc, decision: d, engine: engine, device: before}, nil
}
