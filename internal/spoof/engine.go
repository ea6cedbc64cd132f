// Package spoof decides and applies the identity profile for a process.
package spoof

import (
	"context"
	"fmt"

	"github.com/propguard/propguard/internal/focus"
	"github.com/propguard/propguard/internal/identity"
	"github.com/propguard/propguard/internal/observability/logging"
	otelobs "github.com/propguard/propguard/internal/observability/otel"
	"github.com/propguard/propguard/internal/profile"
	"go.opentelemetry.io/otel/attribute"
)

const component = "spoof"

// Options configure an Engine.
type Options struct {
	// Table defaults to the embedded table.
	Table *profile.Table
	// Codename is the real device codename.
	Codename string
	// AlternateModel replaces MODEL for alternate-model packages when set.
	AlternateModel string
	// Source reports foreground changes for the legacy path. Nil disables
	// the edge monitor.
	Source focus.TaskStackSource
	// Terminator defaults to killing the current process.
	Terminator focus.Terminator
}

// Engine applies the policy table to a process identity.
type Engine struct {
	table          *profile.Table
	codename       string
	alternateModel string
	legacy         *Legacy
}

// NewEngine
func NewEngine(opts Options) (*Engine, error) {
	table := opts.Table
	if table == nil {
		var err error
		if table, err = profile.Default(); err != nil {
			return nil, fmt.Errorf("failed to load policy table: %w", err)
		}
	}
	return &Engine{
		table:          table,
		codename:       opts.Codename,
		alternateModel: opts.AlternateModel,
		legacy:         NewLegacy(table.Legacy, opts.Source, opts.Terminator),
	}, nil
}

// Table in use
func (e *Engine) Table() *profile.Table {
	return e.table
}

// Apply runs once per process, before anything reads the store. Individual
// write failures are logged and recorded; they never abort the run. The store
// is sealed on return.
func (e *Engine) Apply(ctx context.Context, proc *identity.Process) (d Decision) {
	pkg := proc.PackageName
	d = Decision{Package: pkg, Process: proc.ProcessName}

	ctx, span, end := otelobs.StartSpan(ctx, "propguard.apply",
		attribute.String("propguard.package", pkg),
		attribute.String("propguard.process", proc.ProcessName),
	)
	log := logging.From(ctx)
	defer func() {
		proc.Store.Seal()
		span.SetAttributes(
			attribute.String("propguard.branch", string(d.Branch)),
			attribute.String("propguard.profile", d.Profile),
			attribute.Int("propguard.keys_written", len(d.Written)),
		)
		var err error
		if len(d.Errors) > 0 {
			err = fmt.Errorf("%d attribute writes failed", len(d.Errors))
		}
		end(err)
		log.Event(ctx, "apply.complete", map[string]any{
			"package": pkg,
			"branch":  string(d.Branch),
			"profile": d.Profile,
		})
	}()

	e.writeProfile(ctx, proc, e.table.Generic, false, &d)

	if pkg == "" {
		d.Branch = BranchEmpty
		return d
	}
	if e.table.IsExcluded(pkg) {
		d.Branch = BranchExcluded
		return d
	}

	if e.legacy.TryHandle(ctx, proc, &d) {
		return d
	}

	if e.table.IsPhotos(pkg) {
		proc.Flags.MarkPhotosApp()
	}

	res := e.table.Resolve(pkg, e.codename)
	d.Branch = res.Branch
	switch res.Branch {
	case profile.BranchKeep, profile.BranchCamera, profile.BranchGenuinePixel:
		log.Debug(component, "leaving identity unchanged", "package", pkg, "branch", string(res.Branch))
		return d
	}

	if res.Profile != nil {
		d.Profile = res.Profile.Name
		log.Debug(component, "defining props", "package", pkg, "profile", res.Profile.Name)
		e.writeProfile(ctx, proc, *res.Profile, true, &d)
	}

	e.postOverride(ctx, proc, &d)
	return d
}

// writeProfile sets each attribute, skipping the package's exceptions when
// honorExceptions is set.
func (e *Engine) writeProfile(ctx context.Context, proc *identity.Process, p profile.Profile, honorExceptions bool, d *Decision) {
	for _, a := range p.Attrs() {
		if honorExceptions && e.table.Excepted(proc.PackageName, a.Key) {
			logging.From(ctx).Debug(component, "not defining prop", "key", a.Key.String(), "package", proc.PackageName)
			d.Skipped = append(d.Skipped, a.Key)
			continue
		}
		set(ctx, proc.Store, a.Key, a.Value, d)
	}
}

// postOverride handles the per-package rewrites that run after the profile.
func (e *Engine) postOverride(ctx context.Context, proc *identity.Process, d *Decision) {
	pkg := proc.PackageName
	if e.table.UsesRealIncremental(pkg) {
		set(ctx, proc.Store, identity.KeyFingerprint, proc.Store.Incremental(), d)
		return
	}
	if e.alternateModel != "" && e.table.UsesAlternateModel(pkg) {
		logging.From(ctx).Debug(component, "setting alternate model", "package", pkg, "model", e.alternateModel)
		set(ctx, proc.Store, identity.KeyModel, e.alternateModel, d)
	}
}

// Close releases the legacy monitor, if one was registered.
func (e *Engine) Close() error {
	return e.legacy.Close()
}

func set(ctx context.Context, store *identity.Store, k identity.Key, value string, d *Decision) {
	if err := store.Set(k, value); err != nil {
		logging.From(ctx).Warn(component, "failed to set prop", "key", k.String(), "error", err.Error())
		d.Errors = append(d.Errors, err)
		return
	}
	d.Written = append(d.Written, k)
}
