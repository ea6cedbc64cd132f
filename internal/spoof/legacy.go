package spoof

import (
	"context"
	"errors"

	"github.com/propguard/propguard/internal/focus"
	"github.com/propguard/propguard/internal/identity"
	"github.com/propguard/propguard/internal/observability/logging"
	"github.com/propguard/propguard/internal/profile"
)

var errNoSource = errors.New("no task stack source configured")

// Legacy pins the core host service to an identity that predates hardware
// attestation enforcement, and restarts the process around the sensitive
// account screen.
type Legacy struct {
	rule    profile.Legacy
	source  focus.TaskStackSource
	term    focus.Terminator
	monitor *focus.Monitor

	registered bool
}

// NewLegacy
func NewLegacy(rule profile.Legacy, source focus.TaskStackSource, term focus.Terminator) *Legacy {
	return &Legacy{rule: rule, source: source, term: term}
}

// TryHandle reports whether the legacy path claimed the process. It also
// marks the install verifier regardless of process name.
func (l *Legacy) TryHandle(ctx context.Context, proc *identity.Process, d *Decision) bool {
	log := logging.From(ctx)
	pkg := proc.PackageName

	if l.rule.InstallVerifier != "" && pkg == l.rule.InstallVerifier {
		proc.Flags.MarkInstallVerifier()
	}

	if !l.rule.Packages.Match(pkg) || !l.rule.MatchesProcess(proc.ProcessName) {
		return false
	}
	proc.Flags.MarkCoreService()

	was := l.watch(ctx)
	d.SensitiveTop = was
	d.Monitored = l.registered
	if was {
		d.Branch = BranchLegacyOnTop
		return true
	}

	log.Debug(component, "spoofing build for core service", "package", pkg, "process", proc.ProcessName)
	d.Branch = BranchLegacy
	d.Profile = l.rule.Profile.Name
	for _, a := range l.rule.Profile.Attrs() {
		set(ctx, proc.Store, a.Key, a.Value, d)
	}
	if err := proc.Store.SetVersion(identity.VersionDeviceInitialSDK, l.rule.InitialSDK); err != nil {
		log.Warn(component, "failed to set version field", "field", identity.VersionFieldString(identity.VersionDeviceInitialSDK), "error", err.Error())
		d.Errors = append(d.Errors, err)
	}
	return true
}

// watch takes the baseline snapshot and registers the edge monitor. Without a
// source, or when registration fails, the baseline is false or the snapshot
// value respectively and restarts are disabled.
func (l *Legacy) watch(ctx context.Context) bool {
	if l.monitor != nil {
		// registered on the first qualifying match only
		return l.monitor.Baseline()
	}
	log := logging.From(ctx)
	if l.source == nil {
		log.Error(component, "edge restart disabled", "error", errNoSource.Error())
		return false
	}

	m, was, err := focus.Start(ctx, l.source, l.rule.SensitiveActivity, l.term)
	if m == nil {
		log.Error(component, "failed to build focus monitor", "error", err.Error())
		return false
	}
	l.monitor = m
	l.registered = err == nil
	return was
}

// Close unregisters the monitor.
func (l *Legacy) Close() error {
	if l.monitor == nil || !l.registered {
		return nil
	}
	l.registered = false
	return l.monitor.Close()
}
