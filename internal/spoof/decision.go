package spoof

import (
	"github.com/propguard/propguard/internal/identity"
	"github.com/propguard/propguard/internal/observability/receipt"
	"github.com/propguard/propguard/internal/profile"
)

// Branches decided before the table is consulted.
const (
	BranchEmpty       profile.Branch = "empty"
	BranchExcluded    profile.Branch = "excluded"
	BranchLegacy      profile.Branch = "legacy"
	BranchLegacyOnTop profile.Branch = "legacy_sensitive_top"
)

// Decision records what one Apply call did.
type Decision struct {
	Package string
	Process string
	Branch  profile.Branch
	Profile string
	Written []identity.Key
	Skipped []identity.Key
	Errors  []error

	// Legacy path only
	Monitored    bool
	SensitiveTop bool
}

// Summary for receipts
func (d Decision) Summary() receipt.DecisionSummary {
	s := receipt.DecisionSummary{
		Package: d.Package,
		Process: d.Process,
		Branch:  string(d.Branch),
		Profile: d.Profile,
	}
	for _, k := range d.Written {
		s.KeysWritten = append(s.KeysWritten, identity.KeyString(k))
	}
	for _, k := range d.Skipped {
		s.KeysSkipped = append(s.KeysSkipped, identity.KeyString(k))
	}
	for _, err := range d.Errors {
		s.Errors = append(s.Errors, err.Error())
	}
	return s
}
