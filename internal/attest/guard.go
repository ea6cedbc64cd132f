// Package attest vetoes hardware-backed key attestation from processes whose
// reported identity has been spoofed.
package attest

import (
	"context"
	"errors"
	"fmt"

	"github.com/propguard/propguard/internal/identity"
	"github.com/propguard/propguard/internal/observability/logging"
	otelobs "github.com/propguard/propguard/internal/observability/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrUnsupportedOperation is the veto. Callers must propagate it.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Guard sits on the certificate-chain retrieval path.
type Guard struct {
	flags  *identity.ProcessFlags
	marker string
}

// NewGuard; marker is the integrity helper's frame name fragment.
func NewGuard(flags *identity.ProcessFlags, marker string) *Guard {
	return &Guard{flags: flags, marker: marker}
}

// OnAttestationRequest checks the caller's own stack.
func (g *Guard) OnAttestationRequest(ctx context.Context) error {
	return g.Check(ctx, CallerFrames(1))
}

// Check denies when the core service is spoofed and the integrity helper is
// on the stack, or when the process is the install verifier.
func (g *Guard) Check(ctx context.Context, frames Frames) (err error) {
	coreService := g.flags.CoreService()
	installVerifier := g.flags.InstallVerifier()

	_, _, end := otelobs.StartSpan(ctx, "propguard.attest",
		attribute.Bool("propguard.core_service", coreService),
		attribute.Bool("propguard.install_verifier", installVerifier),
	)
	defer func() { end(err) }()

	helperOnStack := coreService && frames.Contains(g.marker)
	if !helperOnStack && !installVerifier {
		return nil
	}

	logging.From(ctx).Info("attest", "blocked key attestation",
		"core_service", coreService,
		"install_verifier", installVerifier,
	)
	return fmt.Errorf("%w: key attestation blocked (core_service=%t install_verifier=%t)",
		ErrUnsupportedOperation, coreService, installVerifier)
}
