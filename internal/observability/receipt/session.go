package receipt

import (
	"context"
	"time"

	"github.com/propguard/propguard/internal/observability"
)

// MaxErrorLength is the maximum length for error strings in receipts.
const MaxErrorLength = 2048

// Session tracks command execution
type Session struct {
	ctx     context.Context
	start   time.Time
	command string
	args    []string
}

// Start session
func Start(ctx context.Context, cmd string, args []string) *Session {
	return &Session{
		ctx:     ctx,
		start:   time.Now(),
		command: cmd,
		args:    args,
	}
}

// Option configures receipt
type Option func(*Receipt)

// WithDecision option
func WithDecision(d DecisionSummary) Option {
	return func(r *Receipt) {
		r.Decision = &d
	}
}

// WithAttestation option
func WithAttestation(a AttestationCheck) Option {
	return func(r *Receipt) {
		r.Attestation = &a
	}
}

// WithIdentity records the effective identity after apply.
func WithIdentity(snapshot map[string]string) Option {
	return func(r *Receipt) {
		if len(snapshot) > 0 {
			r.Identity = snapshot
		}
	}
}

// Finish and write receipt
func (s *Session) Finish(err error, opts ...Option) error {
	w := From(s.ctx)
	if w == nil {
		// receipts disabled
		return nil
	}

	r := Receipt{
		SchemaVersion: ReceiptSchemaVersion,
		OpID:          observability.OpID(s.ctx),
		TsStart:       s.start.Format(time.RFC3339Nano),
		TsEnd:         time.Now().Format(time.RFC3339Nano),
		Command:       s.command,
		Args:          s.args,
		Result:        Result{Status: "success"},
	}
	if err != nil {
		r.Result = Result{
			Status: "fail",
			Error:  truncateError(err.Error()),
		}
	}

	for _, opt := range opts {
		opt(&r)
	}

	return w.Write(r)
}

// truncateError helper
func truncateError(s string) string {
	if len(s) <= MaxErrorLength {
		return s
	}
	return s[:MaxErrorLength-3] + "..."
}
