// Package receipt writes evidence of each identity decision for later audit.
package receipt

// ReceiptSchemaVersion current
const ReceiptSchemaVersion = "1.0"

// Receipt structure
type Receipt struct {
	SchemaVersion string            `json:"schema_version"`
	OpID          string            `json:"op_id"`
	TsStart       string            `json:"ts_start"`
	TsEnd         string            `json:"ts_end"`
	Command       string            `json:"command"`
	Args          []string          `json:"args"`
	Result        Result            `json:"result"`
	Device        string            `json:"device,omitempty"`
	Table         string            `json:"table,omitempty"`
	Decision      *DecisionSummary  `json:"decision,omitempty"`
	Attestation   *AttestationCheck `json:"attestation,omitempty"`
	Identity      map[string]string `json:"identity,omitempty"`
}

// Result status
type Result struct {
	Status string `json:"status"` // "success" or "fail"
	Error  string `json:"error,omitempty"`
}

// DecisionSummary of one engine run
type DecisionSummary struct {
	Package     string   `json:"package"`
	Process     string   `json:"process"`
	Branch      string   `json:"branch"`
	Profile     string   `json:"profile,omitempty"`
	KeysWritten []string `json:"keys_written,omitempty"`
	KeysSkipped []string `json:"keys_skipped,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// AttestationCheck outcome
type AttestationCheck struct {
	Allowed         bool `json:"allowed"`
	CoreService     bool `json:"core_service"`
	InstallVerifier bool `json:"install_verifier"`
}
