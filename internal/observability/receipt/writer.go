package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrInvalidReceipt is returned for receipts whose sections contradict
// each other. Nothing is written.
var ErrInvalidReceipt = errors.New("invalid receipt")

// Writer for receipts
type Writer interface {
	Write(r Receipt) error
	Close() error
}

type Mode string

const (
	// ModeOverwrite truncates the file and writes a single JSON object.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend writes JSONL, one receipt per line.
	ModeAppend Mode = "append"
)

// Stamp identifies the device and table a process decided against. A Writer
// fills these into receipts that leave them empty.
type Stamp struct {
	Codename string
	Table    string
}

type fileWriter struct {
	mu    sync.Mutex
	file  *os.File
	mode  Mode
	stamp Stamp
}

// NewWriter opens path, creating parent directories. Unknown modes overwrite.
func NewWriter(path string, mode string, stamp Stamp) (Writer, error) {
	m := Mode(mode)
	flag := os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	if m == ModeAppend {
		flag = os.O_CREATE | os.O_APPEND | os.O_WRONLY
	} else {
		m = ModeOverwrite
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for receipt: %w", err)
		}
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt file: %w", err)
	}
	return &fileWriter{file: f, mode: m, stamp: stamp}, nil
}

func (w *fileWriter) Write(r Receipt) error {
	if r.Device == "" {
		r.Device = w.stamp.Codename
	}
	if r.Table == "" {
		r.Table = w.stamp.Table
	}
	if err := Validate(r); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}
	if w.mode == ModeAppend {
		data = append(data, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

func (w *fileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Validate rejects receipts that could not come from a real decision: a
// decision without a branch, or an attestation outcome that disagrees with
// its flags or with the command result.
func Validate(r Receipt) error {
	if r.Command == "" {
		return fmt.Errorf("%w: missing command", ErrInvalidReceipt)
	}
	switch r.Result.Status {
	case "success", "fail":
	default:
		return fmt.Errorf("%w: result status %q", ErrInvalidReceipt, r.Result.Status)
	}
	if d := r.Decision; d != nil && d.Branch == "" {
		return fmt.Errorf("%w: decision for %q has no branch", ErrInvalidReceipt, d.Package)
	}
	if a := r.Attestation; a != nil {
		switch {
		case a.Allowed && a.InstallVerifier:
			return fmt.Errorf("%w: install verifier allowed to attest", ErrInvalidReceipt)
		case !a.Allowed && !a.CoreService && !a.InstallVerifier:
			return fmt.Errorf("%w: attestation blocked without a spoofed process", ErrInvalidReceipt)
		case !a.Allowed && r.Result.Status == "success":
			return fmt.Errorf("%w: blocked attestation recorded as success", ErrInvalidReceipt)
		}
	}
	return nil
}

type writerKey struct{}

// WithWriter enables receipts for ctx.
func WithWriter(ctx context.Context, w Writer) context.Context {
	return context.WithValue(ctx, writerKey{}, w)
}

// From returns nil when receipts are off.
func From(ctx context.Context) Writer {
	w, _ := ctx.Value(writerKey{}).(Writer)
	return w
}
