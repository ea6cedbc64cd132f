// Package differ compares a device's real identity with the identity a
// process ends up reporting.
package differ

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wI2L/jsondiff"
)

// Change is one attribute whose reported value differs from the device's.
type Change struct {
	Key      string
	From     string
	To       string
	Severity SeverityLevel
}

// Result of an identity comparison
type Result struct {
	Patch   jsondiff.Patch
	Changes []Change
}

// HasChanges
func (r *Result) HasChanges() bool {
	return len(r.Changes) > 0
}

// Compare real and effective attribute snapshots.
func Compare(device, effective map[string]string) (*Result, error) {
	patch, err := jsondiff.Compare(device, effective)
	if err != nil {
		return nil, fmt.Errorf("failed to diff identity: %w", err)
	}

	result := &Result{Patch: patch}
	for _, op := range patch {
		key := unescapePointer(strings.TrimPrefix(op.Path, "/"))
		c := Change{Key: key, From: device[key], Severity: GetSeverity(key)}
		switch op.Type {
		case jsondiff.OperationAdd, jsondiff.OperationReplace:
			c.To = fmt.Sprint(op.Value)
		case jsondiff.OperationRemove:
			c.To = ""
		default:
			continue
		}
		result.Changes = append(result.Changes, c)
	}

	sort.Slice(result.Changes, func(i, j int) bool {
		return result.Changes[i].Key < result.Changes[j].Key
	})
	return result, nil
}

// Translate changes to english
func Translate(changes []Change) []string {
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		switch {
		case c.From == "":
			lines = append(lines, fmt.Sprintf("%s set to %q.", c.Key, c.To))
		case c.To == "":
			lines = append(lines, fmt.Sprintf("%s cleared (was %q).", c.Key, c.From))
		default:
			lines = append(lines, fmt.Sprintf("%s spoofed: %q -> %q.", c.Key, c.From, c.To))
		}
	}
	return lines
}

// unescapePointer per RFC 6901
func unescapePointer(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}
