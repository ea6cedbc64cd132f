package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/propguard/propguard/internal/differ"
	"github.com/propguard/propguard/internal/spoof"
)

// ANSI color codes
const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

func printDecision(w io.Writer, d spoof.Decision) {
	fmt.Fprintf(w, "%sPackage:%s %s (%s)\n", colorBold, colorReset, d.Package, d.Process)
	fmt.Fprintf(w, "Branch:  %s\n", d.Branch)
	if d.Profile != "" {
		fmt.Fprintf(w, "Profile: %s\n", d.Profile)
	}
	if d.Monitored {
		fmt.Fprintf(w, "Monitor: registered (sensitive screen on top: %t)\n", d.SensitiveTop)
	}
	for _, err := range d.Errors {
		fmt.Fprintf(w, "%s! %v%s\n", colorYellow, err, colorReset)
	}
}

func printIdentity(w io.Writer, snapshot map[string]string) {
	keys := make([]string, 0, len(snapshot))
	width := 0
	for k := range snapshot {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n%sEffective identity%s\n", colorBold, colorReset)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-*s  %s\n", width, k, snapshot[k])
	}
}

func printIdentityDiff(w io.Writer, result *differ.Result) {
	if !result.HasChanges() {
		fmt.Fprintf(w, "\n%s✓ Reports the real device identity%s\n", colorGreen, colorReset)
		return
	}

	fmt.Fprintf(w, "\n%sSpoofed attributes%s\n", colorBold, colorReset)
	lines := differ.Translate(result.Changes)
	for i, c := range result.Changes {
		fmt.Fprintf(w, "  %s• %s%s\n", getColorForSeverity(c.Severity), lines[i], colorReset)
	}
}

func getColorForSeverity(severity differ.SeverityLevel) string {
	switch severity {
	case differ.SeverityCritical:
		return colorRed
	case differ.SeverityModerate:
		return colorYellow
	case differ.SeveritySafe:
		return colorGreen
	default:
		return colorReset
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
