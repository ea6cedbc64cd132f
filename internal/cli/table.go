package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/propguard/propguard/internal/profile"
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Show the policy table in use",
	Long: `Table lists the profiles and package groups of the active policy table
in priority order.

With --lint, packages claimed by more than one rule are reported. Overlaps
are legal; the first matching rule wins.`,
	RunE: runTable,
}

var (
	tableLintFlag    bool
	tableProfileFlag string
)

func init() {
	tableCmd.Flags().BoolVar(&tableLintFlag, "lint", false, "Report packages claimed by more than one rule")
	tableCmd.Flags().StringVar(&tableProfileFlag, "profile", "", "Print the attributes of one profile")
}

// GetTableCmd export
func GetTableCmd() *cobra.Command {
	return tableCmd
}

func runTable(cmd *cobra.Command, args []string) error {
	s, err := activeSession()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	t := s.table

	if tableProfileFlag != "" {
		p, ok := t.Profile(tableProfileFlag)
		if !ok {
			return fmt.Errorf("%w: %s", profile.ErrUnknownProfile, tableProfileFlag)
		}
		printProfile(out, p)
		return nil
	}

	if tableLintFlag {
		printOverlaps(out, t.Lint())
		return nil
	}

	fmt.Fprintf(out, "%sTable:%s %s\n", colorBold, colorReset, t.Name)
	fmt.Fprintf(out, "Generic: %s\n", t.Generic.Name)
	fmt.Fprintf(out, "Profiles: %s\n", strings.Join(t.ProfileNames(), ", "))
	fmt.Fprintf(out, "Keep: %s\n", joinOrNone(t.KeepPackages()))

	fmt.Fprintf(out, "\n%sLegacy%s\n", colorBold, colorReset)
	fmt.Fprintf(out, "  service:    %s\n", t.Legacy.ServicePackage)
	fmt.Fprintf(out, "  profile:    %s (initial sdk %d)\n", t.Legacy.Profile.Name, t.Legacy.InitialSDK)
	fmt.Fprintf(out, "  processes:  %s\n", joinOrNone(t.Legacy.ProcessMarkers))
	fmt.Fprintf(out, "  sensitive:  %s\n", t.Legacy.SensitiveActivity)

	fmt.Fprintf(out, "\n%sGroups%s\n", colorBold, colorReset)
	for i, g := range t.Groups() {
		pkgs := g.Packages.Packages()
		fmt.Fprintf(out, "  %2d. %-12s %d package(s)", i+1, g.Profile.Name, len(pkgs))
		if expr := g.Packages.Expr(); expr != "" {
			fmt.Fprintf(out, ", match: %s", expr)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printProfile(w io.Writer, p profile.Profile) {
	fmt.Fprintf(w, "%s%s%s\n", colorBold, p.Name, colorReset)
	for _, a := range p.Attrs() {
		fmt.Fprintf(w, "  %-12s %s\n", a.Key, a.Value)
	}
}

func printOverlaps(w io.Writer, overlaps []profile.Overlap) {
	if len(overlaps) == 0 {
		fmt.Fprintf(w, "%s✓ No package is claimed by more than one rule%s\n", colorGreen, colorReset)
		return
	}
	fmt.Fprintf(w, "%s%d overlapping package(s)%s\n", colorYellow, len(overlaps), colorReset)
	for _, o := range overlaps {
		fmt.Fprintf(w, "  %s: %s (resolves to %s)\n", o.Package, strings.Join(o.Rules, ", "), o.Rules[0])
	}
}
