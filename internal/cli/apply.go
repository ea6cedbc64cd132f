package cli

import (
	"fmt"
	"os"

	"github.com/propguard/propguard/internal/differ"
	"github.com/propguard/propguard/internal/focus"
	"github.com/propguard/propguard/internal/observability/logging"
	"github.com/propguard/propguard/internal/observability/receipt"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the policy table to a simulated process start",
	Long: `Apply seeds an identity store from the configured device, runs the
policy engine for one package and prints the identity the process would see.

Example:
  propguard apply --package com.google.android.apps.photos
  propguard apply -p com.google.android.gms --process com.google.android.gms.unstable`,
	RunE: runApply,
}

var (
	applyPackageFlag     string
	applyProcessFlag     string
	applyTopActivityFlag string
)

func init() {
	applyCmd.Flags().StringVarP(&applyPackageFlag, "package", "p", "", "Package name of the starting process")
	applyCmd.Flags().StringVar(&applyProcessFlag, "process", "", "Process name (default: the package name)")
	applyCmd.Flags().StringVar(&applyTopActivityFlag, "top-activity", "", "Activity on top of the focused task at start")
	_ = applyCmd.MarkFlagRequired("package")
}

// GetApplyCmd export
func GetApplyCmd() *cobra.Command {
	return applyCmd
}

func runApply(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "propguard apply", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() {
		_ = sess.Finish(err, receiptOpts...)
	}()

	s, err := activeSession()
	if err != nil {
		return err
	}
	log := logging.From(ctx)
	log.Event(ctx, "cli.apply.start", map[string]any{"package": applyPackageFlag})

	source := focus.NewLocalSource(applyTopActivityFlag)
	res, err := applyTarget(ctx, s, target{pkg: applyPackageFlag, process: applyProcessFlag}, source, nil)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := res.engine.Close(); closeErr != nil {
			log.Warn("cli", "failed to release monitor", "error", closeErr.Error())
		}
	}()

	effective := res.proc.Store.Snapshot()
	receiptOpts = append(receiptOpts,
		receipt.WithDecision(res.decision.Summary()),
		receipt.WithIdentity(effective),
	)

	diff, err := differ.Compare(res.device, effective)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printDecision(out, res.decision)
	printIdentity(out, effective)
	printIdentityDiff(out, diff)

	log.Event(ctx, "cli.apply.complete", map[string]any{
		"branch":  string(res.decision.Branch),
		"profile": res.decision.Profile,
		"changed": len(diff.Changes),
	})
	if len(res.decision.Errors) > 0 {
		fmt.Fprintf(out, "\n%s%d attribute write(s) failed%s\n", colorYellow, len(res.decision.Errors), colorReset)
	}
	return nil
}
