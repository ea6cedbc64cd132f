package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/propguard/propguard/internal/attest"
	"github.com/propguard/propguard/internal/focus"
	"github.com/propguard/propguard/internal/observability/receipt"
	"github.com/spf13/cobra"
)

var attestCmd = &cobra.Command{
	Use:   "attest",
	Short: "Check whether a process may request key attestation",
	Long: `Attest applies the policy table to a simulated process, then runs the
attestation guard against the given call stack frames. Exits 1 when the
request is vetoed.

Example:
  propguard attest -p com.google.android.gms --process com.google.android.gms.unstable \
    --frame com.google.ccc.abuse.droidguard.DroidGuard.run`,
	RunE: runAttest,
}

var (
	attestPackageFlag string
	attestProcessFlag string
	attestFramesFlag  []string
)

func init() {
	attestCmd.Flags().StringVarP(&attestPackageFlag, "package", "p", "", "Package name of the process")
	attestCmd.Flags().StringVar(&attestProcessFlag, "process", "", "Process name (default: the package name)")
	attestCmd.Flags().StringSliceVar(&attestFramesFlag, "frame", nil, "Call stack frame (repeatable)")
	_ = attestCmd.MarkFlagRequired("package")
}

// GetAttestCmd export
func GetAttestCmd() *cobra.Command {
	return attestCmd
}

func runAttest(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "propguard attest", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() {
		_ = sess.Finish(err, receiptOpts...)
	}()

	s, err := activeSession()
	if err != nil {
		return err
	}

	// The sign-in screen is never on top here, so the legacy path always
	// spoofs and the guard sees the flags it would in production.
	res, err := applyTarget(ctx, s, target{pkg: attestPackageFlag, process: attestProcessFlag}, focus.NewLocalSource(""), nil)
	if err != nil {
		return err
	}
	defer func() { _ = res.engine.Close() }()
	receiptOpts = append(receiptOpts, receipt.WithDecision(res.decision.Summary()))

	flags := res.proc.Flags
	guard := attest.NewGuard(flags, s.table.Legacy.IntegrityFrame)
	checkErr := guard.Check(ctx, attest.Frames(attestFramesFlag))

	receiptOpts = append(receiptOpts, receipt.WithAttestation(receipt.AttestationCheck{
		Allowed:         checkErr == nil,
		CoreService:     flags.CoreService(),
		InstallVerifier: flags.InstallVerifier(),
	}))

	out := cmd.OutOrStdout()
	printDecision(out, res.decision)
	if errors.Is(checkErr, attest.ErrUnsupportedOperation) {
		fmt.Fprintf(out, "\n%s✗ Key attestation blocked%s\n", colorRed, colorReset)
		return checkErr
	}
	if checkErr != nil {
		return checkErr
	}
	fmt.Fprintf(out, "\n%s✓ Key attestation allowed%s\n", colorGreen, colorReset)
	return nil
}
