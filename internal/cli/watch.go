package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/propguard/propguard/internal/focus"
	"github.com/propguard/propguard/internal/observability/logging"
	"github.com/propguard/propguard/internal/observability/receipt"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Feed focus changes to the sensitive-screen monitor",
	Long: `Watch applies the policy table to a simulated process, then reads one
top activity per line from stdin. When the process took the legacy path, the
first change of the sensitive screen's topmost state terminates it.

Example:
  printf 'com.android.settings/.Settings\n' | \
    propguard watch -p com.google.android.gms --process com.google.android.gms.unstable`,
	RunE: runWatch,
}

var (
	watchPackageFlag     string
	watchProcessFlag     string
	watchTopActivityFlag string
)

// watchTerminator runs after the termination notice is printed.
var watchTerminator focus.Terminator = focus.ProcessTerminator{}

func init() {
	watchCmd.Flags().StringVarP(&watchPackageFlag, "package", "p", "", "Package name of the process")
	watchCmd.Flags().StringVar(&watchProcessFlag, "process", "", "Process name (default: the package name)")
	watchCmd.Flags().StringVar(&watchTopActivityFlag, "top-activity", "", "Activity on top of the focused task at start")
	_ = watchCmd.MarkFlagRequired("package")
}

// GetWatchCmd export
func GetWatchCmd() *cobra.Command {
	return watchCmd
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "propguard watch", os.Args[1:])
	var receiptOpts []receipt.Option
	var terminated atomic.Bool
	defer func() {
		if !terminated.Load() {
			_ = sess.Finish(err, receiptOpts...)
		}
	}()

	s, err := activeSession()
	if err != nil {
		return err
	}
	log := logging.From(ctx)
	out := cmd.OutOrStdout()

	term := focus.TerminatorFunc(func(reason string) {
		terminated.Store(true)
		fmt.Fprintf(out, "%s✗ %s; terminating%s\n", colorRed, reason, colorReset)
		// receipt first; the terminator may not return
		_ = sess.Finish(nil, receiptOpts...)
		watchTerminator.Terminate(reason)
	})

	source := focus.NewLocalSource(watchTopActivityFlag)
	res, err := applyTarget(ctx, s, target{pkg: watchPackageFlag, process: watchProcessFlag}, source, term)
	if err != nil {
		return err
	}
	defer func() { _ = res.engine.Close() }()
	receiptOpts = append(receiptOpts, receipt.WithDecision(res.decision.Summary()))

	printDecision(out, res.decision)
	if !res.decision.Monitored {
		fmt.Fprintf(out, "%sNo monitor registered; nothing to watch%s\n", colorYellow, colorReset)
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		activity := strings.TrimSpace(scanner.Text())
		if activity == "" {
			continue
		}
		log.Debug("cli", "top activity changed", "activity", activity)
		source.SetTopActivity(activity)
		if terminated.Load() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read activities: %w", err)
	}
	fmt.Fprintf(out, "%s✓ Input closed without a focus flip%s\n", colorGreen, colorReset)
	return nil
}
