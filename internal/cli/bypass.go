package cli

import (
	"fmt"
	"os"

	"github.com/propguard/propguard/internal/observability/receipt"
	"github.com/propguard/propguard/internal/permission"
	"github.com/spf13/cobra"
)

var bypassCmd = &cobra.Command{
	Use:   "bypass",
	Short: "Check whether a caller may skip the task permission check",
	Long: `Bypass answers whether the calling UID belongs to the core host service
and may therefore skip the task-management permission check. Package UIDs
come from package_uids in the config file.`,
	RunE: runBypass,
}

var (
	bypassCallingUIDFlag int
	bypassServiceFlag    string
)

func init() {
	bypassCmd.Flags().IntVar(&bypassCallingUIDFlag, "calling-uid", -1, "UID of the caller")
	bypassCmd.Flags().StringVar(&bypassServiceFlag, "service", "", "Service package (default: the table's core service)")
	_ = bypassCmd.MarkFlagRequired("calling-uid")
}

// GetBypassCmd export
func GetBypassCmd() *cobra.Command {
	return bypassCmd
}

func runBypass(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "propguard bypass", os.Args[1:])
	defer func() { _ = sess.Finish(err) }()

	s, err := activeSession()
	if err != nil {
		return err
	}

	service := bypassServiceFlag
	if service == "" {
		service = s.table.Legacy.ServicePackage
	}

	out := cmd.OutOrStdout()
	if permission.ShouldBypassTaskPermission(ctx, bypassCallingUIDFlag, service, permission.StaticResolver(s.cfg.PackageUIDs)) {
		fmt.Fprintf(out, "%s✓ uid %d is %s: permission check bypassed%s\n", colorGreen, bypassCallingUIDFlag, service, colorReset)
		return nil
	}
	fmt.Fprintf(out, "%s✗ uid %d is not %s: permission check required%s\n", colorRed, bypassCallingUIDFlag, service, colorReset)
	return nil
}
