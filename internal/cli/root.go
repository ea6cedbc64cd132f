package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/propguard/propguard/internal/config"
	"github.com/propguard/propguard/internal/observability"
	"github.com/propguard/propguard/internal/observability/logging"
	otelobs "github.com/propguard/propguard/internal/observability/otel"
	"github.com/propguard/propguard/internal/observability/receipt"
	"github.com/propguard/propguard/internal/profile"
	"github.com/propguard/propguard/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "propguard",
	Short: "Per-app device identity policy",
	Long: `propguard: decides which device identity each app sees.
Applies the policy table to a process, guards key attestation and
watches the sensitive sign-in screen for the core host service.`,
	Version:            version.BuildVersion(),
	SilenceUsage:       true,
	PersistentPreRunE:  setupSession,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return closeSession(cmd.Context()) },
}

var (
	configFlag       string
	tableFlag        string
	codenameFlag     string
	logFormatFlag    string
	logLevelFlag     string
	logOutputFlag    string
	otelFlag         bool
	otelEndpointFlag string
	otelProtocolFlag string
	otelInsecureFlag bool
	receiptFlag      string
	receiptModeFlag  string
)

// session is the per-invocation state built before any subcommand runs.
type session struct {
	cfg      config.Config
	table    *profile.Table
	log      logging.Logger
	otel     *otelobs.Handle
	receipts receipt.Writer
}

// current is set by setupSession and released by closeSession.
var current *session

func Execute() {
	ctx := observability.WithOpID(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeSession(ctx); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", "", "Path to propguard.yaml")
	pf.StringVar(&tableFlag, "table", "", "Policy table file (default: embedded table)")
	pf.StringVar(&codenameFlag, "codename", "", "Override the real device codename")
	pf.StringVar(&logFormatFlag, "log-format", logging.FormatPretty, "Log format: pretty, jsonl or none")
	pf.StringVar(&logLevelFlag, "log-level", logging.LevelInfo, "Log level: debug, info, warn or error")
	pf.StringVar(&logOutputFlag, "log-output", "stderr", "Log output: stderr, stdout or a file path")
	pf.BoolVar(&otelFlag, "otel", false, "Enable OpenTelemetry tracing")
	pf.StringVar(&otelEndpointFlag, "otel-endpoint", "", "OTLP endpoint")
	pf.StringVar(&otelProtocolFlag, "otel-protocol", otelobs.ProtocolHTTP, "OTLP protocol: otlphttp or otlpgrpc")
	pf.BoolVar(&otelInsecureFlag, "otel-insecure", false, "Disable TLS for the OTLP exporter")
	pf.StringVar(&receiptFlag, "receipt", "", "Write a JSON receipt to this path")
	pf.StringVar(&receiptModeFlag, "receipt-mode", "overwrite", "Receipt mode: overwrite or append")

	rootCmd.AddCommand(GetApplyCmd())
	rootCmd.AddCommand(GetAttestCmd())
	rootCmd.AddCommand(GetWatchCmd())
	rootCmd.AddCommand(GetTableCmd())
	rootCmd.AddCommand(GetBypassCmd())
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and lays changed flags over it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("table") {
		cfg.Table = tableFlag
	}
	if flags.Changed("codename") {
		cfg.Device.Codename = codenameFlag
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormatFlag
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevelFlag
	}
	if flags.Changed("log-output") {
		cfg.Log.Output = logOutputFlag
	}
	if flags.Changed("otel") {
		cfg.Otel.Enabled = otelFlag
	}
	if flags.Changed("otel-endpoint") {
		cfg.Otel.Endpoint = otelEndpointFlag
	}
	if flags.Changed("otel-protocol") {
		cfg.Otel.Protocol = otelProtocolFlag
	}
	if flags.Changed("otel-insecure") {
		cfg.Otel.Insecure = otelInsecureFlag
	}
	if flags.Changed("receipt") {
		cfg.Receipt.Path = receiptFlag
	}
	if flags.Changed("receipt-mode") {
		cfg.Receipt.Mode = receiptModeFlag
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func loadTable(path string) (*profile.Table, error) {
	if path == "" {
		return profile.Default()
	}
	return profile.LoadFile(path)
}

func setupSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	table, err := loadTable(cfg.Table)
	if err != nil {
		return err
	}

	// subcommands keep their context between runs; start from the root
	ctx := cmd.Root().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if observability.OpID(ctx) == "" {
		ctx = observability.WithOpID(ctx)
	}

	s := &session{cfg: cfg, table: table}

	s.log, err = logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, s.log)

	if cfg.Otel.Enabled {
		s.otel, err = otelobs.Init(ctx, cfg.Otel, otelobs.Scope{Codename: cfg.Device.Codename, Table: table.Name})
		if err != nil {
			_ = s.log.Close()
			return err
		}
		ctx = otelobs.WithHandle(ctx, s.otel)
	}

	if cfg.Receipt.Path != "" {
		s.receipts, err = receipt.NewWriter(cfg.Receipt.Path, cfg.Receipt.Mode, receipt.Stamp{Codename: cfg.Device.Codename, Table: table.Name})
		if err != nil {
			_ = s.close(ctx)
			return err
		}
		ctx = receipt.WithWriter(ctx, s.receipts)
	}

	current = s
	cmd.SetContext(ctx)
	return nil
}

func closeSession(ctx context.Context) error {
	if current == nil {
		return nil
	}
	s := current
	current = nil
	return s.close(ctx)
}

func (s *session) close(ctx context.Context) error {
	var errs []error
	if s.receipts != nil {
		errs = append(errs, s.receipts.Close())
	}
	if s.otel != nil {
		errs = append(errs, s.otel.Shutdown(ctx))
	}
	if s.log != nil {
		errs = append(errs, s.log.Close())
	}
	return errors.Join(errs...)
}

// activeSession returns the state built for the running command.
func activeSession() (*session, error) {
	if current == nil {
		return nil, errors.New("propguard: session not initialized")
	}
	return current, nil
}
