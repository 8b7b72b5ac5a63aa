// Package cli implements the protopred command-line interface: global flag
// registration, configuration loading, logger and client initialisation,
// and the predict/models subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/protoqsar/protopred-go/internal/config"
	"github.com/protoqsar/protopred-go/internal/logging"
	"github.com/protoqsar/protopred-go/internal/metrics"
	"github.com/protoqsar/protopred-go/pkg/client"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for cliContext.
type cliContextKey struct{}

// rootOptions holds global CLI flags.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string
	Verbose    bool
	Timeout    time.Duration
	BaseURL    string
}

// cliContext carries initialised dependencies through the command tree.
type cliContext struct {
	Config *config.Config
	Logger logging.Logger
	Client *client.Client
	Output string
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "protopred",
		Short: "ProtoPRED CLI — chemical property predictions from the command line",
		Long: "protopred submits molecules to the ProtoPRED prediction service and\n" +
			"prints the predicted physico-chemical and ADME properties.\n\n" +
			"Credentials are read from the config file or PROTOPRED_ACCOUNT_*\n" +
			"environment variables; they are never accepted as flags.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./protopred.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "table", "output format (table, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.DurationVar(&opts.Timeout, "timeout", 0, "per-attempt request timeout (default from config)")
	pf.StringVar(&opts.BaseURL, "base-url", "", "API base URL (default from config)")

	cmd.AddCommand(
		newPredictCmd(),
		newModelsCmd(),
	)

	return cmd
}

// persistentPreRun initialises config, logger, and client, then stores the
// cliContext on the command's context. The models subcommand works without
// credentials; everything else needs a fully-initialised client.
func persistentPreRun(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		if cmd.Name() != "models" {
			return fmt.Errorf("config initialization failed: %w", err)
		}
		// The catalog listing is offline; run it on defaults even when no
		// credentials are configured.
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
		applyFlagOverrides(cfg, opts)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &cliContext{
		Config: cfg,
		Logger: logger,
		Output: opts.Output,
	}

	apiClient, err := initClient(cfg, logger)
	if err != nil {
		if cmd.Name() != "models" {
			return err
		}
		logger.Warnf("API client unavailable: %v", err)
	} else {
		cliCtx.Client = apiClient
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	cmd.SetContext(ctx)
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.ConfigPath != "":
		cfg, err = config.Load(opts.ConfigPath)
	default:
		if path := findConfigFile(); path != "" {
			cfg, err = config.Load(path)
		} else {
			cfg, err = config.LoadFromEnv()
		}
	}
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg, opts)
	return cfg, nil
}

// applyFlagOverrides lets global flags win over file and environment
// settings.
func applyFlagOverrides(cfg *config.Config, opts *rootOptions) {
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if opts.Timeout > 0 {
		cfg.Client.Timeout = opts.Timeout
	}
	if opts.BaseURL != "" {
		cfg.Client.BaseURL = opts.BaseURL
	}
}

// findConfigFile returns the first config file present on the standard
// search path, or "" when none exists.
func findConfigFile() string {
	paths := []string{"./protopred.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".protopred", "config.yaml"))
	}
	paths = append(paths, "/etc/protopred/config.yaml")

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// initClient creates the SDK client from configuration. When the metrics
// section is enabled, a Prometheus recorder is wired into the client and
// exposed on the configured address for the lifetime of the process.
func initClient(cfg *config.Config, logger logging.Logger) (*client.Client, error) {
	opts := []client.Option{
		client.WithBaseURL(cfg.Client.BaseURL),
		client.WithTimeout(cfg.Client.Timeout),
		client.WithRetry(cfg.Client.MaxRetries, cfg.Client.RetryDelay),
	}
	if cfg.Client.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(cfg.Client.UserAgent))
	}
	if cfg.Metrics.Enabled {
		rec := metrics.NewRecorder()
		if _, err := serveMetrics(cfg.Metrics.Addr, rec, logger); err != nil {
			return nil, err
		}
		opts = append(opts, client.WithMetrics(rec))
	}
	return client.NewClient(client.Credentials{
		AccountToken:     cfg.Account.Token,
		AccountSecretKey: cfg.Account.SecretKey,
		AccountUser:      cfg.Account.User,
	}, opts...)
}

// serveMetrics exposes the recorder's registry on addr and returns the
// bound address. Binding happens synchronously so a bad address fails the
// command; serving runs in the background until the process exits.
func serveMetrics(addr string, rec *metrics.Recorder, logger logging.Logger) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("metrics listener on %s failed: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	go func() {
		if serveErr := http.Serve(ln, mux); serveErr != nil {
			logger.Errorf("metrics server stopped: %v", serveErr)
		}
	}()

	bound := ln.Addr().String()
	logger.Infof("metrics exposed on http://%s/metrics", bound)
	return bound, nil
}

// getCLIContext extracts the cliContext from a cobra command's context.
func getCLIContext(cmd *cobra.Command) (*cliContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*cliContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("CLI context not initialised")
	}
	return cliCtx, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

// printJSON outputs data as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// formatTable renders headers and rows as an aligned ASCII table.
func formatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")

	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
