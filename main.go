package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// cliFlags are applied on top of the loaded configuration
type cliFlags struct {
	backend  string
	delay    string
	endpoint string
	theme    string
	locale   string
	noAnim   bool
	logFile  string
	verbose  bool
	jsonOut  bool
	checkUpd bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprint(os.Stderr, FormatUserError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "riskscope",
		Short: "Protocol risk assessment in the terminal",
		Long: `riskscope asks a scoring service for a risk assessment of a DeFi protocol
and presents the score, key metrics, findings and recommendations.

Configuration is read from ~/.riskscope/settings.yaml and RISKSCOPE_* variables.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.backend, "backend", "", "analysis backend: simulated, http or llm")
	pf.StringVar(&flags.delay, "delay", "", "simulated backend latency (e.g. 2s)")
	pf.StringVar(&flags.endpoint, "endpoint", "", "scoring service URL for the http backend")
	pf.StringVar(&flags.locale, "locale", "", "number formatting locale (BCP 47, e.g. de-DE)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVar(&flags.theme, "theme", "", "color theme")
	rootCmd.Flags().BoolVar(&flags.noAnim, "no-anim", false, "disable animations")
	rootCmd.Flags().StringVar(&flags.logFile, "log-file", "", "log file (default ~/.riskscope/riskscope.log)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <protocol>",
		Short: "Assess one protocol and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, flags, args[0])
		},
	}
	analyzeCmd.Flags().BoolVar(&flags.jsonOut, "json", false, "print the assessment as JSON")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "riskscope %s (built %s)\n", Version, BuildDate)
			if flags.checkUpd {
				printUpdateNotice(cmd.Context(), out)
			}
			return nil
		},
	}
	versionCmd.Flags().BoolVar(&flags.checkUpd, "check", false, "check for a newer release")

	var setTheme string
	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "List available color themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if setTheme != "" {
				return saveTheme(cmd.OutOrStdout(), setTheme)
			}
			for _, name := range AvailableThemes() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	themesCmd.Flags().StringVar(&setTheme, "set", "", "save a theme as the default in settings.yaml")

	rootCmd.AddCommand(analyzeCmd, versionCmd, themesCmd)
	return rootCmd
}

// loadConfig layers command-line flags over LoadConfig. A malformed settings
// file is returned as a warning alongside the defaults; err is set only for
// invalid flags.
func loadConfig(flags *cliFlags) (cfg *Config, warning error, err error) {
	cfg, warning = LoadConfig()

	if flags.backend != "" {
		cfg.Backend = ParseBackendType(flags.backend)
	}
	if flags.delay != "" {
		d, perr := parseDelay(flags.delay)
		if perr != nil {
			return nil, warning, perr
		}
		cfg.Delay = d
	}
	if flags.endpoint != "" {
		cfg.Endpoint = flags.endpoint
	}
	if flags.theme != "" {
		cfg.Theme = flags.theme
	}
	if flags.locale != "" {
		cfg.Locale = flags.locale
	}
	if flags.noAnim {
		cfg.Animations = false
	}
	if flags.logFile != "" {
		cfg.LogFile = flags.logFile
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, warning, nil
}

func runTUI(cmd *cobra.Command, flags *cliFlags) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return ErrNotATerminal()
	}

	cfg, warning, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger, closeLog, err := newFileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if warning != nil {
		logger.Warn("settings ignored", "err", warning)
	}

	return StartTUI(cmd.Context(), cfg, logger)
}

func runAnalyze(cmd *cobra.Command, flags *cliFlags, protocol string) error {
	stderr := cmd.ErrOrStderr()
	logger := log.NewWithOptions(stderr, log.Options{ReportTimestamp: false})

	cfg, warning, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.ParseLogLevel())
	if warning != nil {
		logger.Warn("settings ignored", "err", warning)
	}

	analyzer, err := NewAnalyzer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	orch := NewOrchestrator(OrchestratorOptions{
		Analyzer: analyzer,
		Logger:   logger,
		Locale:   cfg.Locale,
		SnapAnim: true,
	})
	defer orch.Destroy()

	var spin *Spinner
	if !flags.jsonOut && isTerminalWriter(stderr) {
		spin = NewSpinner(stderr, "Analyzing "+protocol+"…", ThemeFor(cfg.Theme))
		spin.Start()
	}

	st, err := orch.Run(cmd.Context(), protocol)
	if spin != nil {
		if err != nil {
			spin.Fail("Analysis failed")
		} else {
			spin.Success("Analysis complete")
		}
	}
	if err != nil {
		return err
	}
	if st.Phase != PhaseSuccess {
		return fmt.Errorf("analysis ended in %s", st.Phase)
	}

	out := cmd.OutOrStdout()
	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st.Result)
	}

	report, _ := orch.Report()
	return WriteReport(out, st.Query.String(), report)
}

// saveTheme stores name as the display theme in the settings file
func saveTheme(w io.Writer, name string) error {
	if _, ok := ThemePresets[name]; !ok {
		return &UserError{
			Message:    "Unknown theme " + name,
			Suggestion: "Run 'riskscope themes' to list the available themes.",
		}
	}

	settings, err := LoadSettings()
	if err != nil {
		return err
	}
	settings.Display.Theme = name
	if err := SaveSettings(settings); err != nil {
		return &UserError{Message: "Cannot save settings", Cause: err}
	}

	path, _ := SettingsPath()
	fmt.Fprintf(w, "Theme set to %s (%s)\n", name, path)
	return nil
}

// newFileLogger opens the TUI log file; the TUI owns stdout
func newFileLogger(cfg *Config) (*log.Logger, func(), error) {
	path := cfg.LogFile
	if path == "" {
		p, err := DefaultLogPath()
		if err != nil {
			return log.New(io.Discard), func() {}, nil
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, &UserError{
			Message:    "Cannot create log directory",
			Cause:      err,
			Suggestion: "Pass --log-file with a writable path.",
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, &UserError{
			Message:    "Cannot open log file " + path,
			Cause:      err,
			Suggestion: "Pass --log-file with a writable path.",
		}
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "riskscope",
		Level:           cfg.ParseLogLevel(),
	})
	return logger, func() { _ = f.Close() }, nil
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseDelay(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil && d < 0 {
		err = errors.New("negative duration")
	}
	if err != nil {
		return 0, &UserError{
			Message:    "Invalid --delay " + s,
			Cause:      err,
			Suggestion: "Use a Go duration such as 500ms or 2s.",
		}
	}
	return d, nil
}
