// Command hindinames transliterates English names into Hindi, filters
// scored name pairs and reconciles them into canonical spellings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/hindinames/internal/config"
	"github.com/MrWong99/hindinames/internal/dataset"
	"github.com/MrWong99/hindinames/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "hindinames: %v\n", err)
		}
		return 1
	}
	return 0
}

// cli carries the state shared by every subcommand. It is filled in by the
// root command's PersistentPreRunE.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string

	cfg      *config.Config
	level    *slog.LevelVar
	registry *config.Registry
	shutdown func(context.Context) error
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr, level: new(slog.LevelVar)}

	root := &cobra.Command{
		Use:   "hindinames",
		Short: "English to Hindi name transliteration and canonicalization",
		Long: `hindinames renders English names in Devanagari through their phonemes,
scores and filters observed English-Hindi name pairs, and reconciles the
surviving pairs into one canonical Hindi spelling per name.

Pipeline:
  hindinames score        --in pairs.json    --out scored.json
  hindinames filter       --in scored.json   --out filtered.json
  hindinames tiers        --in filtered.json --out-dir tiers/
  hindinames canonicalize --in tiers/high.json --out canonical.json`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c.shutdown == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
			defer cancel()
			return c.shutdown(ctx)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to the YAML configuration file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log_level from the config (debug, info, warn, error)")

	root.AddCommand(
		c.renderCmd(),
		c.scoreCmd(),
		c.filterCmd(),
		c.tiersCmd(),
		c.canonicalizeCmd(),
		c.reportCmd(),
		c.serveCmd(),
	)
	return root
}

// setup loads the configuration, installs the logger and starts the
// telemetry providers.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.configPath == "" {
		c.cfg = config.Default()
	} else {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file %q not found", c.configPath)
			}
			return err
		}
		c.cfg = cfg
	}
	if c.logLevel != "" {
		lvl := config.LogLevel(c.logLevel)
		if !lvl.IsValid() {
			return fmt.Errorf("--log-level %q is invalid; valid values: debug, info, warn, error", c.logLevel)
		}
		c.cfg.LogLevel = lvl
	}

	c.level.Set(slogLevel(c.cfg.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: c.level})))

	shutdown, err := observe.InitProvider(cmd.Context(), observe.ProviderConfig{ServiceName: "hindinames"})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	c.shutdown = shutdown

	c.registry = config.NewRegistry()
	registerBuiltinSources(c.registry)

	slog.Debug("configuration loaded",
		"config", c.configPath,
		"log_level", c.cfg.LogLevel,
		"sources", c.cfg.SourceNames(),
		"extra_rules", c.cfg.Render.ExtraRules,
	)
	return nil
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// readOptions returns the dataset reader options implied by the config.
func (c *cli) readOptions() []dataset.ReadOption {
	if c.cfg.Filter.NFC {
		return []dataset.ReadOption{dataset.WithNFC()}
	}
	return nil
}

// output writes v as JSON to path, or to stdout when path is empty.
func (c *cli) output(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(c.stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// input opens path, or returns stdin when path is "-".
func input(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	return f, nil
}
