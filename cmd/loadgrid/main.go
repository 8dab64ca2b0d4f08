package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/loadgrid/internal/config"
	"github.com/studiowebux/loadgrid/internal/grid"
	"github.com/studiowebux/loadgrid/internal/report"
	"github.com/studiowebux/loadgrid/internal/runner"
	"github.com/studiowebux/loadgrid/internal/tui"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loadgrid <url>",
	Short: "loadgrid - concurrency-load visualizer for HTTP benchmarking",
	Long: `loadgrid fires concurrent workers against a target URL and renders every
individual request as a live cell in a grid: rows are workers, columns are
each worker's request sequence. Cells are colored by lifecycle state and
response class, with aggregate throughput underneath.

Examples:
  loadgrid https://example.com                  # 10 workers x 20 requests, TUI
  loadgrid -c 25 -n 40 https://example.com      # 25 workers x 40 requests
  loadgrid --no-ui https://example.com          # console reporter only
  loadgrid --config bench.yaml                  # settings from a YAML file`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, args)
		if err != nil {
			return err
		}
		return runBenchmark(cfg)
	},
}

var (
	flagConfig      string
	flagConcurrency int
	flagRequests    int
	flagScale       int
	flagMethod      string
	flagBody        string
	flagHeaders     []string
	flagRampUp      string
	flagTimeout     string
	flagNoUI        bool
)

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	rootCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", config.DefaultConcurrency, "Number of concurrent workers (grid rows)")
	rootCmd.Flags().IntVarP(&flagRequests, "requests", "n", config.DefaultRequests, "Requests per worker (grid columns)")
	rootCmd.Flags().IntVar(&flagScale, "scale", config.DefaultScale, "Cell width in terminal columns")
	rootCmd.Flags().StringVarP(&flagMethod, "method", "X", "GET", "HTTP method")
	rootCmd.Flags().StringVarP(&flagBody, "body", "b", "", "Request body")
	rootCmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", []string{}, "Request header (key: value), can be repeated")
	rootCmd.Flags().StringVar(&flagRampUp, "ramp-up", "", "Ramp-up duration spreading worker start times (e.g. 5s)")
	rootCmd.Flags().StringVar(&flagTimeout, "timeout", "", "Per-request timeout (e.g. 10s)")
	rootCmd.Flags().BoolVar(&flagNoUI, "no-ui", false, "Disable the TUI, print console reports only")
}

// buildConfig merges the optional YAML file with command-line flags.
// Flags win over the file, the file wins over defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Target = args[0]
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if cmd.Flags().Changed("requests") {
		cfg.Requests = flagRequests
	}
	if cmd.Flags().Changed("scale") {
		cfg.Scale = flagScale
	}
	if cmd.Flags().Changed("method") {
		cfg.Method = flagMethod
	}
	if cmd.Flags().Changed("body") {
		cfg.Body = flagBody
	}
	if cmd.Flags().Changed("no-ui") {
		cfg.NoUI = flagNoUI
	}
	if flagRampUp != "" {
		d, err := parseDuration("ramp-up", flagRampUp)
		if err != nil {
			return nil, err
		}
		cfg.RampUp = d
	}
	if flagTimeout != "" {
		d, err := parseDuration("timeout", flagTimeout)
		if err != nil {
			return nil, err
		}
		cfg.RequestTimeout = d
	}
	for _, h := range flagHeaders {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q (expected key: value)", h)
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(name, value string) (d time.Duration, err error) {
	d, err = time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration %q: %w", name, value, err)
	}
	return d, nil
}

// runBenchmark wires grid, runner, and the chosen display consumer
func runBenchmark(cfg *config.Config) error {
	g, err := grid.New(cfg.Concurrency, cfg.Requests)
	if err != nil {
		return err
	}

	r, err := runner.New(cfg, g)
	if err != nil {
		return err
	}

	if cfg.NoUI {
		return runConsole(cfg, g, r)
	}
	return runTUI(cfg, g, r)
}

// runTUI runs the benchmark behind the grid TUI, then prints the final
// summary to stdout once the terminal is back in normal mode
func runTUI(cfg *config.Config, g *grid.Grid, r *runner.Runner) error {
	if err := tui.Run(cfg, g, r.Run); err != nil {
		return err
	}
	report.New(g, os.Stdout, cfg.ReportInterval).PrintSummary(g.Snapshot())
	return nil
}

// runConsole runs the benchmark with the polling console reporter. The
// reporter's first poll doubles as the prewarm pass, so the runner's
// barrier releases immediately after the reporter comes up.
func runConsole(cfg *config.Config, g *grid.Grid, r *runner.Runner) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := g.WaitRendered(ctx); err != nil {
			return err
		}
		return r.Run(ctx)
	})
	eg.Go(func() error {
		return report.New(g, os.Stdout, cfg.ReportInterval).Run(ctx)
	})

	// An interrupt is a user-initiated stop, not a failure
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
