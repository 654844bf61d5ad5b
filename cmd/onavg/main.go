package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/onavg/averaging"
	"github.com/meenmo/onavg/cmd/onavg/internal/scenario"
	"github.com/meenmo/onavg/config"
	"github.com/meenmo/onavg/fixingstore"
	"github.com/meenmo/onavg/logging"
	"github.com/meenmo/onavg/ratesource"
)

// errReported marks failures already written to stdout as JSON.
var errReported = errors.New("reported")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, errReported) {
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fmt.Fprint(stderr, root.UsageString())
		return 2
	}
	return 0
}

// app carries the state shared by the subcommands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	debug      bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "onavg",
		Short: "Overnight averaged rate calculator",
		Long: `onavg computes the averaged overnight rate of a coupon period with rate cut-off,
and its sensitivities to overnight rates, curve parameters and OIS market quotes.

Scenarios are YAML files (or stdin); results are written to stdout as JSON.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(newRateCmd(a), newRiskCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging.Development || a.debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// commonFlags are shared by rate and risk.
type commonFlags struct {
	scenario string
	method   string
	dsn      string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.scenario, "scenario", "s", "", "YAML scenario path (reads stdin when empty)")
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "computation method: approx or forward (default from config)")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "PostgreSQL DSN for fixings (default from config)")
}

// prepared is a scenario ready to be evaluated.
type prepared struct {
	method      string
	computation averaging.Computation
	inputs      *scenario.Inputs
}

func (a *app) prepare(ctx context.Context, f commonFlags) (*prepared, error) {
	method := strings.TrimSpace(f.method)
	if method == "" {
		method = a.cfg.Rate.Method
	}
	computation, err := averaging.ComputationByName(method)
	if err != nil {
		return nil, err
	}

	data, err := readInput(a.stdin, strings.TrimSpace(f.scenario))
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := scenario.Parse(data)
	if err != nil {
		return nil, err
	}

	stored, err := a.loadFixings(ctx, sc, f.dsn)
	if err != nil {
		return nil, err
	}

	inputs, err := sc.Build(a.cfg.CurveOptions(), stored)
	if err != nil {
		return nil, err
	}
	a.log.Debug("scenario ready",
		zap.String("index", inputs.Index.Name),
		zap.String("method", method),
		zap.String("curve", inputs.Curve.Name()),
		zap.Int("fixing_dates", len(inputs.Observation.FixingDates())),
	)
	if method == "" {
		method = averaging.MethodApprox
	}
	return &prepared{method: method, computation: computation, inputs: inputs}, nil
}

// loadFixings reads the observation period fixings from the database. Without a
// DSN only the scenario's own fixings are used.
func (a *app) loadFixings(ctx context.Context, sc *scenario.Scenario, dsn string) (*ratesource.FixingSeries, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = a.cfg.Database.DSN
	}
	if dsn == "" {
		return nil, nil
	}
	idx, err := sc.OvernightIndex()
	if err != nil {
		return nil, err
	}
	obs, err := sc.ObservationPeriod()
	if err != nil {
		return nil, err
	}

	store, err := fixingstore.Open(ctx, dsn, a.cfg.Database.Table, a.cfg.Database.QueryTimeout, a.log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var loader fixingstore.Loader = store
	if a.cfg.Cache.Addr != "" {
		rdb, err := fixingstore.NewRedisClient(ctx, a.cfg.Cache.Addr, a.cfg.Database.QueryTimeout)
		if err != nil {
			a.log.Warn("fixing cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			loader = fixingstore.NewCachedLoader(rdb, store, a.cfg.Cache.TTL, a.log)
		}
	}
	return loader.Load(ctx, idx, obs.Start, obs.End)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

type errorOutput struct {
	Error string `json:"error"`
}

func (a *app) writeError(err error) error {
	a.log.Error("calculation failed", zap.Error(err))
	outputBytes, _ := json.Marshal(errorOutput{Error: err.Error()})
	fmt.Fprintln(a.stdout, string(outputBytes))
	return errReported
}

func (a *app) writeOutput(v any) error {
	outputBytes, err := json.Marshal(v)
	if err != nil {
		return a.writeError(err)
	}
	fmt.Fprintln(a.stdout, string(outputBytes))
	return nil
}
