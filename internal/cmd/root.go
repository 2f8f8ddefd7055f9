// Package cmd implements the carpark command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"car-park/internal/config"
	"car-park/internal/logging"
	"car-park/internal/metrics"
	"car-park/internal/parking"
)

// ErrAlreadyRunning is returned when another console holds the lock.
var ErrAlreadyRunning = errors.New("another carpark console is already running")

var rootCmd = &cobra.Command{
	Use:   "carpark",
	Short: "Car park record manager",
	Long: `Manage the staff and visitor slots of a car park from an interactive console.

Add and delete slots, park and remove cars, look up where a car is parked and
charge it by the hour when it leaves. Settings come from carpark.toml, a .env
file, CARPARK_* environment variables and flags, later sources winning.

Examples:
  carpark                              # Prompt for slot counts
  carpark --staff 10 --visitor 20      # Skip the startup prompts
  carpark < script.txt                 # Replay a scripted session`,
	SilenceUsage: true,
	RunE:         runConsole,
}

var (
	configPath      string
	envFile         string
	hourlyRate      int64
	logLevel        string
	staffSlots      int
	visitorSlots    int
	metricsTextfile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file (default ./"+config.DefaultEnvFile+" if present)")
	rootCmd.PersistentFlags().Int64Var(&hourlyRate, "rate", parking.DefaultHourlyRate, "Fee per started hour")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.Flags().IntVar(&staffSlots, "staff", 0, "Number of staff slots to create")
	rootCmd.Flags().IntVar(&visitorSlots, "visitor", 0, "Number of visitor slots to create")
	rootCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the layered config and applies any flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: configPath, EnvFile: envFile})
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("staff") {
		cfg.CarPark.StaffSlots = &staffSlots
	}
	if flags.Changed("visitor") {
		cfg.CarPark.VisitorSlots = &visitorSlots
	}
	if flags.Changed("rate") {
		cfg.CarPark.HourlyRate = hourlyRate
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = metricsTextfile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	err = logging.Init(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	logging.With("session", uuid.NewString())

	lock := flock.New(cfg.Lock.Path)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", cfg.Lock.Path, err)
	}
	if !locked {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.Lock.Path)
	}
	defer lock.Unlock()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	telemetry, err := parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer shutdownTelemetry(telemetry)

	in := cmd.InOrStdin()
	shell := parking.NewShell(telemetry, parking.ShellOptions{
		In:           in,
		Out:          cmd.OutOrStdout(),
		Echo:         !isTerminal(in),
		Tariff:       parking.Tariff{HourlyRate: cfg.CarPark.HourlyRate},
		Currency:     cfg.CarPark.Currency,
		StaffSlots:   cfg.CarPark.StaffSlots,
		VisitorSlots: cfg.CarPark.VisitorSlots,
	})

	logging.Info(ctx).Str("lock", cfg.Lock.Path).Msg("console started")
	runErr := shell.Run(ctx)

	if cfg.Metrics.Textfile != "" && shell.CarPark() != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, shell.CarPark(), shell.Ledger()); err != nil {
			logging.Error(ctx).Err(err).Str("path", cfg.Metrics.Textfile).Msg("writing metrics textfile")
			if runErr == nil {
				runErr = fmt.Errorf("writing metrics textfile: %w", err)
			}
		}
	}

	logging.Info(ctx).
		Int("departures", shell.Ledger().Len()).
		Int64("takings", shell.Ledger().Total()).
		Msg("console stopped")
	return runErr
}

// requireSubcommand is the RunE of commands that only group subcommands.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("requires a subcommand")
	}
	return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
}

func shutdownTelemetry(telemetry *parking.TelemetryProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := telemetry.Shutdown(ctx); err != nil {
		logging.Warn(ctx).Err(err).Msg("shutting down telemetry")
	}
}

// isTerminal reports whether r is an interactive terminal. Anything else gets
// its input echoed so transcripts read like a session.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
