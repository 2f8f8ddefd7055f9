// Package config loads car park settings from defaults, a TOML file, a .env
// file and CARPARK_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	// DefaultPath is read when no config file is given and it exists.
	DefaultPath = "carpark.toml"
	// DefaultEnvFile is read when it exists.
	DefaultEnvFile = ".env"

	envPrefix = "CARPARK_"

	maxSlotsPerType = 99
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds every setting the car park reads at startup.
type Config struct {
	CarPark   CarParkConfig   `toml:"carpark"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Lock      LockConfig      `toml:"lock"`
}

type CarParkConfig struct {
	// StaffSlots and VisitorSlots are prompted for at startup when unset.
	StaffSlots   *int   `toml:"staff_slots,omitempty"`
	VisitorSlots *int   `toml:"visitor_slots,omitempty"`
	HourlyRate   int64  `toml:"hourly_rate"`
	Currency     string `toml:"currency"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}

type MetricsConfig struct {
	// Textfile is where Prometheus metrics are written on exit. Empty disables it.
	Textfile string `toml:"textfile"`
}

type LockConfig struct {
	Path string `toml:"path"`
}

// Default returns the config used when nothing else is set.
func Default() *Config {
	return &Config{
		CarPark: CarParkConfig{
			HourlyRate: 6,
			Currency:   "$",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "http://localhost:4318",
			ServiceName: "car-park",
		},
		Lock: LockConfig{
			Path: filepath.Join(os.TempDir(), "carpark.lock"),
		},
	}
}

type LoadOptions struct {
	// Path is the TOML file to read. When empty, DefaultPath is read if present.
	Path string
	// EnvFile is the dotenv file to read. When empty, DefaultEnvFile is read if present.
	EnvFile string
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the config from defaults, the TOML file, the dotenv file and the
// environment. Variables already set in the environment win over the dotenv
// file. The result is not validated so callers can apply flags first.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if err := cfg.decodeFile(opts.Path); err != nil {
		return nil, err
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	err = cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	env, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return env, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	var errs []error
	integer := func(name string, set func(int64)) {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidConfig, envPrefix, name, v))
			return
		}
		set(n)
	}

	integer("STAFF_SLOTS", func(n int64) { c.CarPark.StaffSlots = intPtr(int(n)) })
	integer("VISITOR_SLOTS", func(n int64) { c.CarPark.VisitorSlots = intPtr(int(n)) })
	integer("HOURLY_RATE", func(n int64) { c.CarPark.HourlyRate = n })
	str("CURRENCY", &c.CarPark.Currency)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(envPrefix + "TELEMETRY_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sTELEMETRY_ENABLED=%q is not a boolean", ErrInvalidConfig, envPrefix, v))
		} else {
			c.Telemetry.Enabled = enabled
		}
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok && v != "" {
		c.Telemetry.Endpoint = v
	}
	str("TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	if v, ok := lookup("OTEL_SERVICE_NAME"); ok && v != "" {
		c.Telemetry.ServiceName = v
	}
	str("SERVICE_NAME", &c.Telemetry.ServiceName)

	str("METRICS_TEXTFILE", &c.Metrics.Textfile)
	str("LOCK_PATH", &c.Lock.Path)

	return errors.Join(errs...)
}

// Validate reports every problem with the config at once.
func (c *Config) Validate() error {
	var problems []string

	checkSlots := func(name string, n *int) {
		if n == nil {
			return
		}
		if *n < 0 || *n > maxSlotsPerType {
			problems = append(problems, fmt.Sprintf("%s must be between 0 and %d, got %d", name, maxSlotsPerType, *n))
		}
	}
	checkSlots("carpark.staff_slots", c.CarPark.StaffSlots)
	checkSlots("carpark.visitor_slots", c.CarPark.VisitorSlots)

	if c.CarPark.HourlyRate <= 0 {
		problems = append(problems, fmt.Sprintf("carpark.hourly_rate must be positive, got %d", c.CarPark.HourlyRate))
	}
	if c.CarPark.Currency == "" {
		problems = append(problems, "carpark.currency must not be empty")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is not a known level", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be console or json, got %q", c.Log.Format))
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		problems = append(problems, "telemetry.endpoint is required when telemetry is enabled")
	}
	if c.Lock.Path == "" {
		problems = append(problems, "lock.path must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Encode writes the config as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func intPtr(n int) *int {
	return &n
}
