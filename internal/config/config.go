// Package config sources the engine's runtime knobs from three layers, in
// ascending priority: an optional YAML file, environment variables, and CLI
// flags. This mirrors the layering convention of this dependency family's
// cluster/config code (flags override env override file override built-in
// defaults), generalized here to the engine's own knobs.
package config

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/ramforge/internal/validation"
)

// AOFModeAlways is the --aof token that selects sync mode (flush interval 0).
// Any other token, or omission, selects the batched default.
const AOFModeAlways = "always"

const defaultBatchedFlushInterval = 10 * time.Millisecond

// Config holds every knob the supervisor and its workers need to boot.
type Config struct {
	Workers          int           `yaml:"workers"`
	AOFMode          string        `yaml:"aof"`
	Port             int           `yaml:"port"`
	RDBPath          string        `yaml:"rdb_path"`
	AOFPath          string        `yaml:"aof_path"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	StatusPath       string        `yaml:"status_path"`

	// ConfigFile is not itself layered; it names the file the other fields
	// were layered from, for diagnostics.
	ConfigFile string `yaml:"-"`
}

// Defaults returns the built-in bottom layer, before any file, env, or flag
// override is applied.
func Defaults() Config {
	return Config{
		Workers:          runtime.NumCPU(),
		AOFMode:          "batched",
		Port:             1109,
		RDBPath:          "./dump.rdb",
		AOFPath:          "./append.aof",
		SnapshotInterval: 60 * time.Second,
		StatusPath:       "./ramforge.status.json",
	}
}

// AOFFlushInterval derives the AOF engine's FlushInterval knob from AOFMode:
// zero (sync mode) for "always", the batched default otherwise.
func (c Config) AOFFlushInterval() time.Duration {
	if c.AOFMode == AOFModeAlways {
		return 0
	}
	return defaultBatchedFlushInterval
}

// InProcess reports whether Workers==0, meaning "run one worker in-process
// and do not supervise".
func (c Config) InProcess() bool {
	return c.Workers == 0
}

// Validate rejects configurations the engine cannot boot with.
func (c Config) Validate() error {
	v := validation.NewConfigValidator("config")
	v.NonNegative("workers", c.Workers)
	v.RangeInt("port", c.Port, 1, 65535)
	v.Required("rdb_path", c.RDBPath)
	v.Required("aof_path", c.AOFPath)
	v.NonNegativeFloat("snapshot_interval", c.SnapshotInterval.Seconds())
	return v.Validate()
}

// Load builds a Config from args (typically os.Args[1:]) layered over the
// process environment and, if --config/RAMFORGE_CONFIG_FILE names one, a
// YAML file. Flags win over env, env wins over the file, the file wins over
// Defaults().
func Load(args []string) (Config, error) {
	cfg := Defaults()

	configFile := firstConfigFileFlag(args)
	if configFile == "" {
		configFile = os.Getenv("RAMFORGE_CONFIG_FILE")
	}
	if configFile != "" {
		if err := applyFile(&cfg, configFile); err != nil {
			return Config{}, err
		}
		cfg.ConfigFile = configFile
	}

	applyEnv(&cfg)

	if err := applyFlags(&cfg, args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// firstConfigFileFlag does a tolerant pre-scan for --config/-config so the
// file layer can be loaded before the real flag.FlagSet parses (and would
// otherwise reject unknown flags encountered out of order).
func firstConfigFileFlag(args []string) string {
	fs := flag.NewFlagSet("ramforge-prescan", flag.ContinueOnError)
	fs.SetOutput(discardWriter{})
	path := fs.String("config", "", "")
	_ = fs.Parse(args)
	return *path
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config: file %s not found", path)
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("RAMFORGE_WORKERS"); ok {
		if n, err := parseInt(v); err == nil {
			cfg.Workers = n
		}
	}
	if v, ok := os.LookupEnv("RAMFORGE_AOF"); ok {
		cfg.AOFMode = v
	}
	if v, ok := os.LookupEnv("RAMFORGE_PORT"); ok {
		if n, err := parseInt(v); err == nil {
			cfg.Port = n
		}
	}
	if v, ok := os.LookupEnv("RAMFORGE_RDB_PATH"); ok {
		cfg.RDBPath = v
	}
	if v, ok := os.LookupEnv("RAMFORGE_AOF_PATH"); ok {
		cfg.AOFPath = v
	}
	if v, ok := os.LookupEnv("RAMFORGE_SNAPSHOT_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SnapshotInterval = d
		}
	}
	if v, ok := os.LookupEnv("RAMFORGE_STATUS_PATH"); ok {
		cfg.StatusPath = v
	}
}

func applyFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("ramforge", flag.ContinueOnError)

	workers := fs.Int("workers", cfg.Workers, "number of worker processes (0 = run in-process, unsupervised)")
	aofMode := fs.String("aof", cfg.AOFMode, `"always" selects sync mode; any other value selects batched mode`)
	port := fs.Int("port", cfg.Port, "TCP port to listen on")
	rdbPath := fs.String("rdb-path", cfg.RDBPath, "path to the RDB snapshot file")
	aofPath := fs.String("aof-path", cfg.AOFPath, "path to the AOF append log")
	snapshotInterval := fs.Duration("snapshot-interval", cfg.SnapshotInterval, "periodic RDB snapshot interval")
	statusPath := fs.String("status-path", cfg.StatusPath, "path the supervisor writes its live status to")
	fs.String("config", cfg.ConfigFile, "optional YAML file providing defaults for any flag")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Workers = *workers
	cfg.AOFMode = *aofMode
	cfg.Port = *port
	cfg.RDBPath = *rdbPath
	cfg.AOFPath = *aofPath
	cfg.SnapshotInterval = *snapshotInterval
	cfg.StatusPath = *statusPath
	return nil
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
