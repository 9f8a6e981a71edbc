package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Galaxy    GalaxyConfig    `toml:"galaxy"`
	Generator GeneratorConfig `toml:"generator"`
	Cache     CacheConfig     `toml:"cache"`
	Jobs      JobsConfig      `toml:"jobs"`
	Database  DatabaseConfig  `toml:"database"`
	Lookahead LookaheadConfig `toml:"lookahead"`
	Loop      LoopConfig      `toml:"loop"`
	Data      DataConfig      `toml:"data"`
	Logging   LoggingConfig   `toml:"logging"`
}

type GalaxyConfig struct {
	UniverseSeed uint32  `toml:"universe_seed"`
	Radius       float64 `toml:"radius"`       // light years, edge of the density image
	SolOffsetX   float64 `toml:"sol_offset_x"` // light years from the image centre
	SolOffsetY   float64 `toml:"sol_offset_y"`
	DensityImage string  `toml:"density_image"` // empty = opensimplex disc
	NoiseSeed    int64   `toml:"noise_seed"`
	NoiseSize    int     `toml:"noise_size"`
	StartYear    float64 `toml:"start_year"`
}

type GeneratorConfig struct {
	Name    string `toml:"name"`
	Version int    `toml:"version"`
}

type CacheConfig struct {
	JobSize       int `toml:"job_size"`       // addresses per background job
	StatsInterval int `toml:"stats_interval"` // ticks between statistics logs, 0 = never
}

type JobsConfig struct {
	Workers int `toml:"workers"` // 0 = GOMAXPROCS
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver"` // "postgres" or "sqlite"
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	SaveSlot        string        `toml:"save_slot"`
	SaveInterval    int           `toml:"save_interval"` // ticks between saves, 0 = only on shutdown
}

type LookaheadConfig struct {
	Enabled           bool     `toml:"enabled"`
	Radius            int32    `toml:"radius"` // sectors
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	Center            [3]int32 `toml:"center"`
}

type LoopConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
}

type DataConfig struct {
	CustomSystems string `toml:"custom_systems"`
	Factions      string `toml:"factions"`
	ScriptsDir    string `toml:"scripts_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration, used when no file is given.
func Default() *Config { return defaults() }

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive")
	}
	if c.Lookahead.Radius < 0 {
		return fmt.Errorf("lookahead radius must not be negative")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Galaxy: GalaxyConfig{
			UniverseSeed: 0xabcd1234,
			Radius:       50000,
			SolOffsetX:   25000,
			SolOffsetY:   0,
			NoiseSeed:    0xabcd1234,
			NoiseSize:    512,
			StartYear:    3200,
		},
		Generator: GeneratorConfig{
			Name:    "legacy",
			Version: 1,
		},
		Cache: CacheConfig{
			JobSize:       100,
			StatsInterval: 3000,
		},
		Jobs: JobsConfig{
			Workers: 0,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "file:galaxy.db?_pragma=busy_timeout(5000)",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
			SaveSlot:        "autosave",
			SaveInterval:    1500,
		},
		Lookahead: LookaheadConfig{
			Enabled:           true,
			Radius:            2,
			RequestsPerSecond: 4,
			Burst:             1,
		},
		Loop: LoopConfig{
			TickRate: 200 * time.Millisecond,
		},
		Data: DataConfig{
			CustomSystems: "data/yaml/custom_systems.yaml",
			Factions:      "data/yaml/factions.yaml",
			ScriptsDir:    "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
