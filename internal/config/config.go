package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up in the working directory when no config
// flag is given.
const DefaultFileName = "rmbg.toml"

type Config struct {
	Engine     Engine     `toml:"engine"`
	Output     Output     `toml:"output"`
	Processing Processing `toml:"processing"`
}

type Engine struct {
	Kind           string `toml:"kind"`
	Endpoint       string `toml:"endpoint"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	ModelPath      string `toml:"model_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type Output struct {
	Placement      string `toml:"placement"`
	Dir            string `toml:"dir"`
	Quality        int    `toml:"quality"`
	PreserveFormat bool   `toml:"preserve_format"`
}

type Processing struct {
	MaxEdge int `toml:"max_edge"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: Engine{
			Kind:           "http",
			Endpoint:       "http://127.0.0.1:7000",
			Model:          "u2net",
			TimeoutSeconds: 60,
		},
		Output: Output{
			Placement: "timestamped",
			Dir:       "processed",
			Quality:   95,
		},
	}
}

// Load reads path, or DefaultFileName when empty. A missing default file
// is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RMBG_ENDPOINT"); v != "" {
		cfg.Engine.Endpoint = v
	}
	if v := os.Getenv("RMBG_API_KEY"); v != "" {
		cfg.Engine.APIKey = v
	}
	if v := os.Getenv("RMBG_MODEL"); v != "" {
		cfg.Engine.Model = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Output.Quality)
	}

	switch c.Output.Placement {
	case "timestamped", "shared":
	default:
		return fmt.Errorf("unknown placement %q", c.Output.Placement)
	}

	switch c.Engine.Kind {
	case "http":
		if strings.TrimSpace(c.Engine.Endpoint) == "" {
			return fmt.Errorf("engine kind %q requires an endpoint", c.Engine.Kind)
		}
	case "local":
		if strings.TrimSpace(c.Engine.ModelPath) == "" {
			return fmt.Errorf("engine kind %q requires model_path", c.Engine.Kind)
		}
	default:
		return fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
	}

	return nil
}

// Timeout returns the engine timeout; zero means the engine default.
func (c *Config) Timeout() time.Duration {
	if c.Engine.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}
