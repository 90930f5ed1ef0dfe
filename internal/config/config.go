package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "SEGYSAK_CONFIG"

// Config holds settings shared by all commands. Command-line flags take
// precedence over values loaded here.
type Config struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	Output struct {
		Format string `yaml:"format" json:"format"`
		Color  bool   `yaml:"color" json:"color"`
	} `yaml:"output" json:"output"`

	Scan struct {
		MaxTraces int `yaml:"max_traces" json:"max_traces"`
	} `yaml:"scan" json:"scan"`

	Convert struct {
		Iline        int    `yaml:"iline" json:"iline"`
		Xline        int    `yaml:"xline" json:"xline"`
		CDPX         int    `yaml:"cdp_x" json:"cdp_x"`
		CDPY         int    `yaml:"cdp_y" json:"cdp_y"`
		CDP          int    `yaml:"cdp" json:"cdp"`
		Dimension    string `yaml:"dimension" json:"dimension"`
		SampleFormat string `yaml:"sample_format" json:"sample_format"`
		Jobs         int    `yaml:"jobs" json:"jobs"`
		TimeoutS     int    `yaml:"timeout_s" json:"timeout_s"`
		MemoryCheck  bool   `yaml:"memory_check" json:"memory_check"`
	} `yaml:"convert" json:"convert"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.LogLevel = "warn"
	cfg.LogFormat = "text"
	cfg.Output.Format = "text"
	cfg.Output.Color = true
	cfg.Scan.MaxTraces = 1000
	cfg.Convert.Iline = 189
	cfg.Convert.Xline = 193
	cfg.Convert.CDPX = 181
	cfg.Convert.CDPY = 185
	cfg.Convert.CDP = 21
	cfg.Convert.Dimension = "twt"
	cfg.Convert.SampleFormat = "ieee"
	cfg.Convert.Jobs = runtime.NumCPU()
	cfg.Convert.TimeoutS = 600
	cfg.Convert.MemoryCheck = true
	return cfg
}

// Load reads the config file at path over the defaults. An empty path falls
// back to $SEGYSAK_CONFIG; no path at all yields the defaults. Files ending
// in .json or .jsonc may carry comments and trailing commas.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is chosen by the operator.
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("config file is empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so the YAML decoder reads the cleaned
		// document with the same struct tags.
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	for name, loc := range map[string]int{
		"convert.iline": c.Convert.Iline,
		"convert.xline": c.Convert.Xline,
		"convert.cdp_x": c.Convert.CDPX,
		"convert.cdp_y": c.Convert.CDPY,
		"convert.cdp":   c.Convert.CDP,
	} {
		if loc < 1 || loc > 237 {
			return fmt.Errorf("%s: byte location %d outside 1..237", name, loc)
		}
	}
	if c.Scan.MaxTraces < 0 {
		return fmt.Errorf("scan.max_traces: %d must not be negative", c.Scan.MaxTraces)
	}
	if c.Convert.Jobs < 0 {
		return fmt.Errorf("convert.jobs: %d must not be negative", c.Convert.Jobs)
	}
	switch c.Convert.Dimension {
	case "twt", "depth":
	default:
		return fmt.Errorf("convert.dimension: %q (valid: twt, depth)", c.Convert.Dimension)
	}
	return nil
}
