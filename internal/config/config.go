// Package config handles papercat configuration.
//
// Settings come from three layers, later layers winning: built-in defaults,
// a YAML file, and environment variables (optionally seeded from a .env
// file in the working directory).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	DBPath  string        `yaml:"db_path" json:"db_path"`
	PDFDir  string        `yaml:"pdf_dir" json:"pdf_dir"`
	LogMode string        `yaml:"log_mode" json:"log_mode"` // dev or prod
	Fetch   FetchConfig   `yaml:"fetch" json:"fetch"`
	LLM     LLMConfig     `yaml:"llm" json:"llm"`
	Extract ExtractConfig `yaml:"extract" json:"extract"`
	Server  ServerConfig  `yaml:"server" json:"server"`

	// APIKey is only read from the environment.
	APIKey string `yaml:"-" json:"api_key,omitempty"`
}

// FetchConfig configures the arXiv fetcher.
type FetchConfig struct {
	Query           string   `yaml:"query" json:"query"`
	MaxResults      int      `yaml:"max_results" json:"max_results"`
	BaseURL         string   `yaml:"base_url" json:"base_url"`
	DownloadTimeout Duration `yaml:"download_timeout" json:"download_timeout"`
	Interval        Duration `yaml:"interval" json:"interval"` // Minimum gap between downloads, 0 = none
}

// LLMConfig configures the chat-completion model and its retry policy.
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url" json:"base_url"`
	Model       string   `yaml:"model" json:"model"`
	Temperature float64  `yaml:"temperature" json:"temperature"`
	MaxTokens   int      `yaml:"max_tokens" json:"max_tokens"`
	Timeout     Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts int      `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay" json:"base_delay"`
}

// ExtractConfig configures the metadata extractor.
type ExtractConfig struct {
	MaxChars int      `yaml:"max_chars" json:"max_chars"`
	Pace     Duration `yaml:"pace" json:"pace"` // Min interval between PDF starts; 0 disables
}

// ServerConfig configures the catalog web service.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

const (
	// FileName is the config file looked up in the working directory.
	FileName = "papercat.yml"

	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "papercat"

	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override file settings.
const (
	EnvAPIKey     = "API_KEY"
	EnvDBPath     = "PAPERCAT_DB_PATH"
	EnvPDFDir     = "PAPERCAT_PDF_DIR"
	EnvLLMBaseURL = "PAPERCAT_LLM_BASE_URL"
	EnvLLMModel   = "PAPERCAT_LLM_MODEL"
	EnvAddr       = "PAPERCAT_ADDR"
	EnvLogMode    = "PAPERCAT_LOG_MODE"
)

// ErrMissingAPIKey is returned by RequireAPIKey when no key is configured.
var ErrMissingAPIKey = errors.New("no API_KEY set")

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:  filepath.Join("database", "dbdb"),
		PDFDir:  filepath.Join("database", "pdf"),
		LogMode: "dev",
		Fetch: FetchConfig{
			Query:           `cat:cs.* AND all:"fault tolerance"`,
			MaxResults:      100,
			BaseURL:         "http://export.arxiv.org/api/query",
			DownloadTimeout: Duration{30 * time.Second},
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.1-8b-instant",
			Temperature: 0.1,
			MaxTokens:   1024,
			Timeout:     Duration{60 * time.Second},
			MaxAttempts: 3,
			BaseDelay:   Duration{time.Second},
		},
		Extract: ExtractConfig{
			MaxChars: 8000,
			Pace:     Duration{time.Second},
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:5000",
		},
	}
}

// Load builds the configuration. If path is empty, papercat.yml in the
// working directory is tried, then the global config file. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	// Load .env file if present (for API_KEY)
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}
	if path != "" {
		if err := cfg.mergeFile(ExpandPath(path)); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file candidate, or "".
func findConfigFile() string {
	candidates := []string{FileName, GlobalConfigPath()}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/papercat/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvAPIKey, &c.APIKey},
		{EnvDBPath, &c.DBPath},
		{EnvPDFDir, &c.PDFDir},
		{EnvLLMBaseURL, &c.LLM.BaseURL},
		{EnvLLMModel, &c.LLM.Model},
		{EnvAddr, &c.Server.Addr},
		{EnvLogMode, &c.LogMode},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	c.DBPath = ExpandPath(c.DBPath)
	c.PDFDir = ExpandPath(c.PDFDir)
}

// Validate checks that limits and paths are usable.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return errors.New("db_path must be set")
	case c.PDFDir == "":
		return errors.New("pdf_dir must be set")
	case c.Fetch.MaxResults <= 0:
		return fmt.Errorf("fetch.max_results must be positive, got %d", c.Fetch.MaxResults)
	case c.LLM.MaxTokens <= 0:
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	case c.LLM.MaxAttempts <= 0:
		return fmt.Errorf("llm.max_attempts must be positive, got %d", c.LLM.MaxAttempts)
	case c.LLM.BaseDelay.Duration < 0:
		return fmt.Errorf("llm.base_delay must not be negative")
	case c.Extract.MaxChars <= 0:
		return fmt.Errorf("extract.max_chars must be positive, got %d", c.Extract.MaxChars)
	case c.Extract.Pace.Duration < 0:
		return fmt.Errorf("extract.pace must not be negative")
	}
	return nil
}

// RequireAPIKey returns ErrMissingAPIKey if no model API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: set it in the environment or a .env file", ErrMissingAPIKey)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "[REDACTED]"
	}
	return out
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
