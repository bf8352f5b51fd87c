package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Currency string
	Database DatabaseConfig
	Cache    CacheConfig
	LLM      LLMConfig
	Planner  PlannerConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// CacheConfig holds enrichment cache settings. Dir is the directory the
// cache blob lives in; the file name inside it is fixed.
type CacheConfig struct {
	Dir string
}

// LLMConfig holds enrichment provider settings.
type LLMConfig struct {
	Provider  string
	APIKeyEnv string
	APIKey    string
	Model     string
}

// PlannerConfig holds budget planner policy overrides.
type PlannerConfig struct {
	WindowMonths    int
	LowVolatility   float64
	MonthlyCutRatio float64
}

// Load reads configuration from file and env. Env var overrides use prefix PESAFLOW_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("currency", "KES")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "pesaflow", "pesaflow.db"))
	v.SetDefault("cache.dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "pesaflow"))
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("planner.window_months", 12)
	v.SetDefault("planner.low_volatility", 0.2)
	v.SetDefault("planner.monthly_cut_ratio", 0.8)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PESAFLOW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "pesaflow"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PESAFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// The API key is stored in plain text in the config file; encourage users to prefer
// the secrets store or env vars.
func Save(cfg Config) error {
	path := os.Getenv("PESAFLOW_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "pesaflow", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("currency", cfg.Currency)
	v.Set("database.path", cfg.Database.Path)
	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("llm.provider", cfg.LLM.Provider)
	v.Set("llm.api_key_env", cfg.LLM.APIKeyEnv)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("planner.window_months", cfg.Planner.WindowMonths)
	v.Set("planner.low_volatility", cfg.Planner.LowVolatility)
	v.Set("planner.monthly_cut_ratio", cfg.Planner.MonthlyCutRatio)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
