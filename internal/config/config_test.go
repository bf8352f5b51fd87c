package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PESAFLOW_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "KES", cfg.Currency)
	require.Equal(t, "gemini", cfg.LLM.Provider)
	require.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	require.Equal(t, "GEMINI_API_KEY", cfg.LLM.APIKeyEnv)
	require.Equal(t, 12, cfg.Planner.WindowMonths)
	require.NotEmpty(t, cfg.Database.Path)
	require.NotEmpty(t, cfg.Cache.Dir)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PESAFLOW_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("PESAFLOW_LLM_PROVIDER", "openai")
	t.Setenv("PESAFLOW_PLANNER_WINDOW_MONTHS", "6")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.LLM.Provider)
	require.Equal(t, 6, cfg.Planner.WindowMonths)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("PESAFLOW_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.Database.Path = filepath.Join(t.TempDir(), "pesaflow.db")
	require.NoError(t, Save(cfg))

	_, err = os.Stat(path)
	require.NoError(t, err)

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, "openai", got.LLM.Provider)
	require.Equal(t, "gpt-4o-mini", got.LLM.Model)
	require.Equal(t, cfg.Database.Path, got.Database.Path)
}
