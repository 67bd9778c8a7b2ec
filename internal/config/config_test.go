package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{Backend: BackendBadger, DataPath: "/some/path"},
		Auth:    AuthConfig{HashMemoryKiB: 1024, HashIterations: 1},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"INFO", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Backend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = BackendSQLite
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "postgres"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid storage backend")
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_HashCost(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.HashIterations = 0
	assert.Error(t, cfg.Validate())
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""

	require.NoError(t, cfg.expandDataPath())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".bookexchange"), cfg.Storage.DataPath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = "~/books"

	require.NoError(t, cfg.expandDataPath())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), cfg.Storage.DataPath)
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = "data/store"

	require.NoError(t, cfg.expandDataPath())

	assert.True(t, filepath.IsAbs(cfg.Storage.DataPath))
	assert.Equal(t, "store", filepath.Base(cfg.Storage.DataPath))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("BOOKEXCHANGE_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "BOOKEXCHANGE_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "BOOKEXCHANGE_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "BOOKEXCHANGE_TEST_MISSING", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	assert.True(t, getBoolConfigValue("yes", "UNUSED", false))
	assert.True(t, getBoolConfigValue("1", "UNUSED", false))
	assert.False(t, getBoolConfigValue("off", "UNUSED", true))
	assert.True(t, getBoolConfigValue("", "BOOKEXCHANGE_TEST_MISSING", true))
}

func TestGetIntConfigValue(t *testing.T) {
	assert.Equal(t, 42, getIntConfigValue("42", "UNUSED", 1))
	assert.Equal(t, 1, getIntConfigValue("many", "UNUSED", 1))
	assert.Equal(t, 7, getIntConfigValue("", "BOOKEXCHANGE_TEST_MISSING", 7))
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# local overrides\nBOOKEXCHANGE_BACKEND=sqlite\nLOG_LEVEL=\"debug\"\n\nBOOKEXCHANGE_SEED_SAMPLES=false\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// Keep the loaded variables from leaking into other tests.
	for _, key := range []string{"BOOKEXCHANGE_BACKEND", "LOG_LEVEL", "BOOKEXCHANGE_SEED_SAMPLES"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig(Flags{EnvFile: envFile, DataPath: dir})
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.False(t, cfg.Seed.SampleCatalog)
	assert.Equal(t, dir, cfg.Storage.DataPath)
}

func TestLoadConfig_FlagsBeatEnv(t *testing.T) {
	t.Setenv("BOOKEXCHANGE_BACKEND", "sqlite")
	t.Setenv("ENV", "staging")

	cfg, err := LoadConfig(Flags{
		EnvFile:  filepath.Join(t.TempDir(), "missing.env"),
		Backend:  "badger",
		DataPath: t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, "staging", cfg.App.Environment)
	assert.True(t, cfg.Seed.SampleCatalog)
	assert.Equal(t, 64*1024, cfg.Auth.HashMemoryKiB)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	_, err := LoadConfig(Flags{
		EnvFile:  filepath.Join(t.TempDir(), "missing.env"),
		Env:      "qa",
		DataPath: t.TempDir(),
	})
	assert.Error(t, err)
}
