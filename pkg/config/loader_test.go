package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/config"
)

// unsetForTest clears keys for the duration of the test and restores them afterwards.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

type defaultsConfig struct {
	Name    string        `env:"CFGTEST_DEFAULT_NAME" envDefault:"statekit"`
	Workers int           `env:"CFGTEST_DEFAULT_WORKERS" envDefault:"2"`
	Debug   bool          `env:"CFGTEST_DEFAULT_DEBUG" envDefault:"true"`
	Timeout time.Duration `env:"CFGTEST_DEFAULT_TIMEOUT" envDefault:"1500ms"`
}

func TestLoad_Defaults(t *testing.T) {
	unsetForTest(t, "CFGTEST_DEFAULT_NAME", "CFGTEST_DEFAULT_WORKERS", "CFGTEST_DEFAULT_DEBUG", "CFGTEST_DEFAULT_TIMEOUT")
	config.Reset()

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, defaultsConfig{
		Name:    "statekit",
		Workers: 2,
		Debug:   true,
		Timeout: 1500 * time.Millisecond,
	}, cfg)
}

type envConfig struct {
	Name    string   `env:"CFGTEST_ENV_NAME"`
	Workers int      `env:"CFGTEST_ENV_WORKERS"`
	Tags    []string `env:"CFGTEST_ENV_TAGS" envSeparator:","`
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_ENV_NAME", "from-env")
	t.Setenv("CFGTEST_ENV_WORKERS", "8")
	t.Setenv("CFGTEST_ENV_TAGS", "a,b")
	config.Reset()

	var cfg envConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
}

type requiredConfig struct {
	ClientID string `env:"CFGTEST_REQUIRED_CLIENT_ID,required"`
}

func TestLoad_MissingRequired(t *testing.T) {
	unsetForTest(t, "CFGTEST_REQUIRED_CLIENT_ID")
	config.Reset()

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Contains(t, err.Error(), "CFGTEST_REQUIRED_CLIENT_ID")

	assert.Panics(t, func() {
		config.MustLoad(&cfg)
	})
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *envConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

type prefixedConfig struct {
	Addr string `env:"ADDR" envDefault:":0"`
}

func TestLoad_WithPrefix(t *testing.T) {
	t.Setenv("ALPHA_ADDR", ":8081")
	t.Setenv("BETA_ADDR", ":8082")
	config.Reset()

	var alpha, beta, bare prefixedConfig
	require.NoError(t, config.Load(&alpha, config.WithPrefix("ALPHA_")))
	require.NoError(t, config.Load(&beta, config.WithPrefix("BETA_")))
	require.NoError(t, config.Load(&bare))

	assert.Equal(t, ":8081", alpha.Addr)
	assert.Equal(t, ":8082", beta.Addr, "prefixes are cached independently")
	assert.Equal(t, ":0", bare.Addr)
}

type cachedConfig struct {
	Value string `env:"CFGTEST_CACHED_VALUE"`
}

func TestLoad_CachesUntilReset(t *testing.T) {
	t.Setenv("CFGTEST_CACHED_VALUE", "first")
	config.Reset()

	var cfg cachedConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "first", cfg.Value)

	t.Setenv("CFGTEST_CACHED_VALUE", "second")

	var again cachedConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "first", again.Value)

	// Mutating a loaded copy does not leak into the cache.
	again.Value = "mutated"
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "first", third.Value)

	config.Reset()
	var fresh cachedConfig
	require.NoError(t, config.Load(&fresh))
	assert.Equal(t, "second", fresh.Value)
}

type fileConfig struct {
	Name         string   `env:"CFGTEST_NAME"`
	Workers      int      `env:"CFGTEST_WORKERS"`
	Tags         []string `env:"CFGTEST_TAGS" envSeparator:","`
	Quoted       string   `env:"CFGTEST_QUOTED"`
	OnlyOverride string   `env:"CFGTEST_ONLY_OVERRIDE"`
}

var fileKeys = []string{"CFGTEST_NAME", "CFGTEST_WORKERS", "CFGTEST_TAGS", "CFGTEST_QUOTED", "CFGTEST_ONLY_OVERRIDE"}

func TestLoadEnv(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		unsetForTest(t, fileKeys...)
		config.Reset()

		require.NoError(t, config.LoadEnv("testdata/base.env"))

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, fileConfig{
			Name:    "base",
			Workers: 4,
			Tags:    []string{"alpha", "beta"},
			Quoted:  "quoted value",
		}, cfg)
	})

	t.Run("later files override earlier ones", func(t *testing.T) {
		unsetForTest(t, fileKeys...)
		config.Reset()

		require.NoError(t, config.LoadEnv("testdata/base.env", "testdata/override.env"))

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "override", cfg.Name)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "yes", cfg.OnlyOverride)
	})

	t.Run("process environment wins", func(t *testing.T) {
		unsetForTest(t, fileKeys...)
		t.Setenv("CFGTEST_NAME", "from-process")
		config.Reset()

		require.NoError(t, config.LoadEnv("testdata/base.env", "testdata/override.env"))

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "from-process", cfg.Name)
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.LoadEnv("testdata/missing.env")
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)

		assert.Panics(t, func() {
			config.MustLoadEnv("testdata/missing.env")
		})
	})
}
