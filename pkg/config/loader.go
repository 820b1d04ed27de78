package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*loadOptions)

type loadOptions struct {
	prefix string
}

// WithPrefix prepends prefix to every env tag of the target struct, so
// `env:"ADDR"` with prefix "AUTHFLOW_" reads AUTHFLOW_ADDR. Structs loaded
// under different prefixes are cached separately.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.prefix = prefix
	}
}

type cacheKey struct {
	typ    reflect.Type
	prefix string
}

var (
	cacheMu sync.Mutex
	cache   = make(map[cacheKey]any)

	dotenvOnce sync.Once
)

// Load parses the process environment into v. The default .env file in the
// working directory is read once per process, if present; variables already
// set in the environment win over it.
//
// The first successful parse of a type is cached and every later Load of the
// same type (and prefix) copies the cached value, ignoring env changes until
// Reset is called.
//
//	type Config struct {
//		Addr  string        `env:"ADDR" envDefault:":8080"`
//		Delay time.Duration `env:"DELAY" envDefault:"250ms"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg, config.WithPrefix("AUTHFLOW_")); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env is not an error.
		_ = godotenv.Load()
	})

	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	key := cacheKey{typ: reflect.TypeFor[T](), prefix: o.prefix}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.ParseWithOptions(&parsed, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = parsed
	*v = parsed
	return nil
}

// MustLoad is Load for configuration the program cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadEnv reads the given env files into the process environment. With no
// paths it reads ./.env. Later files override earlier ones; neither
// overrides a variable that is already set. Every path must exist.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	values, err := godotenv.Read(paths...)
	if err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}

	for k, val := range values {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}
	return nil
}

// MustLoadEnv panics if LoadEnv fails.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// Reset drops every cached configuration. Intended for tests.
func Reset() {
	cacheMu.Lock()
	clear(cache)
	cacheMu.Unlock()
}
