// Package config loads typed configuration from environment variables.
//
// Structs are described with `env` tags and parsed by
// github.com/caarlos0/env/v11. Before the first parse the package reads the
// default .env file through github.com/joho/godotenv, if one exists. Extra
// files can be read explicitly with LoadEnv; variables already present in the
// process environment always take precedence over file values.
//
//	type Config struct {
//		LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
//		InspectAddr string `env:"INSPECT_ADDR"`
//		ClientID    string `env:"CLIENT_ID,required"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg, config.WithPrefix("AUTHFLOW_"))
//
// Each struct type is parsed once per prefix and cached for the life of the
// process. Tests that change the environment between loads call Reset.
//
// Errors are sentinel values joined with the underlying cause, so callers
// test them with errors.Is: ErrParsingConfig, ErrLoadingEnvFile and
// ErrNilPointer.
package config
