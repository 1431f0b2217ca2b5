// Package config loads typed configuration from the environment.
//
// Load reads ./.env once per process (github.com/joho/godotenv), then parses
// the environment into a struct using `env` tags (github.com/caarlos0/env/v11).
// Parsed values are cached per type so packages can load the same section
// independently without reparsing:
//
//	type Config struct {
//		Store   string `env:"ENTITLEMENTS_STORE" envDefault:"memory"`
//		Catalog string `env:"ENTITLEMENTS_CATALOG_PATH"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg, config.WithEnvFiles("deploy/.env"))
//
// Use WithoutCache after changing the environment (tests) and WithPrefix to
// read the same struct under a namespaced set of variables.
package config
