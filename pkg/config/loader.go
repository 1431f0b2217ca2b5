package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache keeps one parsed copy per config type and prefix.
type configCache struct {
	mu     sync.Mutex
	values map[string]any
}

var (
	globalCache = &configCache{values: make(map[string]any)}

	defaultEnvLoaded sync.Once
)

type options struct {
	files   []string
	prefix  string
	noCache bool
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles loads the given .env files before parsing. Unlike the implicit
// ./.env, a missing file is an error. Variables already set in the process
// environment are not overridden.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.files = append(o.files, files...) }
}

// WithPrefix prepends prefix to every variable name of the struct.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithoutCache parses the environment again even if the type was loaded before.
// The fresh value replaces the cached one.
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

// Load parses environment variables into v according to its env tags.
//
// ./.env is loaded once per process if it exists. Each config type (and prefix)
// is parsed once; later calls copy the cached value into v.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})
	if len(o.files) > 0 {
		if err := godotenv.Load(o.files...); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}

	key := cacheKey[T](o.prefix)

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if cached, ok := globalCache.values[key]; ok && !o.noCache {
		*v = cached.(T)
		return nil
	}

	var fresh T
	if err := env.ParseWithOptions(&fresh, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	globalCache.values[key] = fresh
	*v = fresh
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// Reset drops every cached configuration.
func Reset() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	clear(globalCache.values)
}

func cacheKey[T any](prefix string) string {
	return prefix + reflect.TypeFor[T]().String()
}
