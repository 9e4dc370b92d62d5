package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type cache struct {
	mu     sync.RWMutex
	values map[string]any
}

var (
	global = &cache{values: make(map[string]any)}

	defaultEnvOnce sync.Once
)

// LoadEnv loads the given .env files into the process environment. With no
// arguments it loads the default .env from the working directory. Files are
// applied in order, later files winning.
func LoadEnv(paths ...string) error {
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// MustLoadEnv is LoadEnv that panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// Load parses environment variables into cfg based on its `env` field tags.
// Each configuration type is parsed once per process; later calls for the
// same type return the cached value. The default .env file, if present, is
// loaded before the first parse.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}
	defaultEnvOnce.Do(func() {
		// Absence of a .env file is fine, the real environment still applies.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	global.mu.RLock()
	cached, ok := global.values[key]
	global.mu.RUnlock()
	if ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	global.mu.Lock()
	// Another goroutine may have parsed concurrently; keep the first result
	// so every caller sees the same value.
	if cached, ok := global.values[key]; ok {
		*cfg = cached.(T)
	} else {
		global.values[key] = *cfg
	}
	global.mu.Unlock()
	return nil
}

// MustLoad is Load that panics on failure. Use for configuration the process
// cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ResetCache clears all cached configurations. Intended for tests that mutate
// the environment between loads.
func ResetCache() {
	global.mu.Lock()
	clear(global.values)
	global.mu.Unlock()
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
