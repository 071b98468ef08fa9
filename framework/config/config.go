package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/km-arc/go-async-ioc/framework/http/validation"
)

// Config is the central typed configuration struct.
type Config struct {
	App AppConfig
	IOC IOCConfig
	Log LogConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool   // serves the introspection routes
	Addr  string
}

// IOCConfig tunes the bean manager and its creational contexts.
type IOCConfig struct {
	// MutableContexts lets a context rewire an already wired reference.
	MutableContexts bool
	// Manifest is a YAML bean manifest loaded at boot; empty disables it.
	Manifest string
	// SplitLoadDelay simulates the fetch time of deferred providers.
	SplitLoadDelay time.Duration
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // console | json
}

// Load reads the given env files (default .env) and populates a Config.
// Process environment variables win over file values; files never modify the
// process environment.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	src := source(readFiles(files))

	return &Config{
		App: AppConfig{
			Name:  src.env("APP_NAME", "AsyncIoC"),
			Env:   src.env("APP_ENV", "local"),
			Debug: src.envBool("APP_DEBUG", true),
			Addr:  src.env("APP_ADDR", ":8000"),
		},
		IOC: IOCConfig{
			MutableContexts: src.envBool("IOC_MUTABLE_CONTEXTS", false),
			Manifest:        src.env("IOC_MANIFEST", ""),
			SplitLoadDelay:  src.envDuration("IOC_SPLIT_LOAD_DELAY", 0),
		},
		Log: LogConfig{
			Level:  src.env("LOG_LEVEL", "info"),
			Format: src.env("LOG_FORMAT", "console"),
		},
	}
}

// Validate checks the enumerated settings. The returned error is a
// *validation.Errors.
func (c *Config) Validate() error {
	v := validation.Make(map[string]string{
		"app_env":    c.App.Env,
		"app_addr":   c.App.Addr,
		"log_level":  c.Log.Level,
		"log_format": c.Log.Format,
	}, validation.Rules{
		"app_env":    "required|in:local,production,testing",
		"app_addr":   "required",
		"log_level":  "required|in:debug,info,warn,error",
		"log_format": "required|in:console,json",
	})
	if v.Fails() {
		return v.Errors()
	}
	return nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return source(nil).env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return source(nil).envBool(key, defaultVal)
}

// GetDuration returns a duration env value such as "250ms".
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	return source(nil).envDuration(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

// source is the merged view of env files; the process environment wins.
type source map[string]string

func readFiles(files []string) map[string]string {
	out := make(map[string]string)
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			// Non-fatal: .env may not exist in production
			continue
		}
		for k, v := range vals {
			// the first file that sets a key wins, as with godotenv.Load
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out
}

func (s source) env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s[key]; v != "" {
		return v
	}
	return fallback
}

func (s source) envBool(key string, fallback bool) bool {
	v := s.env(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func (s source) envDuration(key string, fallback time.Duration) time.Duration {
	v := s.env(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
