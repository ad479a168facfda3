// Package config loads curricula settings.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML or
// YAML file (chosen by extension), a .env file, and CURRICULA_* environment
// variables. NEXT_PUBLIC_BACKEND_URL is honored as a fallback for the
// backend URL so existing deployments keep working.
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
	"github.com/matzehuels/curricula/pkg/curriculum/transform"
	errs "github.com/matzehuels/curricula/pkg/errors"
)

// Config holds all curricula configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Backend BackendConfig `toml:"backend" yaml:"backend"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Session SessionConfig `toml:"session" yaml:"session"`
	Plans   PlansConfig   `toml:"plans" yaml:"plans"`
	Layout  LayoutConfig  `toml:"layout" yaml:"layout"`
	Planner PlannerConfig `toml:"planner" yaml:"planner"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr          string `toml:"addr" yaml:"addr"`
	ReadTimeout   string `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  string `toml:"write_timeout" yaml:"write_timeout"`
	SecureCookies bool   `toml:"secure_cookies" yaml:"secure_cookies"`
}

// BackendConfig configures the recommendation backend client.
type BackendConfig struct {
	URL       string  `toml:"url" yaml:"url"`
	Timeout   string  `toml:"timeout" yaml:"timeout"`
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `toml:"burst" yaml:"burst"`
	Retries   int     `toml:"retries" yaml:"retries"`
}

// CacheConfig selects the response cache.
type CacheConfig struct {
	Backend       string `toml:"backend" yaml:"backend"` // file, redis, none
	Dir           string `toml:"dir" yaml:"dir"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`
	Prefix        string `toml:"prefix" yaml:"prefix"`
}

// SessionConfig configures sign-in sessions.
type SessionConfig struct {
	Store      string `toml:"store" yaml:"store"` // memory, redis, file
	TTL        string `toml:"ttl" yaml:"ttl"`
	JWTSecret  string `toml:"jwt_secret" yaml:"jwt_secret"`
	CookieName string `toml:"cookie_name" yaml:"cookie_name"`
}

// PlansConfig selects the plan archive.
type PlansConfig struct {
	Store      string `toml:"store" yaml:"store"` // memory, mongo, none
	MongoURI   string `toml:"mongo_uri" yaml:"mongo_uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

// LayoutConfig configures the map layout and identity resolution.
type LayoutConfig struct {
	CenterLevel int     `toml:"center_level" yaml:"center_level"`
	SpacingX    float64 `toml:"spacing_x" yaml:"spacing_x"`
	SpacingY    float64 `toml:"spacing_y" yaml:"spacing_y"`
	Policy      string  `toml:"policy" yaml:"policy"` // last, first
}

// PlannerConfig holds planner request defaults.
type PlannerConfig struct {
	MaxCredits     int    `toml:"max_credits" yaml:"max_credits"`
	DefaultProgram string `toml:"default_program" yaml:"default_program"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "15s",
			WriteTimeout: "60s",
		},
		Backend: BackendConfig{
			URL:       backend.DefaultBaseURL,
			Timeout:   "10s",
			RateLimit: 10,
			Burst:     10,
			Retries:   3,
		},
		Cache: CacheConfig{
			Backend: "file",
			Prefix:  "curricula:",
		},
		Session: SessionConfig{
			Store:      "memory",
			TTL:        "24h",
			CookieName: "curricula_session",
		},
		Plans: PlansConfig{
			Store:      "memory",
			Database:   "curricula",
			Collection: "plans",
		},
		Layout: LayoutConfig{
			CenterLevel: 5,
			SpacingX:    200,
			SpacingY:    80,
			Policy:      "last",
		},
		Planner: PlannerConfig{
			MaxCredits: backend.DefaultMaxCredits,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "curricula", "config.toml")
}

// Load reads the config file at path over the defaults and applies the
// environment. An empty path skips the file. A .env file in the working
// directory is loaded first; it never overrides variables already set.
func Load(path string) (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment. A
// missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (use .toml, .yaml, or .yml)", filepath.Ext(path))
	}
	return nil
}

// Save writes c to path as TOML or YAML, by extension.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(c)
		data = []byte(sb.String())
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("NEXT_PUBLIC_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	setString(&c.Backend.URL, "CURRICULA_BACKEND_URL")
	setString(&c.Server.Addr, "CURRICULA_ADDR")
	setString(&c.Cache.Backend, "CURRICULA_CACHE")
	setString(&c.Cache.Dir, "CURRICULA_CACHE_DIR")
	setString(&c.Cache.RedisAddr, "CURRICULA_REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "CURRICULA_REDIS_PASSWORD")
	setString(&c.Session.Store, "CURRICULA_SESSION_STORE")
	setString(&c.Session.JWTSecret, "CURRICULA_JWT_SECRET")
	setString(&c.Plans.Store, "CURRICULA_PLANS_STORE")
	setString(&c.Plans.MongoURI, "CURRICULA_MONGO_URI")
	setString(&c.Planner.DefaultProgram, "CURRICULA_PROGRAM")
	if v := os.Getenv("CURRICULA_MAX_CREDITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Planner.MaxCredits = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var problems []error
	bad := func(format string, args ...any) {
		problems = append(problems, errs.New(errs.ErrCodeInvalidInput, format, args...))
	}

	if err := errs.ValidateURL(c.Backend.URL); err != nil {
		bad("backend.url: %s", errs.UserMessage(err))
	}
	for name, d := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"backend.timeout":      c.Backend.Timeout,
		"session.ttl":          c.Session.TTL,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			bad("%s: invalid duration %q", name, d)
		}
	}
	if c.Backend.Retries < 1 {
		bad("backend.retries must be at least 1")
	}

	switch c.Cache.Backend {
	case "file", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			bad("cache.redis_addr is required for the redis cache")
		}
	default:
		bad("cache.backend: unknown backend %q (valid: file, redis, none)", c.Cache.Backend)
	}

	switch c.Session.Store {
	case "memory", "file":
	case "redis":
		if c.Cache.RedisAddr == "" {
			bad("cache.redis_addr is required for redis sessions")
		}
	default:
		bad("session.store: unknown store %q (valid: memory, redis, file)", c.Session.Store)
	}
	if c.Session.CookieName == "" {
		bad("session.cookie_name cannot be empty")
	}

	switch c.Plans.Store {
	case "memory", "none":
	case "mongo":
		if c.Plans.MongoURI == "" {
			bad("plans.mongo_uri is required for the mongo store")
		}
	default:
		bad("plans.store: unknown store %q (valid: memory, mongo, none)", c.Plans.Store)
	}

	if c.Layout.SpacingX <= 0 || c.Layout.SpacingY <= 0 {
		bad("layout spacing must be positive")
	}
	switch c.Layout.Policy {
	case "", "last", "first":
	default:
		bad("layout.policy: unknown policy %q (valid: last, first)", c.Layout.Policy)
	}
	if c.Planner.MaxCredits <= 0 {
		bad("planner.max_credits must be positive")
	}

	return errors.Join(problems...)
}

// Duration parses a validated duration setting, falling back to def.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// LayoutOptions returns the layout grid.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		CenterLevel: c.Layout.CenterLevel,
		SpacingX:    c.Layout.SpacingX,
		SpacingY:    c.Layout.SpacingY,
	}
}

// Policy returns the identity resolution policy.
func (c *Config) Policy() transform.Policy {
	return transform.ParsePolicy(c.Layout.Policy)
}
