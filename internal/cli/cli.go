// Package cli implements the curricula command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/buildinfo"
	"github.com/matzehuels/curricula/pkg/cache"
	"github.com/matzehuels/curricula/pkg/config"
	"github.com/matzehuels/curricula/pkg/loader"
	"github.com/matzehuels/curricula/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "curricula"

	// sessionTTL caps how long a CLI login lasts; the token's own expiry
	// usually ends it first.
	sessionTTL = 30 * 24 * time.Hour

	retryDelay = 500 * time.Millisecond
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *config.Config

	// stateDir overrides where sessions and drafts are kept ("" = user
	// config dir).
	stateDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), config: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Curricula maps course prerequisites and plans the next term",
		Long: `Curricula fetches a university curriculum from the recommendation backend,
lays it out as a prerequisite map by level, and asks the planner which
courses to take next based on your approved history.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file, .toml or .yaml (default: user config dir)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.mapCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads --config, or the default config file when it exists.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		if p := config.DefaultPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.config = cfg
	if path != "" {
		c.Logger.Debug("config loaded", "path", path)
	}
	return nil
}

// =============================================================================
// Backend Factory
// =============================================================================

// newClient creates a backend client using the configured response cache.
// The returned cache must be closed by the caller.
func (c *CLI) newClient(ctx context.Context, noCache bool) (*backend.Client, cache.Cache, error) {
	cfg := c.config
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	// Scope keys by backend so switching backends never serves stale data.
	keys := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cache.Hash([]byte(cfg.Backend.URL))[:8]+":")

	client, err := backend.NewClient(cfg.Backend.URL,
		backend.WithHTTPClient(&http.Client{Timeout: config.Duration(cfg.Backend.Timeout, 10*time.Second)}),
		backend.WithCache(cc, keys),
		backend.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.Burst),
		backend.WithRetry(cfg.Backend.Retries, retryDelay),
		backend.WithLogger(c.Logger),
	)
	if err != nil {
		_ = cc.Close()
		return nil, nil, err
	}
	return client, cc, nil
}

// openCache opens the configured cache. Failures to create the file cache
// fall back to no caching.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config.Cache
	if noCache || cfg.Backend == "none" {
		return cache.NullCache{}, nil
	}
	if cfg.Backend == "redis" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}

	dir, err := c.fileCacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NullCache{}, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache unavailable, caching disabled", "dir", dir, "error", err)
		return cache.NullCache{}, nil
	}
	return fc, nil
}

// newLoader creates a dataset loader over client with the configured
// layout and resolution policy.
func (c *CLI) newLoader(client *backend.Client) *loader.Loader {
	return loader.New(client, c.Logger, loader.Options{
		Policy: c.config.Policy(),
		Layout: c.config.LayoutOptions(),
	})
}

// =============================================================================
// Sessions
// =============================================================================

func (c *CLI) sessionStore() (*session.CLIStore, error) {
	dir := ""
	if c.stateDir != "" {
		dir = filepath.Join(c.stateDir, "sessions")
	}
	return session.NewCLIStore(dir)
}

// requireSession returns the stored login and a context carrying its token.
func (c *CLI) requireSession(ctx context.Context) (*session.Session, context.Context, error) {
	store, err := c.sessionStore()
	if err != nil {
		return nil, ctx, err
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return nil, ctx, fmt.Errorf("read session: %w", err)
	}
	if sess == nil {
		return nil, ctx, fmt.Errorf("not logged in; run '%s login' first", appName)
	}
	return sess, backend.WithToken(ctx, sess.AccessToken), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/curricula/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// stateRoot is where drafts are kept.
func (c *CLI) stateRoot() (string, error) {
	if c.stateDir != "" {
		return c.stateDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// program returns the explicit program flag or the configured default.
func (c *CLI) program(flag string) string {
	if flag != "" {
		return flag
	}
	return c.config.Planner.DefaultProgram
}
