package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/curricula/pkg/cache"
	"github.com/matzehuels/curricula/pkg/config"
	"github.com/matzehuels/curricula/pkg/observability"
	"github.com/matzehuels/curricula/pkg/plans"
	"github.com/matzehuels/curricula/pkg/server"
	"github.com/matzehuels/curricula/pkg/session"
)

const sessionCleanupInterval = 10 * time.Minute

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API used by the web app.

The server proxies the recommendation backend, lays out curriculum maps,
keeps sign-in sessions, caches histories, and archives planner answers.
Stores are chosen in the config file:

  cache.backend   file | redis | none
  session.store   memory | file | redis
  plans.store     memory | mongo | none`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg := c.config
	logger := loggerFromContext(ctx)
	observability.NewLogHooks(logger).Register()
	defer observability.Reset()

	client, cc, err := c.newClient(ctx, false)
	if err != nil {
		return err
	}
	defer cc.Close()

	sessions, closeSessions, err := c.openSessions(ctx, cc)
	if err != nil {
		return err
	}
	defer closeSessions()

	archive, err := c.openPlans(ctx)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close(context.Background())
	}

	go cleanupSessions(ctx, sessions, c)

	srv := server.New(client, logger, server.Options{
		Sessions:      sessions,
		Plans:         archive,
		Cache:         cc,
		Keys:          cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix),
		JWTSecret:     cfg.Session.JWTSecret,
		SessionTTL:    config.Duration(cfg.Session.TTL, session.DefaultTTL),
		CookieName:    cfg.Session.CookieName,
		SecureCookies: cfg.Server.SecureCookies,
		MaxCredits:    cfg.Planner.MaxCredits,
		Policy:        cfg.Policy(),
		Layout:        cfg.LayoutOptions(),
	})
	if cfg.Session.JWTSecret == "" {
		logger.Warn("session.jwt_secret is empty; bearer tokens are not verified")
	}
	logger.Info("backend", "url", cfg.Backend.URL, "cache", cfg.Cache.Backend, "sessions", cfg.Session.Store, "plans", cfg.Plans.Store)

	return srv.ListenAndServe(ctx, addr,
		config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		config.Duration(cfg.Server.WriteTimeout, 60*time.Second))
}

// openSessions builds the configured session store. Redis sessions reuse
// the cache's connection when the cache is on Redis too.
func (c *CLI) openSessions(ctx context.Context, cc cache.Cache) (session.Store, func() error, error) {
	cfg := c.config
	switch cfg.Session.Store {
	case "file":
		root, err := c.stateRoot()
		if err != nil {
			return nil, nil, err
		}
		fs, err := session.NewFileStore(filepath.Join(root, "server-sessions"))
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return fs, fs.Close, nil
	case "redis":
		if rc, ok := cc.(*cache.RedisCache); ok {
			return session.NewRedisStore(rc.Client(), cfg.Cache.Prefix+"session:"), noClose, nil
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis sessions: %w", err)
		}
		return session.NewRedisStore(client, cfg.Cache.Prefix+"session:"), client.Close, nil
	default:
		return session.NewMemoryStore(), noClose, nil
	}
}

func noClose() error { return nil }

// openPlans builds the plan archive, or nil when archiving is off.
func (c *CLI) openPlans(ctx context.Context) (plans.Store, error) {
	cfg := c.config.Plans
	switch cfg.Store {
	case "none":
		return nil, nil
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		s, err := plans.NewMongoStore(connectCtx, plans.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return plans.NewMemoryStore(), nil
	}
}

// cleanupSessions removes expired sessions until ctx ends.
func cleanupSessions(ctx context.Context, store session.Store, c *CLI) {
	t := time.NewTicker(sessionCleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := store.Cleanup(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.Logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}
