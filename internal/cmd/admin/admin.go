// Package admin wires configuration and dependencies for the admin web
// service and runs it.
package admin

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notifyops/notify-admin/internal/cache"
	"github.com/notifyops/notify-admin/internal/integrations"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/platform/config"
	"github.com/notifyops/notify-admin/internal/platform/otel"
	"github.com/notifyops/notify-admin/internal/services/admin"
	"github.com/notifyops/notify-admin/internal/session"
	"github.com/notifyops/notify-admin/internal/token"
)

// Config holds the admin command configuration. Every field can be set
// through the environment; a few common ones also accept flags.
type Config struct {
	HTTPAddr  string `env:"NOTIFY_ADMIN_ADDR" envDefault:":8082"`
	StaticDir string `env:"NOTIFY_ADMIN_STATIC_DIR"`
	Debug     bool   `env:"NOTIFY_ADMIN_DEBUG"`

	APIBaseURL  string `env:"NOTIFY_ADMIN_API_URL"`
	APIClientID string `env:"NOTIFY_ADMIN_CLIENT_ID" envDefault:"notify-admin"`
	APISecret   string `env:"NOTIFY_ADMIN_API_SECRET"`
	RouteSecret string `env:"NOTIFY_ADMIN_ROUTE_SECRET"`

	RedisURL      string        `env:"NOTIFY_ADMIN_REDIS_URL"`
	SessionSecret string        `env:"NOTIFY_ADMIN_SESSION_SECRET"`
	TokenSecret   string        `env:"NOTIFY_ADMIN_TOKEN_SECRET"`
	TokenMaxAge   time.Duration `env:"NOTIFY_ADMIN_TOKEN_MAX_AGE" envDefault:"24h"`

	AssetDomain string `env:"NOTIFY_ADMIN_ASSET_DOMAIN"`

	FileScanURL string `env:"NOTIFY_ADMIN_FILE_SCAN_URL"`
	FileScanKey string `env:"NOTIFY_ADMIN_FILE_SCAN_KEY"`

	CRMURL string `env:"NOTIFY_ADMIN_CRM_URL"`
	CRMKey string `env:"NOTIFY_ADMIN_CRM_KEY"`

	ObjectStoreURL    string `env:"NOTIFY_ADMIN_OBJECT_STORE_URL"`
	ObjectStoreBucket string `env:"NOTIFY_ADMIN_OBJECT_STORE_BUCKET" envDefault:"notify-admin-uploads"`
	ObjectStoreKey    string `env:"NOTIFY_ADMIN_OBJECT_STORE_KEY"`

	AnalyticsURL string `env:"NOTIFY_ADMIN_ANALYTICS_URL"`
	AnalyticsKey string `env:"NOTIFY_ADMIN_ANALYTICS_KEY"`
}

// ParseConfig loads Config from the environment and parses flag
// overrides. A nil environ reads the process environment; tests pass a
// map instead.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	var err error
	if environ == nil {
		err = config.ParseEnv(&cfg)
	} else {
		err = config.ParseEnvFrom(&cfg, environ)
	}
	if err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "static asset directory")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis connection URL (empty uses in-process stores)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "serve cookies without the Secure attribute")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run builds the dependency graph from cfg and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := otel.Setup(ctx, "notify-admin")
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("WARN shutdown tracing: %v", err)
		}
	}()

	apiClient, err := notify.NewClient(notify.Config{
		BaseURL:     cfg.APIBaseURL,
		ClientID:    cfg.APIClientID,
		Secret:      cfg.APISecret,
		RouteSecret: cfg.RouteSecret,
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	var cacheStore cache.Store
	var sessionStore session.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer func() {
			if err := client.Close(); err != nil {
				log.Printf("WARN close redis client: %v", err)
			}
		}()
		cacheStore = cache.NewRedisStore(client)
		sessionStore = session.NewRedisStore(client)
	} else {
		// In-process stores lose sessions on restart. Fine for
		// development, not for a real deployment.
		log.Printf("WARN no redis url configured, using in-process stores")
		cacheStore = cache.NewMemoryStore()
		sessionStore = session.NewMemoryStore()
	}

	sessions, err := session.NewManager(session.Config{
		Store:  sessionStore,
		Secret: cfg.SessionSecret,
		Secure: !cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("init session manager: %w", err)
	}

	tokens, err := token.NewSigner(cfg.TokenSecret, nil)
	if err != nil {
		return fmt.Errorf("init token signer: %w", err)
	}

	serverConfig := admin.Config{
		HTTPAddr:    cfg.HTTPAddr,
		API:         cache.NewClient(apiClient, cacheStore),
		Sessions:    sessions,
		Tokens:      tokens,
		AssetDomain: cfg.AssetDomain,
		StaticDir:   cfg.StaticDir,
		TokenMaxAge: cfg.TokenMaxAge,
		Debug:       cfg.Debug,
	}

	// Integrations are optional: an unconfigured one stays nil and its
	// call sites degrade per their own contracts.
	if cfg.FileScanURL != "" {
		serverConfig.FileScanner = integrations.NewFileScanner(integrations.FileScannerConfig{
			BaseURL: cfg.FileScanURL,
			APIKey:  cfg.FileScanKey,
		})
	}
	if cfg.CRMURL != "" {
		serverConfig.CRM = integrations.NewCRM(integrations.CRMConfig{
			BaseURL: cfg.CRMURL,
			APIKey:  cfg.CRMKey,
		})
	}
	if cfg.ObjectStoreURL != "" {
		serverConfig.ObjectStore = integrations.NewObjectStore(integrations.ObjectStoreConfig{
			BaseURL: cfg.ObjectStoreURL,
			Bucket:  cfg.ObjectStoreBucket,
			APIKey:  cfg.ObjectStoreKey,
		})
	}
	if cfg.AnalyticsURL != "" {
		serverConfig.Analytics = integrations.NewAnalytics(integrations.AnalyticsConfig{
			EndpointURL: cfg.AnalyticsURL,
			WriteKey:    cfg.AnalyticsKey,
		})
	}

	server, err := admin.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("init admin server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve admin: %w", err)
	}
	return nil
}
