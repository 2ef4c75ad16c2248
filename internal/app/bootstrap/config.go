// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/matchdesk/internal/app/system/backend"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/app/system/session"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for matchdesk.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, page_size, etc.
//   - Environment variables: MATCHDESK_MONGO_URI, MATCHDESK_PAGE_SIZE, etc.
//   - Command-line flags: --mongo_uri, --page_size, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "matchdesk", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for the shared toast queue (blank = in-process)"},

	{Name: "backend_url", Default: "", Desc: "Matching backend base URL (blank = this server's /api)"},
	{Name: "backend_timeout", Default: "10s", Desc: "Timeout for each desk-to-backend call"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this server"},

	{Name: "page_size", Default: paging.PageSize, Desc: "Rows per desk panel"},
	{Name: "api_write_limit", Default: 120, Desc: "Mutating /api requests allowed per client IP per minute (0 = unlimited)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: session.DefaultName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "desk_idle_timeout", Default: "30m", Desc: "Close desks unused for this long"},
	{Name: "desk_sweep_interval", Default: "1m", Desc: "How often idle desks are swept"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MATCHDESK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		RedisURL: appValues.String("redis_url"),

		BackendURL:     appValues.String("backend_url"),
		BackendTimeout: appValues.Duration("backend_timeout", backend.DefaultTimeout),
		BaseURL:        appValues.String("base_url"),

		PageSize:      appValues.Int("page_size"),
		APIWriteLimit: appValues.Int("api_write_limit"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		DeskIdleTimeout:   appValues.Duration("desk_idle_timeout", 30*time.Minute),
		DeskSweepInterval: appValues.Duration("desk_sweep_interval", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.RedisURL != "" {
		if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
			return fmt.Errorf("invalid redis_url: %w", err)
		}
	}
	if err := validateHTTPURL(appCfg.APIBaseURL()); err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if appCfg.PageSize < 1 {
		return fmt.Errorf("page_size must be > 0 (got %d)", appCfg.PageSize)
	}
	if appCfg.APIWriteLimit < 0 {
		return fmt.Errorf("api_write_limit must be >= 0 (got %d)", appCfg.APIWriteLimit)
	}
	if appCfg.DeskIdleTimeout <= 0 || appCfg.DeskSweepInterval <= 0 {
		return fmt.Errorf("desk_idle_timeout and desk_sweep_interval must be positive")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
