// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds matchdesk's own configuration.
//
// These values come from environment variables (MATCHDESK_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework side: ports, TLS, logging, request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Shared toast queue. Blank keeps toasts in process, which only works
	// with a single instance.
	RedisURL string

	// BackendURL is where the desk sends its REST calls. Blank means the
	// API mounted by this same process at BaseURL + "/api".
	BackendURL     string
	BackendTimeout time.Duration
	BaseURL        string

	// PageSize is the row count of every desk panel.
	PageSize int

	// APIWriteLimit caps mutating /api requests per client IP per minute.
	// Zero disables throttling.
	APIWriteLimit int

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: matchdesk-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Desks idle longer than DeskIdleTimeout are closed by the sweeper,
	// which runs every DeskSweepInterval.
	DeskIdleTimeout   time.Duration
	DeskSweepInterval time.Duration
}

// APIBaseURL is the base the desk's backend client talks to.
func (c AppConfig) APIBaseURL() string {
	if c.BackendURL != "" {
		return c.BackendURL
	}
	return c.BaseURL + "/api"
}
