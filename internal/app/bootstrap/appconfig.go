// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CLASSFORGE_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, and log level; everything ClassForge-specific lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name (default: classforge-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// TrustLogin mounts POST /api/auth/login, which signs in by login id
	// alone. Development only.
	TrustLogin bool

	// Realtime
	RealtimeSecret string // signs WebSocket tickets
	RedisAddr      string // empty runs realtime on this instance only
	RedisPassword  string
	RedisDB        int

	// Email/SMTP configuration (empty host disables email)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// BaseURL is the SPA origin used for links in notification emails.
	BaseURL string

	NotificationRetention time.Duration // how long read notifications are kept
	CommentRateLimit      int           // comments plus chat messages per user per minute
	AuditLog              string        // all | db | log | off

	// AllowedOrigins lists SPA origins for CORS and WebSocket upgrades.
	AllowedOrigins []string
}
