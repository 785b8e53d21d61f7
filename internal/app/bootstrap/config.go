// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for ClassForge.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CLASSFORGE_MONGO_URI, CLASSFORGE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "classforge", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "classforge-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},
	{Name: "trust_login", Default: false, Desc: "Enable sign-in by login id alone (development only)"},

	// Realtime
	{Name: "realtime_secret", Default: "", Desc: "WebSocket ticket signing secret (defaults to session_key)"},
	{Name: "redis_addr", Default: "", Desc: "Redis address for the cross-instance realtime bridge (blank disables)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables email)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@classforge.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "ClassForge", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:5173", Desc: "SPA base URL for email links"},

	{Name: "notification_retention", Default: "2160h", Desc: "How long read notifications are kept (default 90 days)"},
	{Name: "comment_rate_limit", Default: 30, Desc: "Comments plus chat messages allowed per user per minute"},
	{Name: "audit_log", Default: "all", Desc: "Audit logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "allowed_origins", Default: "http://localhost:5173", Desc: "Comma-separated SPA origins for CORS and WebSocket"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CLASSFORGE_* for app) and flags,
// merging with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLASSFORGE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),
		TrustLogin:       appValues.Bool("trust_login"),

		RealtimeSecret: appValues.String("realtime_secret"),
		RedisAddr:      appValues.String("redis_addr"),
		RedisPassword:  appValues.String("redis_password"),
		RedisDB:        appValues.Int("redis_db"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		NotificationRetention: appValues.Duration("notification_retention", 90*24*time.Hour),
		CommentRateLimit:      appValues.Int("comment_rate_limit"),
		AuditLog:              appValues.String("audit_log"),
		AllowedOrigins:        splitList(appValues.String("allowed_origins")),
	}

	if appCfg.RealtimeSecret == "" {
		appCfg.RealtimeSecret = appCfg.SessionKey
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before connecting. Production refuses the
// development session key, short keys, and trust sign-in.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.CommentRateLimit <= 0 {
		return fmt.Errorf("comment_rate_limit must be positive, got %d", appCfg.CommentRateLimit)
	}
	if appCfg.NotificationRetention <= 0 {
		return fmt.Errorf("notification_retention must be positive")
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey || len(appCfg.SessionKey) < 32 {
			return fmt.Errorf("session_key must be a private value of 32+ characters in prod")
		}
		if appCfg.TrustLogin {
			return fmt.Errorf("trust_login cannot be enabled in prod")
		}
	}
	if appCfg.TrustLogin {
		logger.Warn("trust_login is enabled: anyone who knows a login id can sign in")
	}
	return nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
