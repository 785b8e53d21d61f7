// internal/app/bootstrap/runtime.go
package bootstrap

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/notify"
	"github.com/dalemusser/classforge/internal/app/policy/grouppolicy"
	"github.com/dalemusser/classforge/internal/app/store/audit"
	notificationstore "github.com/dalemusser/classforge/internal/app/store/notifications"
	userstore "github.com/dalemusser/classforge/internal/app/store/users"
	"github.com/dalemusser/classforge/internal/app/system/auditlog"
	"github.com/dalemusser/classforge/internal/app/system/mailer"
	"github.com/dalemusser/classforge/internal/app/system/ratelimit"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/app/system/workers"
	"go.uber.org/zap"
)

const (
	ticketTTL          = time.Minute
	retentionInterval  = time.Hour
	loginAttemptsLimit = 20
)

// runtime holds the long-lived services shared by handlers and torn down in
// Shutdown.
type runtime struct {
	Audit      *auditlog.Logger
	Registry   *realtime.Registry
	Server     *realtime.Server
	Tickets    *realtime.Tickets
	Dispatcher *notify.Dispatcher
	Ideas      *ideaflow.Service
	Posting    *ratelimit.Limiter // comments and chat messages, keyed by user id
	Logins     *ratelimit.Limiter // trust sign-in attempts, keyed by client IP

	retention    *workers.NotificationRetention
	bridgeCancel context.CancelFunc
	bridgeDone   chan struct{}
}

// rt carries the runtime from Startup to BuildHandler and Shutdown, whose
// hook signatures have no slot for it. Handlers receive its services as
// arguments and never read rt.
var (
	rtMu sync.Mutex
	rt   *runtime
)

// buildRuntime wires the services. It starts nothing.
func buildRuntime(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*runtime, error) {
	db := deps.MongoDatabase

	tickets, err := realtime.NewTickets(appCfg.RealtimeSecret, ticketTTL)
	if err != nil {
		return nil, err
	}

	audits := auditlog.New(audit.New(db), logger, auditlog.Uniform(appCfg.AuditLog))
	registry := realtime.NewRegistry(logger)

	mailCfg := mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}
	var sender mailer.Sender = mailer.NopMailer{}
	if mailCfg.Enabled() {
		sender = mailer.New(mailCfg)
	}

	dispatcher := notify.New(notify.Config{
		Store:       notificationstore.New(db),
		Users:       userstore.New(db),
		Publisher:   registry,
		Mailer:      sender,
		MailEnabled: mailCfg.Enabled(),
		SiteName:    appCfg.MailFromName,
		BaseURL:     appCfg.BaseURL,
		Log:         logger,
	})

	return &runtime{
		Audit:    audits,
		Registry: registry,
		Server: &realtime.Server{
			Registry: registry,
			CanJoin:  grouppolicy.MemberChecker(db),
			Log:      logger,
		},
		Tickets:    tickets,
		Dispatcher: dispatcher,
		Ideas:      ideaflow.New(db, dispatcher, registry, audits, logger),
		Posting:    ratelimit.New(appCfg.CommentRateLimit, time.Minute),
		Logins:     ratelimit.New(loginAttemptsLimit, time.Minute),
		retention: workers.NewNotificationRetention(
			notificationstore.New(db), logger, retentionInterval, appCfg.NotificationRetention),
	}, nil
}

// start launches the retention worker and, with Redis, the realtime bridge.
func (r *runtime) start(deps DBDeps, logger *zap.Logger) {
	r.retention.Start()

	if deps.Redis == nil {
		logger.Info("realtime running on this instance only (no redis_addr)")
		return
	}
	bridge := realtime.NewRedisBridge(deps.Redis, r.Registry, logger)
	r.Registry.SetForwarder(bridge)

	ctx, cancel := context.WithCancel(context.Background())
	r.bridgeCancel = cancel
	r.bridgeDone = make(chan struct{})
	go func() {
		defer close(r.bridgeDone)
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("realtime bridge stopped", zap.Error(err))
		}
	}()
	logger.Info("realtime bridge started", zap.String("instance", bridge.Instance()))
}

// stop reverses start, closes every socket, and waits for queued emails.
func (r *runtime) stop(logger *zap.Logger) {
	if r.bridgeCancel != nil {
		r.bridgeCancel()
		<-r.bridgeDone
	}
	r.retention.Stop()
	if dropped := r.Registry.Dropped(); dropped > 0 {
		logger.Warn("realtime events dropped on full queues", zap.Int64("dropped", dropped))
	}
	r.Registry.CloseAll()
	r.Posting.Stop()
	r.Logins.Stop()
	r.Dispatcher.Wait()
}
