// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	groupsfeature "github.com/dalemusser/classforge/internal/app/features/groups"
	healthfeature "github.com/dalemusser/classforge/internal/app/features/health"
	ideasfeature "github.com/dalemusser/classforge/internal/app/features/ideas"
	loginfeature "github.com/dalemusser/classforge/internal/app/features/login"
	logoutfeature "github.com/dalemusser/classforge/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/classforge/internal/app/features/notifications"
	userinfofeature "github.com/dalemusser/classforge/internal/app/features/userinfo"
	wsfeature "github.com/dalemusser/classforge/internal/app/features/ws"
	userstore "github.com/dalemusser/classforge/internal/app/store/users"
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook. ClassForge is a JSON API for a separate SPA, so every
// feature is mounted under /api except the health check.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rtMu.Lock()
	svc := rt
	rtMu.Unlock()
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch the user on each request so role changes and disabled accounts
	// take effect immediately.
	fetcher := userstore.NewFetcher(deps.MongoDatabase)
	sessionMgr.SetUserFetcher(fetcher)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Loads the SessionUser into context when signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		// Authentication
		if appCfg.TrustLogin {
			loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, svc.Audit, svc.Logins, logger)
			api.Mount("/auth/login", loginfeature.Routes(loginHandler))
		}
		logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.Audit, logger)
		api.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))
		api.Mount("/auth/me", userinfofeature.Routes(userinfofeature.NewHandler()))

		// Ideas, comments, mentoring
		ideasHandler := ideasfeature.NewHandler(svc.Ideas, svc.Posting, logger)
		api.Mount("/ideas", ideasfeature.Routes(ideasHandler, sessionMgr))

		notificationsHandler := notificationsfeature.NewHandler(deps.MongoDatabase, logger)
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

		groupsHandler := groupsfeature.NewHandler(deps.MongoDatabase, svc.Registry, svc.Posting, svc.Audit, logger)
		api.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

		wsHandler := wsfeature.NewHandler(svc.Server, svc.Tickets, fetcher, appCfg.AllowedOrigins, logger)
		api.Mount("/realtime", wsfeature.Routes(wsHandler, sessionMgr))

		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respond.NotFound(w, "no such endpoint")
		})
	})

	return r, nil
}
