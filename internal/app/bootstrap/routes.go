// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	apifeature "github.com/dalemusser/matchdesk/internal/app/features/api"
	errorsfeature "github.com/dalemusser/matchdesk/internal/app/features/errors"
	healthfeature "github.com/dalemusser/matchdesk/internal/app/features/health"
	matchingfeature "github.com/dalemusser/matchdesk/internal/app/features/matching"
	"github.com/dalemusser/matchdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/matchdesk/internal/app/system/session"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The router carries the JSON API under /api, the
// matching desk under /matching, health checks and static assets.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if runtime.desks == nil {
		return nil, errors.New("desk registry not initialized; Startup must run first")
	}

	// Secure cookies are enabled in production mode.
	sessionMgr, err := session.NewSessionManager(session.Options{
		Key:    appCfg.SessionKey,
		Name:   appCfg.SessionName,
		Domain: appCfg.SessionDomain,
		Secure: coreCfg.Env == "prod",
		Dev:    coreCfg.Env == "dev",
	}, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	apiHandler := apifeature.NewHandler(deps.MongoDatabase, appCfg.PageSize, logger.Named("api"))
	r.Route("/api", func(r chi.Router) {
		r.Use(ratelimit.Writes(runtime.writes, runtime.internalToken, logger))
		r.Mount("/", apifeature.Routes(apiHandler))
	})

	matchingHandler := matchingfeature.NewHandler(runtime.desks, runtime.queue, errLog, logger)
	r.Mount("/matching", matchingfeature.Routes(matchingHandler, sessionMgr))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/matching", http.StatusSeeOther)
	})

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
