// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/matchdesk/internal/app/coordinator"
	"github.com/dalemusser/matchdesk/internal/app/resources"
	"github.com/dalemusser/matchdesk/internal/app/system/backend"
	"github.com/dalemusser/matchdesk/internal/app/system/notify"
	"github.com/dalemusser/matchdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/matchdesk/internal/app/system/timeouts"
	"github.com/dalemusser/matchdesk/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// runtime holds what Startup builds for BuildHandler and Shutdown.
var runtime struct {
	queue   notify.Queue
	desks   *coordinator.Registry
	sweeper *workers.DeskSweeper
	writes  *ratelimit.Limiter

	// internalToken marks the desk's calls to the colocated /api so the
	// write limiter does not count them. Empty with a remote backend.
	internalToken string
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: shared
// templates, the toast queue, the desk registry and its sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	timeouts.Configure(timeouts.Config{Medium: appCfg.BackendTimeout})

	var forget workers.Forgetter
	if deps.Redis != nil {
		runtime.queue = notify.NewRedisQueue(deps.Redis, "", appCfg.DeskIdleTimeout)
	} else {
		mem := notify.NewMemoryQueue()
		runtime.queue = mem
		forget = mem
	}

	var header http.Header
	if appCfg.BackendURL == "" {
		runtime.internalToken = uuid.NewString()
		header = http.Header{ratelimit.InternalHeader: []string{runtime.internalToken}}
	}
	client, err := backend.New(backend.Options{
		BaseURL: appCfg.APIBaseURL(),
		Timeout: appCfg.BackendTimeout,
		Logger:  logger.Named("backend"),
		Header:  header,
	})
	if err != nil {
		return err
	}

	queue := runtime.queue
	deskLog := logger.Named("desk")
	runtime.desks = coordinator.NewRegistry(func(deskID string) *coordinator.Coordinator {
		l := deskLog.With(zap.String("desk_id", deskID))
		return coordinator.New(client, notify.NewDeskNotifier(queue, deskID, l), coordinator.Options{
			PageSize: appCfg.PageSize,
			Logger:   l,
		})
	}, deskLog)

	if appCfg.APIWriteLimit > 0 {
		runtime.writes = ratelimit.New(appCfg.APIWriteLimit, time.Minute)
	}

	runtime.sweeper = workers.NewDeskSweeper(runtime.desks, forget, logger,
		appCfg.DeskSweepInterval, appCfg.DeskIdleTimeout)
	runtime.sweeper.Start()

	logger.Info("matching desk ready",
		zap.String("backend", client.BaseURL()),
		zap.Int("page_size", appCfg.PageSize),
		zap.Bool("redis_queue", deps.Redis != nil))
	return nil
}
