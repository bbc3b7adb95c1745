package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hangarops/hangar-backend/api/controllers"
	archivecontrollers "github.com/hangarops/hangar-backend/api/controllers/archive"
	stockcontrollers "github.com/hangarops/hangar-backend/api/controllers/stock"
	worklogcontrollers "github.com/hangarops/hangar-backend/api/controllers/worklog"
	workordercontrollers "github.com/hangarops/hangar-backend/api/controllers/workorders"
	"github.com/hangarops/hangar-backend/api/middleware"
	"github.com/hangarops/hangar-backend/internal/archive"
	"github.com/hangarops/hangar-backend/internal/archiveguard"
	"github.com/hangarops/hangar-backend/internal/stockledger"
	"github.com/hangarops/hangar-backend/internal/worklog"
	"github.com/hangarops/hangar-backend/internal/workorders"
	"github.com/hangarops/hangar-backend/pkg/config"
	"github.com/hangarops/hangar-backend/pkg/logger"
	"github.com/hangarops/hangar-backend/pkg/metrics"
	"github.com/hangarops/hangar-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	workOrderService workorders.Service,
	workLogService worklog.Service,
	archiveService archive.Service,
	guard archiveguard.Guard,
	ledger stockledger.Ledger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.ClientID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	readyDeps := map[string]controllers.Pinger{"db": dbP}
	if p, ok := redisClient.(controllers.Pinger); ok && p != nil {
		readyDeps["redis"] = p
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	}

	// Idempotency runs inline so chi has resolved the full route pattern.
	idem := middleware.Idempotency(redisClient, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/work-orders", func(r chi.Router) {
			r.Post("/", workordercontrollers.Create(workOrderService, logg))
			r.Get("/", workordercontrollers.List(workOrderService, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", workordercontrollers.Detail(workOrderService, logg))
				r.Put("/phase2", workordercontrollers.UpdatePhase2(workOrderService, logg))
				r.With(idem).Put("/phase3", workordercontrollers.UpdatePhase3(workOrderService, logg))
				r.With(idem).Post("/close", workordercontrollers.Close(workOrderService, logg))
				r.With(idem).Post("/cancel", workordercontrollers.Cancel(workOrderService, logg))
				r.Put("/invoice", workordercontrollers.SetInvoice(workOrderService, logg))
				r.Post("/archive", workordercontrollers.Archive(workOrderService, logg))
				r.Post("/unarchive", workordercontrollers.Unarchive(workOrderService, logg))
				r.Post("/work-log", worklogcontrollers.AddEntry(workLogService, logg))
				r.Get("/work-log", worklogcontrollers.ListByOrder(workLogService, logg))
			})
		})

		r.Route("/work-log", func(r chi.Router) {
			r.Get("/", worklogcontrollers.ListByEmployee(workLogService, logg))
			r.Put("/{entryId}", worklogcontrollers.EditEntry(workLogService, logg))
			r.Delete("/{entryId}", worklogcontrollers.RemoveEntry(workLogService, logg))
		})

		r.Get("/stock/{itemId}/movements", stockcontrollers.Movements(ledger, logg))

		r.Route("/archive/{kind}/{id}", func(r chi.Router) {
			r.Get("/references", archivecontrollers.References(guard, logg))
			r.Post("/", archivecontrollers.Archive(archiveService, logg))
			r.Delete("/", archivecontrollers.Unarchive(archiveService, logg))
		})
	})

	return r
}
