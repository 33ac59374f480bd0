package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopdesk/api/controllers"
	"github.com/angelmondragon/shopdesk/api/middleware"
	"github.com/angelmondragon/shopdesk/pkg/config"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	pkgredis "github.com/angelmondragon/shopdesk/pkg/redis"
)

// Services groups the handlers' backing services. *demostore.Store
// satisfies every one of them.
type Services struct {
	Customers    controllers.CustomerService
	Catalog      controllers.CatalogService
	Manufactures controllers.ManufactureService
	Sales        controllers.SaleService
	Stocks       controllers.StockService
}

// ReadyChecks are the dependencies pinged by /health/ready. A nil entry is skipped.
type ReadyChecks map[string]controllers.Pinger

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	svc Services,
	checks ReadyChecks,
	idemStore pkgredis.IdempotencyStore,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.DemoAPI.CORSOrigins),
		middleware.Metrics(httpMetrics),
		middleware.Idempotency(idemStore, cfg.Redis.IdemTTL, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/customers", func(r chi.Router) {
		r.Get("/all", controllers.CustomersAll(svc.Customers, logg))
		r.Get("/", controllers.CustomersFiltered(svc.Customers, logg))
		r.Post("/addcustomer", controllers.CustomerCreate(svc.Customers, logg))
		r.Put("/{id}", controllers.CustomerUpdate(svc.Customers, logg))
		r.Delete("/{id}", controllers.CustomerDelete(svc.Customers, logg))
	})

	r.Get("/products", controllers.ProductsList(svc.Catalog, logg))
	r.Get("/measurements", controllers.MeasurementsList(svc.Catalog, logg))

	r.Route("/manufactures", func(r chi.Router) {
		r.Get("/all", controllers.ManufacturesAll(svc.Manufactures, logg))
		r.Get("/", controllers.ManufacturesFiltered(svc.Manufactures, logg))
		r.Post("/add", controllers.ManufactureCreate(svc.Manufactures, logg))
		r.Put("/{id}", controllers.ManufactureUpdate(svc.Manufactures, logg))
		r.Delete("/{id}", controllers.ManufactureDelete(svc.Manufactures, logg))
	})

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", controllers.SalesList(svc.Sales, logg))
		r.Post("/add", controllers.SaleCreate(svc.Sales, logg))
		r.Put("/mark-delivered/{id}", controllers.SaleMarkDelivered(svc.Sales, logg))
		r.Put("/revert-delivery/{id}", controllers.SaleRevertDelivery(svc.Sales, logg))
		r.Put("/{id}", controllers.SaleUpdate(svc.Sales, logg))
		r.Delete("/{id}", controllers.SaleDelete(svc.Sales, logg))
	})

	r.Get("/stocks", controllers.StocksList(svc.Stocks, logg))

	return r
}

// StoreServices wires one value implementing every service interface.
func StoreServices(s interface {
	controllers.CustomerService
	controllers.CatalogService
	controllers.ManufactureService
	controllers.SaleService
	controllers.StockService
}) Services {
	return Services{Customers: s, Catalog: s, Manufactures: s, Sales: s, Stocks: s}
}
