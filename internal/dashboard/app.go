// Package dashboard wires the view modules to one gateway client and drives
// them from a line-oriented terminal shell.
package dashboard

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shopdesk/internal/catalog"
	"github.com/angelmondragon/shopdesk/internal/customers"
	"github.com/angelmondragon/shopdesk/internal/gateway"
	"github.com/angelmondragon/shopdesk/internal/manufacturing"
	"github.com/angelmondragon/shopdesk/internal/notify"
	"github.com/angelmondragon/shopdesk/internal/sales"
	"github.com/angelmondragon/shopdesk/internal/stock"
	"github.com/angelmondragon/shopdesk/pkg/config"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
)

type Params struct {
	Config *config.Config
	// HTTPClient overrides the transport built from Config.Gateway.
	HTTPClient *http.Client
	Notifier   notify.Notifier
	Confirmer  notify.Confirmer
	Logger     *logger.Logger
	// Registerer receives gateway and view metrics; nil disables them.
	Registerer prometheus.Registerer
	Now        func() time.Time
}

// App holds one instance of every view. Each view owns its caches; the
// lookup catalog here only serves the products and measurements commands.
type App struct {
	Customers     *customers.Module
	Manufacturing *manufacturing.Module
	Sales         *sales.Module
	Stock         *stock.Module
	Catalog       *catalog.Catalog

	notifier notify.Notifier
	logg     *logger.Logger
}

func New(p Params) (*App, error) {
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Notifier == nil {
		p.Notifier = notify.Discard
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	var (
		gatewayMetrics *metrics.GatewayMetrics
		viewMetrics    *metrics.ViewMetrics
	)
	if p.Registerer != nil {
		gatewayMetrics = metrics.NewGatewayMetrics(p.Registerer)
		viewMetrics = metrics.NewViewMetrics(p.Registerer)
	}

	client, err := gateway.New(gateway.Params{
		BaseURL:    p.Config.Gateway.BaseURL,
		HTTPClient: p.HTTPClient,
		Timeout:    p.Config.Gateway.Timeout,
		UserAgent:  p.Config.Gateway.UserAgent,
		Logger:     p.Logger,
		Metrics:    gatewayMetrics,
	})
	if err != nil {
		return nil, err
	}

	views := p.Config.Views
	return &App{
		Customers: customers.New(customers.Params{
			Client:    client,
			PageSize:  views.CustomersPageSize,
			Notifier:  p.Notifier,
			Confirmer: p.Confirmer,
			Logger:    p.Logger,
			Metrics:   viewMetrics,
		}),
		Manufacturing: manufacturing.New(manufacturing.Params{
			Client:    client,
			PageSize:  views.ManufacturesPageSize,
			Notifier:  p.Notifier,
			Confirmer: p.Confirmer,
			Logger:    p.Logger,
			Metrics:   viewMetrics,
			Now:       p.Now,
		}),
		Sales: sales.New(sales.Params{
			Client:    client,
			PageSize:  views.SalesPageSize,
			Notifier:  p.Notifier,
			Confirmer: p.Confirmer,
			Logger:    p.Logger,
			Metrics:   viewMetrics,
		}),
		Stock: stock.New(stock.Params{
			Client:   client,
			PageSize: views.StocksPageSize,
			Notifier: p.Notifier,
			Logger:   p.Logger,
			Metrics:  viewMetrics,
		}),
		Catalog:  catalog.New(client),
		notifier: p.Notifier,
		logg:     p.Logger,
	}, nil
}
