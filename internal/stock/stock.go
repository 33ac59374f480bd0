// Package stock is the read-only stock list. Stock levels are maintained by
// the server; the client never changes them.
package stock

import (
	"context"
	"strings"

	"github.com/angelmondragon/shopdesk/internal/gateway"
	"github.com/angelmondragon/shopdesk/internal/listview"
	"github.com/angelmondragon/shopdesk/internal/notify"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

const DefaultPageSize = 10

// Record is the quantity on hand for one product in one measurement.
type Record struct {
	Product     string `json:"product"`
	Measurement string `json:"measurement"`
	Quantity    int    `json:"quantity"`
}

// Key identifies a record; stock rows have no id of their own.
func (r Record) Key() types.ID {
	return types.ID(strings.ToLower(r.Product) + "/" + strings.ToLower(r.Measurement))
}

var Routes = gateway.ResourceSpec{
	Name:    "stocks",
	List:    "/stocks",
	ListKey: "stocks",
}

type Params struct {
	Client   *gateway.Client
	PageSize int
	Notifier notify.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.ViewMetrics
}

type Module struct {
	view     *listview.View[Record]
	notifier notify.Notifier
}

func New(p Params) *Module {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Notifier == nil {
		p.Notifier = notify.Discard
	}
	resource := gateway.NewResource[Record](p.Client, Routes)
	return &Module{
		view: listview.New[Record](resource, listview.Options[Record]{
			Name:     Routes.Name,
			Mode:     listview.ClientPaged,
			PageSize: p.PageSize,
			IDOf:     Record.Key,
			Logger:   p.Logger,
			Metrics:  p.Metrics,
		}),
		notifier: p.Notifier,
	}
}

func (m *Module) View() *listview.View[Record] { return m.view }

func (m *Module) Load(ctx context.Context) error {
	err := m.view.Refresh(ctx)
	if err != nil {
		m.notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
	}
	return err
}

// Lookup finds the stock of product in measurement, ignoring case.
func (m *Module) Lookup(product, measurement string) (Record, bool) {
	return m.view.Find(Record{Product: product, Measurement: measurement}.Key())
}
