// Package manufacturing is the manufacturing record list with its date-range
// filter, the per-date grouping and the record form.
package manufacturing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopdesk/internal/catalog"
	"github.com/angelmondragon/shopdesk/internal/form"
	"github.com/angelmondragon/shopdesk/internal/gateway"
	"github.com/angelmondragon/shopdesk/internal/listview"
	"github.com/angelmondragon/shopdesk/internal/notify"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

const (
	FilterStartDate = "startDate"
	FilterEndDate   = "endDate"

	DefaultPageSize = 5

	DeletePrompt = "Are you sure you want to delete this manufacturing record?"
)

var Routes = gateway.ResourceSpec{
	Name:    "manufactures",
	ListAll: "/manufactures/all",
	List:    "/manufactures",
	Create:  "/manufactures/add",
	Item:    "/manufactures",
	ListKey: "data",
	ItemKey: "data",
}

type Params struct {
	Client    *gateway.Client
	PageSize  int
	Notifier  notify.Notifier
	Confirmer notify.Confirmer
	Logger    *logger.Logger
	Metrics   *metrics.ViewMetrics
	// Now supplies today's date for form defaults.
	Now func() time.Time
}

type Module struct {
	resource  *gateway.Resource[Record]
	view      *listview.View[Record]
	form      *form.Controller[Form]
	catalog   *catalog.Catalog
	notifier  notify.Notifier
	confirmer notify.Confirmer
	logg      *logger.Logger
}

func New(p Params) *Module {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Notifier == nil {
		p.Notifier = notify.Discard
	}
	if p.Confirmer == nil {
		p.Confirmer = notify.StaticConfirmer(false)
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	m := &Module{
		resource:  gateway.NewResource[Record](p.Client, Routes),
		catalog:   catalog.New(p.Client),
		notifier:  p.Notifier,
		confirmer: p.Confirmer,
		logg:      p.Logger,
	}
	m.view = listview.New[Record](m.resource, listview.Options[Record]{
		Name:     Routes.Name,
		Mode:     listview.ClientPaged,
		PageSize: p.PageSize,
		IDOf:     recordID,
		Logger:   p.Logger,
		Metrics:  p.Metrics,
	})
	now := p.Now
	m.form = form.NewController(form.Params[Form]{
		Name:           Routes.Name,
		Defaults:       func() Form { return DefaultForm(now) },
		Validate:       m.validate,
		Submit:         m.submit,
		CreatedMessage: "Manufacturing record created successfully!",
		UpdatedMessage: "Manufacturing record updated successfully!",
		Notifier:       p.Notifier,
		Logger:         p.Logger,
	})
	return m
}

func (m *Module) View() *listview.View[Record] { return m.view }

func (m *Module) Form() *form.Controller[Form] { return m.form }

func (m *Module) Catalog() *catalog.Catalog { return m.catalog }

// Load fetches the lookups and the record list concurrently.
func (m *Module) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.catalog.Load(gctx) })
	g.Go(func() error { return m.view.Refresh(gctx) })
	return m.report(ctx, g.Wait())
}

// Groups is the date grouping of every record matching the filter.
func (m *Module) Groups() []Group {
	return GroupByDate(m.view.Items())
}

// PageGroups is the date grouping of the records on the current page.
func (m *Module) PageGroups() []Group {
	return GroupByDate(m.view.PageItems())
}

// SetDateRange filters by manufacture date. Either bound may be empty; a
// range that ends before it starts is rejected without fetching.
func (m *Module) SetDateRange(ctx context.Context, start, end string) error {
	filters := map[string]string{}
	var startDate, endDate types.Date
	if start != "" {
		d, err := types.ParseDate(start)
		if err != nil {
			return m.report(ctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "startDate must be a date (YYYY-MM-DD)"))
		}
		startDate = d
		filters[FilterStartDate] = d.String()
	}
	if end != "" {
		d, err := types.ParseDate(end)
		if err != nil {
			return m.report(ctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "endDate must be a date (YYYY-MM-DD)"))
		}
		endDate = d
		filters[FilterEndDate] = d.String()
	}
	if !startDate.IsZero() && !endDate.IsZero() && endDate.Before(startDate) {
		return m.report(ctx, pkgerrors.New(pkgerrors.CodeValidation, "startDate must not be after endDate"))
	}
	return m.report(ctx, m.view.SetFilters(ctx, filters))
}

func (m *Module) ClearFilters(ctx context.Context) error {
	return m.report(ctx, m.view.ClearFilters(ctx))
}

func (m *Module) StartCreate() {
	m.form.OpenCreate()
}

func (m *Module) StartEdit(id types.ID) error {
	r, ok := m.view.Find(id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "manufacturing record "+id.String()+" is not in the list")
	}
	m.form.OpenEdit(id, FormFrom(r))
	return nil
}

func (m *Module) Submit(ctx context.Context) error {
	return m.form.Submit(ctx)
}

// validate runs the field rules, then requires product and measurement to be
// catalog entries once the catalog has loaded.
func (m *Module) validate(values Form) error {
	if err := form.Validate(values); err != nil {
		return err
	}
	if !m.catalog.Loaded() {
		return nil
	}
	payload := values.Payload()
	if !m.catalog.HasProduct(payload.ProductID) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Unknown product %s", payload.ProductID))
	}
	if !m.catalog.HasMeasurement(payload.MeasurementID) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Unknown measurement %s", payload.MeasurementID))
	}
	return nil
}

func (m *Module) submit(ctx context.Context, mode form.Mode, id types.ID, values Form) error {
	payload := values.Payload()
	if mode == form.ModeEdit {
		updated, err := m.resource.Update(ctx, id, payload)
		if err != nil {
			return err
		}
		m.reconciled(ctx, m.view.ReconcileUpdated(ctx, updated))
		return nil
	}
	created, err := m.resource.Create(ctx, payload)
	if err != nil {
		return err
	}
	m.reconciled(ctx, m.view.ReconcileCreated(ctx, created))
	return nil
}

func (m *Module) Delete(ctx context.Context, id types.ID) (bool, error) {
	if !m.confirmer.Confirm(ctx, DeletePrompt) {
		return false, nil
	}
	if err := m.resource.Remove(ctx, id); err != nil {
		return false, m.report(ctx, err)
	}
	m.reconciled(ctx, m.view.ReconcileDeleted(ctx, id))
	m.notifier.Notify(ctx, "Manufacturing record deleted successfully!", notify.KindSuccess)
	return true, nil
}

func (m *Module) report(ctx context.Context, err error) error {
	if err != nil {
		m.notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
	}
	return err
}

func (m *Module) reconciled(ctx context.Context, err error) {
	if err == nil {
		return
	}
	m.logg.Error(m.logg.WithView(ctx, Routes.Name), "manufactures.reconcile.failed", err)
	m.notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
}
