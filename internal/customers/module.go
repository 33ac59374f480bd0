// Package customers is the customer list, its city/area filters and the customer form.
package customers

import (
	"context"

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
	FilterCity = "city"
	FilterArea = "area"

	DefaultPageSize = 10

	DeletePrompt = "Are you sure you want to delete this customer?"
)

// Routes is the customer REST surface.
var Routes = gateway.ResourceSpec{
	Name:    "customers",
	ListAll: "/customers/all",
	List:    "/customers",
	Create:  "/customers/addcustomer",
	Item:    "/customers",
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
}

type Module struct {
	resource  *gateway.Resource[Customer]
	view      *listview.View[Customer]
	form      *form.Controller[Form]
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

	m := &Module{
		resource:  gateway.NewResource[Customer](p.Client, Routes),
		notifier:  p.Notifier,
		confirmer: p.Confirmer,
		logg:      p.Logger,
	}
	m.view = listview.New[Customer](m.resource, listview.Options[Customer]{
		Name:     Routes.Name,
		Mode:     listview.ClientPaged,
		PageSize: p.PageSize,
		IDOf:     customerID,
		Logger:   p.Logger,
		Metrics:  p.Metrics,
	})
	m.form = form.NewController(form.Params[Form]{
		Name:           Routes.Name,
		Submit:         m.submit,
		CreatedMessage: "Customer added successfully!",
		UpdatedMessage: "Customer updated successfully!",
		Notifier:       p.Notifier,
		Logger:         p.Logger,
	})
	return m
}

func (m *Module) View() *listview.View[Customer] { return m.view }

func (m *Module) Form() *form.Controller[Form] { return m.form }

// Load fetches the list for the current filters. Failures are notified.
func (m *Module) Load(ctx context.Context) error {
	return m.report(ctx, m.view.Refresh(ctx))
}

func (m *Module) FilterByCity(ctx context.Context, city string) error {
	return m.report(ctx, m.view.SetFilter(ctx, FilterCity, city))
}

func (m *Module) FilterByArea(ctx context.Context, area string) error {
	return m.report(ctx, m.view.SetFilter(ctx, FilterArea, area))
}

func (m *Module) ClearFilters(ctx context.Context) error {
	return m.report(ctx, m.view.ClearFilters(ctx))
}

func (m *Module) StartCreate() {
	m.form.OpenCreate()
}

// StartEdit opens the form with the cached values of customer id.
func (m *Module) StartEdit(id types.ID) error {
	c, ok := m.view.Find(id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer "+id.String()+" is not in the list")
	}
	m.form.OpenEdit(id, FormFrom(c))
	return nil
}

// SetContact stores a typed contact number, keeping digits only.
func (m *Module) SetContact(raw string) {
	m.form.Update(func(f *Form) { f.ContactNo = form.SanitizeContact(raw) })
}

func (m *Module) Submit(ctx context.Context) error {
	return m.form.Submit(ctx)
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

// Delete removes customer id after confirmation. It reports whether the
// customer was deleted.
func (m *Module) Delete(ctx context.Context, id types.ID) (bool, error) {
	if !m.confirmer.Confirm(ctx, DeletePrompt) {
		return false, nil
	}
	if err := m.resource.Remove(ctx, id); err != nil {
		return false, m.report(ctx, err)
	}
	m.reconciled(ctx, m.view.ReconcileDeleted(ctx, id))
	m.notifier.Notify(ctx, "Customer deleted successfully!", notify.KindSuccess)
	return true, nil
}

func (m *Module) report(ctx context.Context, err error) error {
	if err != nil {
		m.notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
	}
	return err
}

// reconciled handles a failed re-fetch after a mutation the server already
// confirmed; the mutation itself is not reported as failed.
func (m *Module) reconciled(ctx context.Context, err error) {
	if err == nil {
		return
	}
	m.logg.Error(m.logg.WithView(ctx, Routes.Name), "customers.reconcile.failed", err)
	m.notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
}
