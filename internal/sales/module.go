// Package sales is the server-paged sales list, the sale form with its customer
// picker, and the pending/delivered transitions.
package sales

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopdesk/internal/catalog"
	"github.com/angelmondragon/shopdesk/internal/customers"
	"github.com/angelmondragon/shopdesk/internal/form"
	"github.com/angelmondragon/shopdesk/internal/gateway"
	"github.com/angelmondragon/shopdesk/internal/listview"
	"github.com/angelmondragon/shopdesk/internal/notify"
	"github.com/angelmondragon/shopdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

const (
	DefaultPageSize = 10

	DeliverPrompt = "Mark this sale as delivered? Stock will be deducted."
	DeletePrompt  = "Are you sure you want to delete this sale?"

	markDeliveredPath  = "/sales/mark-delivered"
	revertDeliveryPath = "/sales/revert-delivery"
)

var Routes = gateway.ResourceSpec{
	Name:    "sales",
	List:    "/sales",
	Create:  "/sales/add",
	Item:    "/sales",
	ListKey: "sales",
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
	resource  *gateway.Resource[Sale]
	view      *listview.View[Sale]
	form      *form.Controller[Form]
	catalog   *catalog.Catalog
	customers *customerPicker
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
		resource:  gateway.NewResource[Sale](p.Client, Routes),
		catalog:   catalog.New(p.Client),
		customers: newCustomerPicker(p.Client),
		notifier:  p.Notifier,
		confirmer: p.Confirmer,
		logg:      p.Logger,
	}
	m.view = listview.New[Sale](checkedFetcher{m.resource}, listview.Options[Sale]{
		Name:     Routes.Name,
		Mode:     listview.ServerPaged,
		PageSize: p.PageSize,
		IDOf:     saleID,
		Logger:   p.Logger,
		Metrics:  p.Metrics,
	})
	m.form = form.NewController(form.Params[Form]{
		Name:           Routes.Name,
		Defaults:       DefaultForm,
		Submit:         m.submit,
		CreatedMessage: "Sale added successfully!",
		UpdatedMessage: "Sale updated successfully!",
		Notifier:       p.Notifier,
		Logger:         p.Logger,
	})
	return m
}

// checkedFetcher rejects list pages holding sales that break the status/date pairing.
type checkedFetcher struct {
	resource *gateway.Resource[Sale]
}

func (f checkedFetcher) List(ctx context.Context, q gateway.Query) (gateway.ListResult[Sale], error) {
	res, err := f.resource.List(ctx, q)
	if err != nil {
		return res, err
	}
	for _, s := range res.Items {
		if err := s.Check(); err != nil {
			return gateway.ListResult[Sale]{}, err
		}
	}
	return res, nil
}

func (m *Module) View() *listview.View[Sale] { return m.view }

func (m *Module) Form() *form.Controller[Form] { return m.form }

func (m *Module) Catalog() *catalog.Catalog { return m.catalog }

// Load fetches the lookups, the customer picker list and the first page.
func (m *Module) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.catalog.Load(gctx) })
	g.Go(func() error { return m.customers.load(gctx) })
	g.Go(func() error { return m.view.Refresh(gctx) })
	return m.report(ctx, g.Wait())
}

// SearchCustomers filters the picker list by shop name.
func (m *Module) SearchCustomers(fragment string) []customers.Customer {
	return customers.Search(m.customers.all(), fragment)
}

func (m *Module) CustomerName(id types.ID) string {
	return m.customers.name(id)
}

// SelectCustomer sets the open form's customer.
func (m *Module) SelectCustomer(id types.ID) error {
	if !m.customers.has(id) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown customer "+id.String())
	}
	m.form.Update(func(f *Form) { f.CustomerID = id.String() })
	return nil
}

func (m *Module) StartCreate() {
	m.form.OpenCreate()
}

// StartEdit opens the form for a pending sale. Delivered sales cannot be edited.
func (m *Module) StartEdit(id types.ID) error {
	s, err := m.find(id)
	if err != nil {
		return err
	}
	if !s.Status.Editable() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Delivered sales cannot be edited")
	}
	m.form.OpenEdit(id, FormFrom(s))
	return nil
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
		if err := updated.Check(); err != nil {
			return err
		}
		m.reconciled(ctx, m.view.ReconcileUpdated(ctx, updated))
		return nil
	}
	created, err := m.resource.Create(ctx, payload)
	if err != nil {
		return err
	}
	if err := created.Check(); err != nil {
		return err
	}
	m.reconciled(ctx, m.view.ReconcileCreated(ctx, created))
	return nil
}

// Deliver moves a pending sale to delivered after confirmation. A refusal
// from the server (insufficient stock) is shown verbatim and the sale stays
// pending. It reports whether the sale was delivered.
func (m *Module) Deliver(ctx context.Context, id types.ID) (bool, error) {
	if err := m.allowed(id, enums.SaleTransitionDeliver); err != nil {
		return false, m.report(ctx, err)
	}
	if !m.confirmer.Confirm(ctx, DeliverPrompt) {
		return false, nil
	}
	if err := m.transition(ctx, id, enums.SaleTransitionDeliver, markDeliveredPath); err != nil {
		return false, err
	}
	m.notifier.Notify(ctx, "Sale marked as delivered!", notify.KindSuccess)
	return true, nil
}

// Revert moves a delivered sale back to pending.
func (m *Module) Revert(ctx context.Context, id types.ID) error {
	if err := m.allowed(id, enums.SaleTransitionRevert); err != nil {
		return m.report(ctx, err)
	}
	if err := m.transition(ctx, id, enums.SaleTransitionRevert, revertDeliveryPath); err != nil {
		return err
	}
	m.notifier.Notify(ctx, "Sale reverted to pending", notify.KindSuccess)
	return nil
}

func (m *Module) allowed(id types.ID, t enums.SaleTransition) error {
	s, err := m.find(id)
	if err != nil {
		return err
	}
	if _, err := s.Status.Apply(t); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "Sale is already "+string(s.Status))
	}
	return nil
}

func (m *Module) transition(ctx context.Context, id types.ID, t enums.SaleTransition, path string) error {
	updated, err := m.resource.Action(ctx, string(t), http.MethodPut, path, id)
	if err != nil {
		return m.report(ctx, err)
	}
	if err := updated.Check(); err != nil {
		return m.report(ctx, err)
	}
	if !m.view.ApplyUpdated(updated) {
		m.reconciled(ctx, m.view.Refresh(ctx))
	}
	return nil
}

// Delete removes sale id after confirmation.
func (m *Module) Delete(ctx context.Context, id types.ID) (bool, error) {
	if !m.confirmer.Confirm(ctx, DeletePrompt) {
		return false, nil
	}
	if err := m.resource.Remove(ctx, id); err != nil {
		return false, m.report(ctx, err)
	}
	m.reconciled(ctx, m.view.ReconcileDeleted(ctx, id))
	m.notifier.Notify(ctx, "Sale deleted successfully!", notify.KindSuccess)
	return true, nil
}

func (m *Module) find(id types.ID) (Sale, error) {
	s, ok := m.view.Find(id)
	if !ok {
		return Sale{}, pkgerrors.New(pkgerrors.CodeNotFound, "sale "+id.String()+" is not on this page")
	}
	return s, nil
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
	m.logg.Error(m.logg.WithView(ctx, Routes.Name), "sales.reconcile.failed", err)
	m.notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
}
