package sales

import (
	"context"
	"sync"

	"github.com/angelmondragon/shopdesk/internal/customers"
	"github.com/angelmondragon/shopdesk/internal/gateway"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// customerPicker is the sales view's own copy of the customer list.
type customerPicker struct {
	resource *gateway.Resource[customers.Customer]

	mu   sync.RWMutex
	list []customers.Customer
}

func newCustomerPicker(client *gateway.Client) *customerPicker {
	return &customerPicker{resource: gateway.NewResource[customers.Customer](client, customers.Routes)}
}

func (p *customerPicker) load(ctx context.Context) error {
	res, err := p.resource.List(ctx, gateway.Query{})
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.list = res.Items
	p.mu.Unlock()
	return nil
}

func (p *customerPicker) all() []customers.Customer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]customers.Customer(nil), p.list...)
}

func (p *customerPicker) has(id types.ID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.list {
		if c.ID == id {
			return true
		}
	}
	return false
}

// name resolves id to a shop name, falling back to the raw id.
func (p *customerPicker) name(id types.ID) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.list {
		if c.ID == id {
			return c.ShopName
		}
	}
	return id.String()
}
