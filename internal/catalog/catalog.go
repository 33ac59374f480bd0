// Package catalog caches the read-only product and measurement lookups that
// populate selection controls.
package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopdesk/internal/gateway"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

type Product struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

type Measurement struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

var (
	ProductRoutes = gateway.ResourceSpec{
		Name:    "products",
		List:    "/products",
		ListKey: "data",
	}
	MeasurementRoutes = gateway.ResourceSpec{
		Name:    "measurements",
		List:    "/measurements",
		ListKey: "data",
	}
)

// Catalog belongs to a single view; views never share one.
type Catalog struct {
	products     *gateway.Resource[Product]
	measurements *gateway.Resource[Measurement]

	mu              sync.RWMutex
	loaded          bool
	productList     []Product
	measurementList []Measurement
}

func New(client *gateway.Client) *Catalog {
	return &Catalog{
		products:     gateway.NewResource[Product](client, ProductRoutes),
		measurements: gateway.NewResource[Measurement](client, MeasurementRoutes),
	}
}

// Load fetches both lookups concurrently, once. Later calls are no-ops until
// Reload. Nothing is cached unless both fetches succeed.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

func (c *Catalog) Reload(ctx context.Context) error {
	var products gateway.ListResult[Product]
	var measurements gateway.ListResult[Measurement]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = c.products.List(gctx, gateway.Query{})
		return err
	})
	g.Go(func() error {
		var err error
		measurements, err = c.measurements.List(gctx, gateway.Query{})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.productList = products.Items
	c.measurementList = measurements.Items
	c.loaded = true
	return nil
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Product(nil), c.productList...)
}

func (c *Catalog) Measurements() []Measurement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Measurement(nil), c.measurementList...)
}

// ProductName resolves id for display, falling back to the raw id.
func (c *Catalog) ProductName(id types.ID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.productList {
		if p.ID == id {
			return p.Name
		}
	}
	return id.String()
}

func (c *Catalog) MeasurementName(id types.ID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.measurementList {
		if m.ID == id {
			return m.Name
		}
	}
	return id.String()
}

// HasProduct reports whether id is a known product.
func (c *Catalog) HasProduct(id types.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.productList {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (c *Catalog) HasMeasurement(id types.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.measurementList {
		if m.ID == id {
			return true
		}
	}
	return false
}
