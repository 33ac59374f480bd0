// Package listview holds the cached, filtered and paginated state of one entity list.
//
// Every fetch is tagged with the filter/page snapshot it was issued for and a
// sequence number. A response is committed only while its snapshot still matches
// the view and nothing newer has been committed; anything else is discarded.
package listview

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/angelmondragon/shopdesk/internal/gateway"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// Mode selects who slices the list into pages.
type Mode int

const (
	// ClientPaged fetches the full matching set and slices it locally.
	ClientPaged Mode = iota
	// ServerPaged asks the backend for one page at a time.
	ServerPaged
)

func (m Mode) String() string {
	if m == ServerPaged {
		return "server"
	}
	return "client"
}

// Fetcher is the list half of a gateway resource.
type Fetcher[E any] interface {
	List(ctx context.Context, q gateway.Query) (gateway.ListResult[E], error)
}

type Options[E any] struct {
	Name     string
	Mode     Mode
	PageSize int
	// IDOf extracts the server id used to address single entries.
	IDOf    func(E) types.ID
	Filters map[string]string
	Logger  *logger.Logger
	Metrics *metrics.ViewMetrics
}

// PageInfo describes the page currently shown.
type PageInfo struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalCount int
	HasNext    bool
	HasPrev    bool
}

type snapshot struct {
	filters map[string]string
	page    int
	seq     uint64
}

type View[E any] struct {
	name    string
	mode    Mode
	size    int
	idOf    func(E) types.ID
	fetcher Fetcher[E]
	logg    *logger.Logger
	metrics *metrics.ViewMetrics

	mu       sync.Mutex
	filters  map[string]string
	page     int
	items    []E
	meta     *pagination.Meta
	err      error
	loaded   bool
	inflight int
	issued   uint64
	applied  uint64
}

func New[E any](fetcher Fetcher[E], opts Options[E]) *View[E] {
	size := opts.PageSize
	if size <= 0 {
		size = pagination.DefaultLimit
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &View[E]{
		name:    opts.Name,
		mode:    opts.Mode,
		size:    size,
		idOf:    opts.IDOf,
		fetcher: fetcher,
		logg:    logg,
		metrics: opts.Metrics,
		filters: normalizeFilters(opts.Filters),
		page:    1,
		items:   []E{},
	}
}

func (v *View[E]) Name() string { return v.name }

func (v *View[E]) Mode() Mode { return v.mode }

func (v *View[E]) PageSize() int { return v.size }

// Refresh fetches the list for the current filters (and page, when server
// paged). It returns the fetch error only if the result was still current; a
// superseded response is dropped and reported as nil.
func (v *View[E]) Refresh(ctx context.Context) error {
	snap := v.begin()
	q := gateway.Query{Filters: snap.filters}
	if v.mode == ServerPaged {
		q.Page = snap.page
		q.Limit = v.size
	}
	res, err := v.fetcher.List(ctx, q)
	return v.finish(ctx, snap, res, err)
}

func (v *View[E]) begin() snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	v.inflight++
	return snapshot{filters: maps.Clone(v.filters), page: v.page, seq: v.issued}
}

func (v *View[E]) current(snap snapshot) bool {
	if snap.seq <= v.applied {
		return false
	}
	if !maps.Equal(snap.filters, v.filters) {
		return false
	}
	return v.mode == ClientPaged || snap.page == v.page
}

func (v *View[E]) finish(ctx context.Context, snap snapshot, res gateway.ListResult[E], fetchErr error) error {
	ctx = v.logg.WithView(ctx, v.name)
	ctx = v.logg.WithFields(ctx, map[string]any{"seq": snap.seq, "page": snap.page})

	v.mu.Lock()
	v.inflight--
	if !v.current(snap) {
		v.mu.Unlock()
		v.metrics.IncDiscarded(v.name)
		v.logg.Warn(ctx, "listview.fetch.discarded")
		return nil
	}
	v.applied = snap.seq

	if fetchErr == nil && v.mode == ServerPaged && res.Pagination == nil {
		fetchErr = pkgerrors.New(pkgerrors.CodeDecode, "paged response is missing \"pagination\"")
	}
	if fetchErr != nil {
		v.err = fetchErr
		v.mu.Unlock()
		v.logg.Error(ctx, "listview.fetch.failed", fetchErr)
		return fetchErr
	}

	refetch := false
	if v.mode == ServerPaged {
		meta := *res.Pagination
		switch {
		case meta.TotalPages > 0 && v.page > meta.TotalPages:
			// The set shrank under us; jump to the last page instead of showing an empty one.
			v.page = meta.TotalPages
			refetch = true
		case meta.TotalPages == 0 && v.page > 1:
			// An empty set has only page 1.
			v.page = 1
			meta.CurrentPage = 1
			meta.HasPrev = false
			v.items = res.Items
		default:
			v.items = res.Items
		}
		v.meta = &meta
	} else {
		v.items = res.Items
		v.page = pagination.Clamp(v.page, pagination.TotalPages(len(v.items), v.size))
	}
	v.err = nil
	v.loaded = true
	v.mu.Unlock()

	v.metrics.IncApplied(v.name)
	v.logg.Debug(ctx, "listview.fetch.applied")
	if refetch {
		return v.Refresh(ctx)
	}
	return nil
}

// SetFilter changes one filter. An empty value removes the key. Only an actual
// change resets to page 1 and re-fetches.
func (v *View[E]) SetFilter(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	v.mu.Lock()
	current, ok := v.filters[key]
	if (value == "" && !ok) || (ok && current == value) {
		v.mu.Unlock()
		return nil
	}
	if value == "" {
		delete(v.filters, key)
	} else {
		v.filters[key] = value
	}
	v.page = 1
	v.mu.Unlock()
	return v.Refresh(ctx)
}

// SetFilters replaces the whole filter set in one step.
func (v *View[E]) SetFilters(ctx context.Context, filters map[string]string) error {
	next := normalizeFilters(filters)
	v.mu.Lock()
	if maps.Equal(next, v.filters) {
		v.mu.Unlock()
		return nil
	}
	v.filters = next
	v.page = 1
	v.mu.Unlock()
	return v.Refresh(ctx)
}

func (v *View[E]) ClearFilters(ctx context.Context) error {
	return v.SetFilters(ctx, nil)
}

func (v *View[E]) Filters() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return maps.Clone(v.filters)
}

func (v *View[E]) HasFilters() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.filters) > 0
}

// GoToPage moves to page n. Client-paged views clamp into range without a
// fetch; server-paged views fetch the target page.
func (v *View[E]) GoToPage(ctx context.Context, n int) error {
	n = pagination.NormalizePage(n)
	v.mu.Lock()
	if v.mode == ClientPaged {
		v.page = pagination.Clamp(n, pagination.TotalPages(len(v.items), v.size))
		v.mu.Unlock()
		return nil
	}
	if v.meta != nil {
		n = pagination.Clamp(n, v.meta.TotalPages)
	}
	if n == v.page && v.loaded {
		v.mu.Unlock()
		return nil
	}
	v.page = n
	v.mu.Unlock()
	return v.Refresh(ctx)
}

func (v *View[E]) NextPage(ctx context.Context) error {
	return v.GoToPage(ctx, v.Page()+1)
}

func (v *View[E]) PrevPage(ctx context.Context) error {
	return v.GoToPage(ctx, v.Page()-1)
}

func (v *View[E]) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *View[E]) PageInfo() PageInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	info := PageInfo{Page: v.page, PageSize: v.size}
	if v.mode == ServerPaged {
		if v.meta != nil {
			info.TotalPages = v.meta.TotalPages
			info.TotalCount = v.meta.TotalCount
		}
	} else {
		info.TotalCount = len(v.items)
		info.TotalPages = pagination.TotalPages(info.TotalCount, v.size)
	}
	info.HasNext = info.Page < info.TotalPages
	info.HasPrev = info.Page > 1
	return info
}

// Items returns every cached entity: the full matching set when client paged,
// the current page when server paged.
func (v *View[E]) Items() []E {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]E(nil), v.items...)
}

// PageItems returns the entities on the current page.
func (v *View[E]) PageItems() []E {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mode == ServerPaged {
		return append([]E(nil), v.items...)
	}
	return append([]E(nil), pagination.Slice(v.items, v.page, v.size)...)
}

// Find returns the cached entity with id.
func (v *View[E]) Find(id types.ID) (E, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if idx := v.indexOf(id); idx >= 0 {
		return v.items[idx], true
	}
	var zero E
	return zero, false
}

// Loading reports whether any fetch is still in flight.
func (v *View[E]) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inflight > 0
}

// Loaded reports whether a fetch has ever been committed.
func (v *View[E]) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Err is the error of the last committed fetch, nil after a success.
func (v *View[E]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// ApplyCreated adds a server-confirmed entity. An entry with the same id is
// replaced instead, so the entity never appears twice.
func (v *View[E]) ApplyCreated(e E) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if idx := v.indexOf(v.idOf(e)); idx >= 0 {
		v.items[idx] = e
		return
	}
	v.items = append(v.items, e)
	if v.meta != nil {
		v.meta.TotalCount++
	}
}

// ApplyUpdated replaces the entry with the same id in place.
func (v *View[E]) ApplyUpdated(e E) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	idx := v.indexOf(v.idOf(e))
	if idx < 0 {
		return false
	}
	v.items[idx] = e
	return true
}

// ApplyDeleted removes exactly the entry with id; others keep their order.
func (v *View[E]) ApplyDeleted(id types.ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	idx := v.indexOf(id)
	if idx < 0 {
		return false
	}
	v.items = append(v.items[:idx:idx], v.items[idx+1:]...)
	if v.meta != nil && v.meta.TotalCount > 0 {
		v.meta.TotalCount--
	}
	if v.mode == ClientPaged {
		v.page = pagination.Clamp(v.page, pagination.TotalPages(len(v.items), v.size))
	}
	return true
}

// ReconcileCreated brings the cache in line with a confirmed create. When the
// server decides membership or position (active filters, server paging, or a
// fetch still in flight) the list is re-fetched; otherwise it is patched.
func (v *View[E]) ReconcileCreated(ctx context.Context, e E) error {
	if v.serverDecides() {
		return v.Refresh(ctx)
	}
	v.ApplyCreated(e)
	return nil
}

func (v *View[E]) ReconcileUpdated(ctx context.Context, e E) error {
	if v.serverDecides() || !v.ApplyUpdated(e) {
		return v.Refresh(ctx)
	}
	return nil
}

// ReconcileDeleted drops id locally; a server-paged view then re-fetches to
// refill the page.
func (v *View[E]) ReconcileDeleted(ctx context.Context, id types.ID) error {
	v.ApplyDeleted(id)
	v.mu.Lock()
	refetch := v.mode == ServerPaged || v.inflight > 0
	v.mu.Unlock()
	if refetch {
		return v.Refresh(ctx)
	}
	return nil
}

func (v *View[E]) serverDecides() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode == ServerPaged || len(v.filters) > 0 || v.inflight > 0
}

func (v *View[E]) indexOf(id types.ID) int {
	if v.idOf == nil || id.IsZero() {
		return -1
	}
	for i := range v.items {
		if v.idOf(v.items[i]) == id {
			return i
		}
	}
	return -1
}

func normalizeFilters(filters map[string]string) map[string]string {
	out := make(map[string]string, len(filters))
	for key, value := range filters {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
