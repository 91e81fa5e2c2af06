// Package browser ties the table state controllers, the column schema and
// the fetch cycle together for one scoped table.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/tablestate"
	"github.com/rebeliceyang/lazyscores/internal/urlstate"
)

// RecordSource is the paginated record store
type RecordSource interface {
	FetchScores(ctx context.Context, req models.FetchRequest) (models.FetchResponse, error)
	FetchFilterOptions(ctx context.Context, scopeID string) (models.FilterOptions, error)
}

// Config scopes a browser
type Config struct {
	ScopeID     string
	ScopeUserID string

	// DefaultOrderBy applies when the address names no sort
	DefaultOrderBy *models.OrderBy

	// VisibilityNamespace keys the persisted column visibility.
	// Defaults to "scores:<ScopeID>".
	VisibilityNamespace string

	// ExcludeFilterColumns removes columns from the filter UI only
	ExcludeFilterColumns []string

	Logger *slog.Logger
}

// Browser is the state and query core of one table
type Browser struct {
	Filters    *tablestate.FilterState
	OrderBy    *tablestate.OrderByState
	Pagination *tablestate.Pagination
	Visibility *tablestate.ColumnVisibility

	cfg      Config
	store    *urlstate.Store
	registry *columns.Registry
	loader   Loader
	options  *models.FilterOptions
	exclude  []string
	logger   *slog.Logger
}

// New creates a browser over store. A nil store starts from an empty
// address; a nil persister keeps column visibility in memory.
func New(cfg Config, registry *columns.Registry, store *urlstate.Store, persister tablestate.VisibilityPersister) (*Browser, error) {
	if cfg.ScopeID == "" {
		return nil, errors.New("scope id is required")
	}
	if registry == nil {
		return nil, errors.New("column registry is required")
	}
	if store == nil {
		store = urlstate.NewStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	namespace := cfg.VisibilityNamespace
	if namespace == "" {
		namespace = "scores:" + cfg.ScopeID
	}

	var implicit []models.FilterCondition
	exclude := append([]string(nil), cfg.ExcludeFilterColumns...)
	if cfg.ScopeUserID != "" {
		implicit = append(implicit, columns.PinnedUserFilter(cfg.ScopeUserID))
		exclude = append(exclude, columns.ColUserID)
	}

	visibility, err := tablestate.NewColumnVisibility(namespace, persister)
	if err != nil {
		return nil, err
	}

	b := &Browser{
		Filters:    tablestate.NewFilterState(store, registry.IsFilterable, implicit...),
		OrderBy:    tablestate.NewOrderByState(store, cfg.DefaultOrderBy, registry.IsSortable),
		Pagination: tablestate.NewPagination(store),
		Visibility: visibility,
		cfg:        cfg,
		store:      store,
		registry:   registry,
		exclude:    exclude,
		logger:     logger,
	}
	b.Visibility.Reconcile(registry.Columns())
	return b, nil
}

// Store returns the address space backing the browser
func (b *Browser) Store() *urlstate.Store {
	return b.store
}

// Registry returns the column schema
func (b *Browser) Registry() *columns.Registry {
	return b.registry
}

// ScopeID returns the scope the browser is bound to
func (b *Browser) ScopeID() string {
	return b.cfg.ScopeID
}

// Address returns the shareable encoding of the current view
func (b *Browser) Address() string {
	return b.store.Encode()
}

// Request composes the fetch request for the current state
func (b *Browser) Request() models.FetchRequest {
	return Compose(ComposeInput{
		Pagination:  b.Pagination.Get(),
		Filters:     b.Filters.Effective(),
		OrderBy:     b.OrderBy.Get(),
		ScopeID:     b.cfg.ScopeID,
		ScopeUserID: b.cfg.ScopeUserID,
	})
}

// BeginFetch supersedes any in-flight fetch and returns the ticket, the
// context to run the fetch under and the request to send.
func (b *Browser) BeginFetch(parent context.Context) (Ticket, context.Context, models.FetchRequest) {
	req := b.Request()
	ticket, ctx := b.loader.Begin(parent)
	b.logger.Debug("fetch started", "ticket", ticket, "page", req.Page, "limit", req.Limit, "filters", len(req.Filter))
	return ticket, ctx, req
}

// ApplyFetch settles the fetch for ticket. Responses for superseded tickets
// are discarded and false is returned.
func (b *Browser) ApplyFetch(ticket Ticket, resp models.FetchResponse, err error) bool {
	if !b.loader.IsCurrent(ticket) {
		b.logger.Debug("stale fetch discarded", "ticket", ticket)
		return false
	}
	if err != nil {
		b.logger.Warn("fetch failed", "ticket", ticket, "error", err)
		return b.loader.Resolve(ticket, nil, 0, err)
	}
	rows := Project(resp.Rows, b.registry.Columns(), b.logger)
	return b.loader.Resolve(ticket, rows, resp.TotalCount, nil)
}

// Load runs one fetch synchronously against src
func (b *Browser) Load(ctx context.Context, src RecordSource) error {
	ticket, fetchCtx, req := b.BeginFetch(ctx)
	resp, err := src.FetchScores(fetchCtx, req)
	b.ApplyFetch(ticket, resp, err)
	if err != nil {
		return fmt.Errorf("failed to fetch scores: %w", err)
	}
	return nil
}

// State returns the fetch display state
func (b *Browser) State() FetchState {
	return b.loader.State()
}

// ApplyFilterOptions records the dynamic filter metadata and reconciles
// column visibility against the schema.
func (b *Browser) ApplyFilterOptions(opts models.FilterOptions) {
	copied := models.FilterOptions{Values: make(map[string][]string, len(opts.Values))}
	for k, v := range opts.Values {
		copied.Values[k] = append([]string(nil), v...)
	}
	b.options = &copied
	b.Visibility.Reconcile(b.registry.Columns())
}

// FilterOptionsLoaded reports whether filter metadata has arrived
func (b *Browser) FilterOptionsLoaded() bool {
	return b.options != nil
}

// FilterableColumns returns the descriptors the filter UI may offer now
func (b *Browser) FilterableColumns() []columns.FilterableColumn {
	return b.registry.FilterableColumns(b.options, b.exclude)
}

// VisibleColumns returns the schema columns currently shown, in order
func (b *Browser) VisibleColumns() []columns.ColumnDefinition {
	var out []columns.ColumnDefinition
	for _, c := range b.registry.Columns() {
		if b.Visibility.Visible(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// ClampPage moves the page index back into range after a successful fetch
// revealed it to be past the last page. It reports whether it moved.
func (b *Browser) ClampPage() bool {
	st := b.State()
	if st.Status != StatusSuccess {
		return false
	}
	cur := b.Pagination.Get()
	count := cur.PageCount(st.TotalCount)
	target := cur.PageIndex
	switch {
	case count == 0:
		target = 0
	case cur.PageIndex >= count:
		target = count - 1
	}
	if target == cur.PageIndex {
		return false
	}
	return b.Pagination.Set(tablestate.PageIndex(target)) == nil
}
