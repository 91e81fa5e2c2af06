// Package scores reads labeling scores from Postgres.
package scores

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/lazyscores/internal/filter"
	"github.com/rebeliceyang/lazyscores/internal/models"
)

// Querier is the subset of pgxpool.Pool the store needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// sqlColumns maps column ids to their SQL expressions. It doubles as the
// filter and ORDER BY whitelist.
var sqlColumns = map[string]string{
	models.FieldID:            "s.id",
	models.FieldTimestamp:     "s.timestamp",
	models.FieldName:          "s.name",
	models.FieldValue:         "s.value",
	models.FieldSource:        "s.source",
	models.FieldDataType:      "s.data_type",
	models.FieldTraceID:       "s.trace_id",
	models.FieldObservationID: "s.observation_id",
	models.FieldComment:       "s.comment",
	models.FieldAuthorUserID:  "s.author_user_id",
	models.FieldTraceName:     "t.name",
	models.FieldUserID:        "t.user_id",
}

const fromClause = "FROM scores s LEFT JOIN traces t ON t.id = s.trace_id AND t.project_id = s.project_id"

const selectColumns = "s.id, s.project_id, s.timestamp, s.name, s.value, s.string_value, s.source, s.data_type, " +
	"s.trace_id, s.observation_id, t.name, t.user_id, s.author_user_id, s.comment"

// Store is the Postgres record source
type Store struct {
	db      Querier
	builder *filter.Builder
	timeout time.Duration
	logger  *slog.Logger
}

// NewStore creates a store. A zero timeout leaves queries bounded only by
// the caller's context.
func NewStore(db Querier, timeout time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		db:      db,
		builder: filter.NewBuilder(sqlColumns),
		timeout: timeout,
		logger:  logger,
	}
}

// PageQuery is a ready to run page and count query pair
type PageQuery struct {
	Select    string
	Count     string
	Args      []interface{}
	CountArgs []interface{}
}

// BuildPageQuery translates a fetch request into SQL
func (s *Store) BuildPageQuery(req models.FetchRequest) (PageQuery, error) {
	if req.ScopeID == "" {
		return PageQuery{}, fmt.Errorf("scope id is required")
	}
	if req.Limit <= 0 || req.Limit > models.MaxPageSize {
		return PageQuery{}, fmt.Errorf("invalid page size: %d", req.Limit)
	}
	if req.Page < 0 {
		return PageQuery{}, fmt.Errorf("invalid page index: %d", req.Page)
	}

	where := "WHERE s.project_id = $1"
	args := []interface{}{req.ScopeID}

	clause, filterArgs, err := s.builder.BuildWhere(req.Filter, 2)
	if err != nil {
		return PageQuery{}, fmt.Errorf("failed to build filter: %w", err)
	}
	if clause != "" {
		where += " AND " + clause
		args = append(args, filterArgs...)
	}

	order := ""
	if req.OrderBy != nil {
		expr, ok := sqlColumns[req.OrderBy.Column]
		if !ok {
			return PageQuery{}, fmt.Errorf("unknown sort column: %s", req.OrderBy.Column)
		}
		dir := "DESC"
		if req.OrderBy.Direction == models.Ascending {
			dir = "ASC"
		}
		order = fmt.Sprintf(" ORDER BY %s %s NULLS LAST, s.id %s", expr, dir, dir)
	}

	countArgs := append([]interface{}(nil), args...)
	n := len(args)
	args = append(args, req.Limit, req.Page*req.Limit)

	return PageQuery{
		Select:    fmt.Sprintf("SELECT %s %s %s%s LIMIT $%d OFFSET $%d", selectColumns, fromClause, where, order, n+1, n+2),
		Count:     fmt.Sprintf("SELECT COUNT(*) %s %s", fromClause, where),
		Args:      args,
		CountArgs: countArgs,
	}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// FetchScores returns one page of scores and the total matching count
func (s *Store) FetchScores(ctx context.Context, req models.FetchRequest) (models.FetchResponse, error) {
	q, err := s.BuildPageQuery(req)
	if err != nil {
		return models.FetchResponse{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var resp models.FetchResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.QueryRow(gctx, q.Count, q.CountArgs...).Scan(&resp.TotalCount); err != nil {
			return fmt.Errorf("failed to count scores: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.queryScores(gctx, q.Select, q.Args)
		if err != nil {
			return err
		}
		resp.Rows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.FetchResponse{}, err
	}

	s.logger.Debug("scores fetched", "scope", req.ScopeID, "rows", len(resp.Rows), "total", resp.TotalCount, "elapsed", time.Since(start))
	return resp, nil
}

func (s *Store) queryScores(ctx context.Context, sql string, args []interface{}) ([]models.ScoreRecord, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	out := []models.ScoreRecord{}
	for rows.Next() {
		var r models.ScoreRecord
		if err := rows.Scan(
			&r.ID, &r.ProjectID, &r.Timestamp, &r.Name, &r.Value, &r.StringValue, &r.Source, &r.DataType,
			&r.TraceID, &r.ObservationID, &r.TraceName, &r.UserID, &r.AuthorUserID, &r.Comment,
		); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	return out, nil
}

// categoricalColumns are the columns whose filter options come from the data
var categoricalColumns = []string{models.FieldSource, models.FieldDataType}

// FetchFilterOptions lists the distinct values of the categorical columns
func (s *Store) FetchFilterOptions(ctx context.Context, scopeID string) (models.FilterOptions, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	results := make([][]string, len(categoricalColumns))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range categoricalColumns {
		i := i
		col := col
		g.Go(func() error {
			values, err := s.distinct(gctx, sqlColumns[col], scopeID)
			if err != nil {
				return fmt.Errorf("failed to load %s options: %w", col, err)
			}
			results[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.FilterOptions{}, err
	}

	opts := models.FilterOptions{Values: make(map[string][]string, len(categoricalColumns))}
	for i, col := range categoricalColumns {
		opts.Values[col] = results[i]
	}
	return opts, nil
}

func (s *Store) distinct(ctx context.Context, expr, scopeID string) ([]string, error) {
	sql := fmt.Sprintf("SELECT DISTINCT %s FROM scores s WHERE s.project_id = $1 AND %s IS NOT NULL ORDER BY 1", expr, expr)
	rows, err := s.db.Query(ctx, sql, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values, rows.Err()
}
