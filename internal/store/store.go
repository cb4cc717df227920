// Package store owns the jokes table: its schema, the SQL that touches it,
// and the dialects it can run on. No other package issues SQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// TableName is the single table managed by the store.
const TableName = "jokes"

// Record is a stored joke.
type Record struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Querier is the subset of database/sql shared by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store issues single-statement operations against the jokes table.
// It holds no connection; every call runs on the Querier it is handed.
type Store struct {
	dialect *Dialect
	builder sq.StatementBuilderType
}

// New creates a store that builds SQL for the given dialect.
func New(d *Dialect) *Store {
	return &Store{
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.Placeholder),
	}
}

// Dialect returns the dialect the store was built for.
func (s *Store) Dialect() *Dialect {
	return s.dialect
}

// Insert appends a row and returns it with the id assigned by the backend.
func (s *Store) Insert(ctx context.Context, q Querier, url string) (*Record, error) {
	query, args, err := s.builder.Insert(TableName).
		Columns("url").
		Values(url).
		Suffix("RETURNING id, url").
		ToSql()
	if err != nil {
		return nil, queryErr("insert", err)
	}

	rec := &Record{}
	if err := q.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &rec.URL); err != nil {
		return nil, queryErr("insert", err)
	}
	return rec, nil
}

// FindByID returns the record with the given id, or nil if there is none.
func (s *Store) FindByID(ctx context.Context, q Querier, id int64) (*Record, error) {
	query, args, err := s.builder.Select("id", "url").
		From(TableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, queryErr("find_by_id", err)
	}
	return s.scanOne(ctx, q, "find_by_id", query, args)
}

// ListAll returns every record ordered by id. An empty table yields an
// empty, non-nil slice.
func (s *Store) ListAll(ctx context.Context, q Querier) ([]Record, error) {
	query, args, err := s.builder.Select("id", "url").
		From(TableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, queryErr("list_all", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryErr("list_all", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.URL); err != nil {
			return nil, queryErr("list_all", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list_all", err)
	}
	return records, nil
}

// PickRandom returns one row chosen by the backend's RANDOM() ordering,
// or nil when the table is empty.
func (s *Store) PickRandom(ctx context.Context, q Querier) (*Record, error) {
	query, args, err := s.builder.Select("id", "url").
		From(TableName).
		OrderBy("RANDOM()").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, queryErr("pick_random", err)
	}
	return s.scanOne(ctx, q, "pick_random", query, args)
}

// DeleteByID removes at most one row and reports how many were removed.
func (s *Store) DeleteByID(ctx context.Context, q Querier, id int64) (int64, error) {
	query, args, err := s.builder.Delete(TableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, queryErr("delete_by_id", err)
	}
	return s.exec(ctx, q, "delete_by_id", query, args)
}

// DeleteAll removes every row and reports how many were removed.
func (s *Store) DeleteAll(ctx context.Context, q Querier) (int64, error) {
	query, args, err := s.builder.Delete(TableName).ToSql()
	if err != nil {
		return 0, queryErr("delete_all", err)
	}
	return s.exec(ctx, q, "delete_all", query, args)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context, q Querier) (int64, error) {
	query, args, err := s.builder.Select("COUNT(*)").From(TableName).ToSql()
	if err != nil {
		return 0, queryErr("count", err)
	}

	var n int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, queryErr("count", err)
	}
	return n, nil
}

func (s *Store) scanOne(ctx context.Context, q Querier, op, query string, args []any) (*Record, error) {
	rec := &Record{}
	err := q.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &rec.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr(op, err)
	}
	return rec, nil
}

func (s *Store) exec(ctx context.Context, q Querier, op, query string, args []any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, queryErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryErr(op, fmt.Errorf("rows affected: %w", err))
	}
	return n, nil
}
