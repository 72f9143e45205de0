package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Postgres reads straight from the database behind the REST interface.
// Rows are aggregated to JSON in SQL so embeds come back in the same shapes
// the REST backend returns.
type Postgres struct {
	viewReader
	db     *sql.DB
	logger logrus.FieldLogger
}

// OpenPostgres opens a pooled connection handle. No connection is made
// until the first query.
func OpenPostgres(cfg config.BackendConfig, logger logrus.FieldLogger) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return NewPostgres(db, logger), nil
}

// NewPostgres wraps an existing handle
func NewPostgres(db *sql.DB, logger logrus.FieldLogger) *Postgres {
	p := &Postgres{db: db, logger: logger}
	p.viewReader = viewReader{fetch: p.fetch, count: p.count}
	return p
}

// Close closes the pool
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) fetch(ctx context.Context, v View, dest interface{}) error {
	start := time.Now()
	query, args := RenderSelectSQL(v)

	var raw []byte
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return wrapSQLError(err, v.Relation)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return NewQueryError(err, v.Relation, 0, "", fmt.Sprintf("failed to decode %s rows: %v", v.Relation, err))
	}

	p.logger.WithFields(logrus.Fields{
		"relation": v.Relation,
		"duration": time.Since(start),
	}).Debug("Postgres select completed")

	return nil
}

func (p *Postgres) count(ctx context.Context, v View) (int, error) {
	query, args := RenderCountSQL(v)

	var total int
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, wrapSQLError(err, v.Relation)
	}
	return total, nil
}

func wrapSQLError(err error, relation string) *QueryError {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return NewQueryError(err, relation, 0, string(pqErr.Code), pqErr.Message)
	}
	return NewQueryError(err, relation, 0, "", err.Error())
}

// sqlBuilder accumulates joins and bind arguments while rendering a view
type sqlBuilder struct {
	joins []string
	args  []interface{}
	next  int
}

func (b *sqlBuilder) alias() string {
	a := fmt.Sprintf("t%d", b.next)
	b.next++
	return a
}

func (b *sqlBuilder) bind(value interface{}) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// document renders the jsonb expression for one row of relation at alias
func (b *sqlBuilder) document(alias string, columns []string, embeds []Embed) string {
	var doc string
	if len(columns) == 0 {
		doc = fmt.Sprintf("to_jsonb(%s)", alias)
	} else {
		pairs := make([]string, 0, len(columns))
		for _, c := range columns {
			pairs = append(pairs, fmt.Sprintf("'%s', %s.%s", c, alias, c))
		}
		doc = fmt.Sprintf("jsonb_build_object(%s)", strings.Join(pairs, ", "))
	}

	if len(embeds) == 0 {
		return doc
	}

	nested := make([]string, 0, len(embeds))
	for _, e := range embeds {
		child := b.alias()
		join := "LEFT JOIN"
		if e.Inner {
			join = "INNER JOIN"
		}
		b.joins = append(b.joins, fmt.Sprintf("%s %s %s ON %s.%s = %s.%s",
			join, e.Relation, child, child, e.Key, alias, e.ParentKey))

		expr := b.document(child, e.Columns, e.Embeds)
		if !e.Inner {
			expr = fmt.Sprintf("CASE WHEN %s.%s IS NULL THEN NULL ELSE %s END", child, e.Key, expr)
		}
		nested = append(nested, fmt.Sprintf("'%s', %s", e.Relation, expr))
	}

	return fmt.Sprintf("%s || jsonb_build_object(%s)", doc, strings.Join(nested, ", "))
}

func (b *sqlBuilder) where(alias string, filter *Eq) string {
	if filter == nil {
		return ""
	}
	return fmt.Sprintf(" WHERE %s.%s = %s", alias, filter.Column, b.bind(filter.Value))
}

// RenderSelectSQL renders v as one statement returning a jsonb array
func RenderSelectSQL(v View) (string, []interface{}) {
	b := &sqlBuilder{}
	root := b.alias()
	doc := b.document(root, v.Columns, v.Embeds)

	inner := fmt.Sprintf("SELECT %s AS doc", doc)
	agg := "jsonb_agg(r.doc)"
	if v.Order != nil {
		inner += fmt.Sprintf(", %s.%s AS ord", root, v.Order.Column)
		direction := "ASC"
		if v.Order.Descending {
			direction = "DESC"
		}
		agg = fmt.Sprintf("jsonb_agg(r.doc ORDER BY r.ord %s)", direction)
	}

	inner += fmt.Sprintf(" FROM %s %s", v.Relation, root)
	if len(b.joins) > 0 {
		inner += " " + strings.Join(b.joins, " ")
	}
	inner += b.where(root, v.Filter)

	return fmt.Sprintf("SELECT COALESCE(%s, '[]'::jsonb) FROM (%s) r", agg, inner), b.args
}

// RenderCountSQL renders v as a row count; embeds and ordering are ignored
func RenderCountSQL(v View) (string, []interface{}) {
	b := &sqlBuilder{}
	root := b.alias()
	query := fmt.Sprintf("SELECT count(*) FROM %s %s", v.Relation, root)
	query += b.where(root, v.Filter)
	return query, b.args
}
