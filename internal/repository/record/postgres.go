package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// Schema creates the record table. Records are written by the owning application;
// this service only reads them.
const Schema = `
CREATE TABLE IF NOT EXISTS search_records (
	class_name     TEXT    NOT NULL,
	id             BIGINT  NOT NULL,
	show_in_search BOOLEAN NULL,
	view_status    TEXT    NOT NULL DEFAULT 'null',
	attributes     JSONB   NOT NULL DEFAULT '{}',
	PRIMARY KEY (class_name, id)
)`

const selectColumns = `SELECT class_name, id, show_in_search, view_status, attributes FROM search_records`

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open connects to Postgres through the pgx driver and verifies the connection.
func Open(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetMaxOpenConns(pool.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// Postgres is a Source over the search_records table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres source.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Find implements Source.
func (p *Postgres) Find(ctx context.Context, class string, id int64) (domrec.Record, error) {
	row := p.db.QueryRowContext(ctx, selectColumns+` WHERE class_name = $1 AND id = $2`, class, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Record{}, notFound(class, id)
	}
	if err != nil {
		return domrec.Record{}, fmt.Errorf("find %s: %w", domrec.Identity(class, id), err)
	}
	return r, nil
}

// FindMany implements Source.
func (p *Postgres) FindMany(ctx context.Context, class string, ids []int64) ([]domrec.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := p.db.QueryContext(ctx,
		selectColumns+` WHERE class_name = $1 AND id = ANY($2) ORDER BY id`, class, ids)
	if err != nil {
		return nil, fmt.Errorf("find many %s: %w", class, err)
	}
	return collect(rows)
}

// FindFirstBy implements Source. "ID" matches the id column; other paths address attributes.
func (p *Postgres) FindFirstBy(ctx context.Context, classes []string, path string, value any) (domrec.Record, error) {
	var (
		row *sql.Row
		val = fmt.Sprint(value)
	)
	if path == "ID" {
		row = p.db.QueryRowContext(ctx,
			selectColumns+` WHERE class_name = ANY($1) AND id::text = $2 ORDER BY id LIMIT 1`, classes, val)
	} else {
		vars, err := matchVars(value)
		if err != nil {
			return domrec.Record{}, fmt.Errorf("find by %s: %w", path, err)
		}
		row = p.db.QueryRowContext(ctx,
			selectColumns+` WHERE class_name = ANY($1) AND jsonb_path_exists(attributes, $2::jsonpath, $3::jsonb)`+
				` ORDER BY id LIMIT 1`,
			classes, matchPath(path), vars)
	}
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Record{}, notFoundBy(path, value)
	}
	if err != nil {
		return domrec.Record{}, fmt.Errorf("find by %s: %w", path, err)
	}
	return r, nil
}

// IDRange implements Source.
func (p *Postgres) IDRange(ctx context.Context, classes []string) (lo, hi int64, ok bool, err error) {
	var first, last sql.NullInt64
	err = p.db.QueryRowContext(ctx,
		`SELECT MIN(id), MAX(id) FROM search_records WHERE class_name = ANY($1)`, classes).Scan(&first, &last)
	if err != nil {
		return 0, 0, false, fmt.Errorf("id range: %w", err)
	}
	if !first.Valid {
		return 0, 0, false, nil
	}
	return first.Int64, last.Int64, true, nil
}

// ListByIDRange implements Source.
func (p *Postgres) ListByIDRange(ctx context.Context, classes []string, lo, hi int64) ([]domrec.Record, error) {
	rows, err := p.db.QueryContext(ctx,
		selectColumns+` WHERE class_name = ANY($1) AND id BETWEEN $2 AND $3 ORDER BY id, class_name`,
		classes, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("list %d-%d: %w", lo, hi, err)
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (domrec.Record, error) {
	var (
		class, viewStatus string
		id                int64
		show              sql.NullBool
		attrs             []byte
	)
	if err := s.Scan(&class, &id, &show, &viewStatus, &attrs); err != nil {
		return domrec.Record{}, err
	}
	var graph map[string]any
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &graph); err != nil {
			return domrec.Record{}, fmt.Errorf("decode attributes of %s: %w", domrec.Identity(class, id), err)
		}
	}
	var visible *bool
	if show.Valid {
		visible = &show.Bool
	}
	return domrec.Reconstruct(class, id, domrec.VisibilityFromBool(visible), viewStatus, graph), nil
}

func collect(rows *sql.Rows) ([]domrec.Record, error) {
	defer rows.Close()
	var out []domrec.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// matchPath builds a lax SQL/JSON path that selects path and keeps the items
// equal to $v or $n. Lax mode unwraps arrays on the way, so has_many
// relations fan out: "Tags.Title" -> $."Tags"."Title" ? (@ == $v || @ == $n).
func matchPath(path string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range strings.Split(path, ".") {
		b.WriteString(".")
		b.WriteString(strconv.Quote(seg))
	}
	b.WriteString(" ? (@ == $v || @ == $n)")
	return b.String()
}

// matchVars encodes value for matchPath: $v is its text form and $n its
// number or boolean form, so 7 matches both "7" and 7 in the attributes.
func matchVars(value any) (string, error) {
	text := fmt.Sprint(value)
	vars := map[string]any{"v": text, "n": text}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		vars["n"] = f
	} else if b, err := strconv.ParseBool(text); err == nil {
		vars["n"] = b
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("encode match value: %w", err)
	}
	return string(raw), nil
}
