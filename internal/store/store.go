// Package store persists conversations, reasoning traces and the health
// records the agent tools read and write. The same SQL runs on Postgres
// (pgx) and SQLite (modernc); dialect differences are limited to DDL,
// placeholders and how timestamps are bound.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("store: not found")

// timeLayout is fixed width so SQLite text comparisons order correctly.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const dateLayout = "2006-01-02"

type dialect struct {
	name       string
	schema     []string
	numbered   bool
	timeAsText bool
}

var (
	postgresDialect = dialect{name: "postgres", schema: postgresSchema, numbered: true}
	sqliteDialect   = dialect{name: "sqlite", schema: sqliteSchema, timeAsText: true}
)

// Store is safe for concurrent use.
type Store struct {
	db      *sql.DB
	dialect dialect
	closers []func()
	now     func() time.Time
}

func newStore(db *sql.DB, d dialect, closers ...func()) *Store {
	return &Store{
		db:      db,
		dialect: d,
		closers: closers,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Driver reports "postgres" or "sqlite".
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	err := s.db.Close()
	for _, c := range s.closers {
		c()
	}
	return err
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect.name, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) timeArg(t time.Time) any {
	if s.dialect.timeAsText {
		return t.UTC().Format(timeLayout)
	}
	return t.UTC()
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// jsonArg binds raw JSON as text; both drivers accept it for JSON columns.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// timeColumn scans TIMESTAMPTZ values and fixed-layout text alike.
type timeColumn struct{ dst *time.Time }

func (c timeColumn) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*c.dst = time.Time{}
	case time.Time:
		*c.dst = x.UTC()
	case string:
		return c.parse(x)
	case []byte:
		return c.parse(string(x))
	default:
		return fmt.Errorf("scan time: unsupported type %T", v)
	}
	return nil
}

func (c timeColumn) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			*c.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan time: unrecognised value %q", s)
}

// dateColumn normalises DATE and text columns to YYYY-MM-DD.
type dateColumn struct{ dst *string }

func (c dateColumn) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*c.dst = ""
	case time.Time:
		*c.dst = x.Format(dateLayout)
	case string:
		*c.dst = truncateDate(x)
	case []byte:
		*c.dst = truncateDate(string(x))
	default:
		return fmt.Errorf("scan date: unsupported type %T", v)
	}
	return nil
}

func truncateDate(s string) string {
	if len(s) > len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}

// jsonColumn copies JSON/JSONB/text columns into a RawMessage.
type jsonColumn struct{ dst *json.RawMessage }

func (c jsonColumn) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*c.dst = nil
	case []byte:
		*c.dst = append(json.RawMessage(nil), x...)
	case string:
		*c.dst = json.RawMessage(x)
	default:
		return fmt.Errorf("scan json: unsupported type %T", v)
	}
	return nil
}

// stringsColumn decodes a JSON array of strings.
type stringsColumn struct{ dst *[]string }

func (c stringsColumn) Scan(v any) error {
	var raw json.RawMessage
	if err := (jsonColumn{dst: &raw}).Scan(v); err != nil {
		return err
	}
	if len(raw) == 0 {
		*c.dst = nil
		return nil
	}
	return json.Unmarshal(raw, c.dst)
}
