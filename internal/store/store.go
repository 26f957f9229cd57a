// Package store persists services, their configuration snapshots and the
// time-stamped events logged against them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	merrors "github.com/masar/masar/internal/errors"
)

// Dialect names a supported SQL driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// DefaultWindow is the query window used when RetrieveEvents gets no start.
const DefaultWindow = 7 * 24 * time.Hour

// sqliteTimeLayout is fixed-width so that text order equals time order.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

// Conn is the connection handle the store issues statements on. Both *sql.DB
// and *sql.Tx satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Clock supplies the current time for created_at columns and default windows.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ConfigResolver maps a (service, config) name pair to matching config ids.
type ConfigResolver interface {
	ResolveConfigIDs(ctx context.Context, serviceName, configName string) ([]int64, error)
}

// Store runs the service, config and event statements on a connection.
type Store struct {
	conn     Conn
	db       *sql.DB // set only when the store opened the connection itself
	dialect  Dialect
	clock    Clock
	resolver ConfigResolver
	window   time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithResolver overrides the config-name resolver used by SaveEvent.
func WithResolver(r ConfigResolver) Option {
	return func(s *Store) { s.resolver = r }
}

// WithDefaultWindow overrides the look-back window used when no start time
// is given.
func WithDefaultWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.window = d
		}
	}
}

// New wraps an externally owned connection. Close does not close it.
func New(conn Conn, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		conn:    conn,
		dialect: dialect,
		clock:   systemClock{},
		window:  DefaultWindow,
	}
	s.resolver = s
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a database with the given driver and DSN and verifies it.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	switch dialect {
	case DialectSQLite, DialectMySQL, DialectPostgres:
	default:
		return nil, merrors.NewStoreError(merrors.CodeOpenFailed,
			fmt.Sprintf("unsupported driver %q", dialect), nil)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, merrors.NewStoreError(merrors.CodeOpenFailed, "failed to open database", err)
	}
	if dialect == DialectSQLite {
		// Single writer; also keeps ":memory:" databases on one connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, merrors.NewStoreError(merrors.CodeOpenFailed, "failed to reach database", err)
	}

	s := New(db, dialect, opts...)
	s.db = db
	return s, nil
}

// Close closes the connection if the store opened it.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// rebind converts a query written with '?' placeholders and double-quoted
// identifiers to the dialect's syntax.
func (s *Store) rebind(query string) string {
	switch s.dialect {
	case DialectPostgres:
		var sb strings.Builder
		n := 0
		for i := 0; i < len(query); i++ {
			if query[i] == '?' {
				n++
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(n))
				continue
			}
			sb.WriteByte(query[i])
		}
		return sb.String()
	case DialectMySQL:
		return strings.ReplaceAll(query, `"`, "`")
	default:
		return query
	}
}

// timeArg converts t to the bind value stored in timestamp columns.
func (s *Store) timeArg(t time.Time) any {
	t = t.UTC()
	if s.dialect == DialectSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

// insert executes an INSERT and returns the generated key.
func (s *Store) insert(ctx context.Context, query, idColumn string, args ...any) (int64, error) {
	if s.dialect == DialectPostgres {
		var id int64
		err := s.conn.QueryRowContext(ctx, s.rebind(query+" RETURNING "+idColumn), args...).Scan(&id)
		return id, err
	}

	res, err := s.conn.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) storeError(code, op string, err error) error {
	log.Printf("store: %s failed: %v", op, err)
	return merrors.NewStoreError(code, op+" failed", err)
}

var timeLayouts = []string{
	sqliteTimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

// parseTime converts a scanned timestamp column to UTC time.
func parseTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v.UTC(), nil
	case []byte:
		return parseTime(string(v))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", src)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
