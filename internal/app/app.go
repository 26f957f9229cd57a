// Package app wires configuration, the event store and the normative-type
// builders into the operations exposed by the masar command.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/masar/masar/internal/codec"
	"github.com/masar/masar/internal/config"
	"github.com/masar/masar/internal/nt"
	"github.com/masar/masar/internal/store"
	"github.com/masar/masar/pkg/types"
)

// Event table column labels, in column order.
const (
	ColEventID    = "service_event_id"
	ColConfigID   = "service_config_id"
	ColUserTag    = "service_event_user_tag"
	ColUTCTime    = "service_event_UTC_time"
	ColSerialTag  = "service_event_serial_tag"
	eventTimeForm = "2006-01-02 15:04:05.000000"
)

// EventColumns is the column layout of the events table.
var EventColumns = []nt.Column{
	{Label: ColEventID, Type: types.ScalarOf(types.Int64)},
	{Label: ColConfigID, Type: types.ScalarOf(types.Int64)},
	{Label: ColUserTag, Type: types.ScalarOf(types.String)},
	{Label: ColUTCTime, Type: types.ScalarOf(types.String)},
	{Label: ColSerialTag, Type: types.ScalarOf(types.String)},
}

// App owns the store connection and the builders derived from configuration.
type App struct {
	cfg *config.Config

	mu     sync.Mutex
	store  *store.Store
	events *nt.Table
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	var opts []nt.Option
	if cfg.Events.StrictTable {
		opts = append(opts, nt.WithStrictRows())
	}
	events, err := nt.NewTable(EventColumns, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build events table: %w", err)
	}

	return &App{
		cfg:    cfg,
		events: events,
	}, nil
}

// Open connects to the configured database. Calling Open on an open App is a
// no-op.
func (a *App) Open(ctx context.Context, opts ...store.Option) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return nil
	}

	opts = append([]store.Option{store.WithDefaultWindow(a.cfg.Events.DefaultWindow)}, opts...)
	s, err := store.Open(ctx, store.Dialect(a.cfg.Database.Driver), a.cfg.Database.DSN(), opts...)
	if err != nil {
		return err
	}
	a.store = s
	log.Printf("app: connected to %s database: %s", a.cfg.Database.Driver, a.cfg.Database.Redacted())
	return nil
}

// Attach uses an existing store instead of opening one from configuration.
func (a *App) Attach(s *store.Store) {
	a.mu.Lock()
	a.store = s
	a.mu.Unlock()
}

// Store returns the open store, or nil before Open.
func (a *App) Store() *store.Store {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store
}

// Close releases the database connection.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// Config returns the resolved configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// InitSchema creates the service, service_config and service_event tables.
func (a *App) InitSchema(ctx context.Context) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	return s.InitSchema(ctx)
}

// EventsTable retrieves events matching q and wraps them as an NTTable. Null
// user and serial tags become omitted cells.
func (a *App) EventsTable(ctx context.Context, q store.EventQuery) (*types.Value, error) {
	s, err := a.open()
	if err != nil {
		return nil, err
	}

	events, err := s.RetrieveEvents(ctx, q)
	if err != nil {
		return nil, err
	}

	return a.events.Wrap(EventRows(events))
}

// EventRows converts events into table rows.
func EventRows(events []store.ServiceEvent) []map[string]any {
	rows := make([]map[string]any, 0, len(events))
	for _, e := range events {
		row := map[string]any{
			ColEventID:  e.ID,
			ColConfigID: e.ConfigID,
			ColUTCTime:  e.CreatedAt.UTC().Format(eventTimeForm),
		}
		if e.UserTag != nil {
			row[ColUserTag] = *e.UserTag
		}
		if e.SerialTag != nil {
			row[ColSerialTag] = *e.SerialTag
		}
		rows = append(rows, row)
	}
	return rows
}

// EventsTableType returns the type EventsTable values are built against.
func (a *App) EventsTableType() *types.Type {
	return a.events.Type()
}

// EncodeValue serializes v with the configured codec settings.
func (a *App) EncodeValue(v *types.Value, snapshotID string) ([]byte, error) {
	return codec.Encode(v, codec.Options{
		Compress:   a.cfg.Codec.Compress,
		SnapshotID: snapshotID,
	})
}

func (a *App) open() (*store.Store, error) {
	if s := a.Store(); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("app: store is not open")
}
