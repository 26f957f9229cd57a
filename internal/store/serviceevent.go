package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	merrors "github.com/masar/masar/internal/errors"
)

// ServiceEvent is one row of service_event.
type ServiceEvent struct {
	ID        int64
	ConfigID  int64
	UserTag   *string
	CreatedAt time.Time
	SerialTag *string
}

// EventQuery selects events created strictly between Start and End. A zero
// End means now (UTC); a zero Start means End minus the default window.
// Comment, when set, is matched with SQL LIKE against the user tag.
type EventQuery struct {
	Start   time.Time
	End     time.Time
	Comment string
}

// SaveEvent records an event against the config named configName of the
// service named serviceName and returns the new event id. An empty comment is
// stored as NULL. The serial tag is always NULL.
func (s *Store) SaveEvent(ctx context.Context, serviceName, configName, comment string) (int64, error) {
	if serviceName == "" || configName == "" {
		return 0, merrors.NewLookupError(merrors.CodeMissingName,
			"service and service config are required to record an event")
	}

	ids, err := s.resolver.ResolveConfigIDs(ctx, serviceName, configName)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, merrors.NewLookupError(merrors.CodeNotFound,
			fmt.Sprintf("can not find service config (%s) with service (%s)", configName, serviceName)).
			WithDetails(map[string]interface{}{"service": serviceName, "config": configName})
	}

	id, err := s.insert(ctx,
		`INSERT INTO service_event (service_config_id, service_event_user_tag, "service_event_UTC_time", service_event_serial_tag)
		VALUES (?, ?, ?, ?)`,
		"service_event_id",
		ids[0], nullString(comment), s.timeArg(s.clock.Now()), nil)
	if err != nil {
		return 0, s.storeError(merrors.CodeInsertFailed, "insert service event", err)
	}
	return id, nil
}

// RetrieveEvents returns the events selected by q in insertion order.
func (s *Store) RetrieveEvents(ctx context.Context, q EventQuery) ([]ServiceEvent, error) {
	end := q.End
	if end.IsZero() {
		end = s.clock.Now().UTC()
	}
	start := q.Start
	if start.IsZero() {
		start = end.Add(-s.window)
	}
	if start.After(end) {
		return nil, merrors.NewRangeError(
			fmt.Sprintf("start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))).
			WithDetails(map[string]interface{}{"start": start, "end": end})
	}

	query := `SELECT service_event_id, service_config_id, service_event_user_tag, "service_event_UTC_time", service_event_serial_tag
		FROM service_event WHERE "service_event_UTC_time" > ? AND "service_event_UTC_time" < ?`
	args := []any{s.timeArg(start), s.timeArg(end)}
	if q.Comment != "" {
		query += ` AND service_event_user_tag LIKE ?`
		args = append(args, q.Comment)
	}
	query += ` ORDER BY service_event_id`

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "select service events", err)
	}
	defer rows.Close()

	var out []ServiceEvent
	for rows.Next() {
		var ev ServiceEvent
		var tag, serial sql.NullString
		var created any
		if err := rows.Scan(&ev.ID, &ev.ConfigID, &tag, &created, &serial); err != nil {
			return nil, s.storeError(merrors.CodeQueryFailed, "scan service event", err)
		}
		if ev.CreatedAt, err = parseTime(created); err != nil {
			return nil, s.storeError(merrors.CodeQueryFailed, "scan service event", err)
		}
		ev.UserTag = stringPtr(tag)
		ev.SerialTag = stringPtr(serial)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "select service events", err)
	}
	return out, nil
}
