package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	merrors "github.com/masar/masar/internal/errors"
)

// Service is a named service.
type Service struct {
	ID   int64
	Name string
	Desc string
}

// ServiceConfig is a named configuration snapshot belonging to one service.
type ServiceConfig struct {
	ID          int64
	ServiceID   int64
	ServiceName string
	Name        string
	Desc        string
	Version     int64
	CreatedAt   time.Time
}

// ConfigQuery filters RetrieveServiceConfigs. Empty fields match everything;
// non-empty fields are SQL LIKE patterns.
type ConfigQuery struct {
	ServiceName string
	ConfigName  string
}

// SaveService inserts a service and returns its id. Service names are unique.
func (s *Store) SaveService(ctx context.Context, name, desc string) (int64, error) {
	if name == "" {
		return 0, merrors.NewLookupError(merrors.CodeMissingName, "service name is required")
	}

	id, err := s.serviceID(ctx, name)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return 0, merrors.NewStoreError(merrors.CodeDuplicate,
			fmt.Sprintf("service %q already exists", name), nil)
	}

	id, err = s.insert(ctx,
		`INSERT INTO service (service_name, service_desc) VALUES (?, ?)`,
		"service_id", name, nullString(desc))
	if err != nil {
		return 0, s.storeError(merrors.CodeInsertFailed, "insert service", err)
	}
	return id, nil
}

// RetrieveServices returns services whose name matches the LIKE pattern, or
// all services when pattern is empty, ordered by id.
func (s *Store) RetrieveServices(ctx context.Context, pattern string) ([]Service, error) {
	query := `SELECT service_id, service_name, service_desc FROM service`
	var args []any
	if pattern != "" {
		query += ` WHERE service_name LIKE ?`
		args = append(args, pattern)
	}
	query += ` ORDER BY service_id`

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "select services", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var svc Service
		var name, desc sql.NullString
		if err := rows.Scan(&svc.ID, &name, &desc); err != nil {
			return nil, s.storeError(merrors.CodeQueryFailed, "scan service", err)
		}
		svc.Name = name.String
		svc.Desc = desc.String
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "select services", err)
	}
	return out, nil
}

// serviceID returns the id of the service with exactly this name, or 0.
func (s *Store) serviceID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.conn.QueryRowContext(ctx,
		s.rebind(`SELECT service_id FROM service WHERE service_name = ? ORDER BY service_id`), name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, s.storeError(merrors.CodeQueryFailed, "select service", err)
	}
	return id, nil
}
