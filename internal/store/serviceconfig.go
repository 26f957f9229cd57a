package store

import (
	"context"
	"database/sql"
	"fmt"

	merrors "github.com/masar/masar/internal/errors"
)

// SaveServiceConfig inserts a configuration under an existing service and
// returns its id. Config names are unique within a service.
func (s *Store) SaveServiceConfig(ctx context.Context, serviceName, configName, desc string, version int64) (int64, error) {
	if serviceName == "" || configName == "" {
		return 0, merrors.NewLookupError(merrors.CodeMissingName,
			"service name and config name are required")
	}

	serviceID, err := s.serviceID(ctx, serviceName)
	if err != nil {
		return 0, err
	}
	if serviceID == 0 {
		return 0, merrors.NewLookupError(merrors.CodeNotFound,
			fmt.Sprintf("service %q not found", serviceName))
	}

	existing, err := s.ResolveConfigIDs(ctx, serviceName, configName)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, merrors.NewStoreError(merrors.CodeDuplicate,
			fmt.Sprintf("config %q already exists for service %q", configName, serviceName), nil)
	}

	id, err := s.insert(ctx,
		`INSERT INTO service_config (service_id, service_config_name, service_config_desc, service_config_version, service_config_create_date)
		VALUES (?, ?, ?, ?, ?)`,
		"service_config_id",
		serviceID, configName, nullString(desc), version, s.timeArg(s.clock.Now()))
	if err != nil {
		return 0, s.storeError(merrors.CodeInsertFailed, "insert service config", err)
	}
	return id, nil
}

// RetrieveServiceConfigs returns the configs matching q, ordered by id.
func (s *Store) RetrieveServiceConfigs(ctx context.Context, q ConfigQuery) ([]ServiceConfig, error) {
	query := `SELECT sc.service_config_id, sc.service_id, s.service_name, sc.service_config_name,
		sc.service_config_desc, sc.service_config_version, sc.service_config_create_date
		FROM service_config sc JOIN service s ON s.service_id = sc.service_id WHERE 1 = 1`
	var args []any
	if q.ServiceName != "" {
		query += ` AND s.service_name LIKE ?`
		args = append(args, q.ServiceName)
	}
	if q.ConfigName != "" {
		query += ` AND sc.service_config_name LIKE ?`
		args = append(args, q.ConfigName)
	}
	query += ` ORDER BY sc.service_config_id`

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "select service configs", err)
	}
	defer rows.Close()

	var out []ServiceConfig
	for rows.Next() {
		var cfg ServiceConfig
		var svcName, name, desc sql.NullString
		var version sql.NullInt64
		var created any
		if err := rows.Scan(&cfg.ID, &cfg.ServiceID, &svcName, &name, &desc, &version, &created); err != nil {
			return nil, s.storeError(merrors.CodeQueryFailed, "scan service config", err)
		}
		if cfg.CreatedAt, err = parseTime(created); err != nil {
			return nil, s.storeError(merrors.CodeQueryFailed, "scan service config", err)
		}
		cfg.ServiceName = svcName.String
		cfg.Name = name.String
		cfg.Desc = desc.String
		cfg.Version = version.Int64
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "select service configs", err)
	}
	return out, nil
}

// ResolveConfigIDs returns the ids of configs named exactly configName under
// the service named exactly serviceName.
func (s *Store) ResolveConfigIDs(ctx context.Context, serviceName, configName string) ([]int64, error) {
	rows, err := s.conn.QueryContext(ctx, s.rebind(
		`SELECT sc.service_config_id FROM service_config sc
		JOIN service s ON s.service_id = sc.service_id
		WHERE s.service_name = ? AND sc.service_config_name = ?
		ORDER BY sc.service_config_id`), serviceName, configName)
	if err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "resolve service config", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, s.storeError(merrors.CodeQueryFailed, "resolve service config", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeError(merrors.CodeQueryFailed, "resolve service config", err)
	}
	return ids, nil
}
