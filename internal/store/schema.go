package store

import (
	"context"

	merrors "github.com/masar/masar/internal/errors"
)

// The table layouts below are shared with other tools that read the same
// database; column names and types must not change.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS "service" (
    "service_id" INTEGER,
    "service_name" varchar(50) DEFAULT NULL,
    "service_desc" varchar(255) DEFAULT NULL,
    PRIMARY KEY ("service_id")
)`,
	`CREATE TABLE IF NOT EXISTS "service_config" (
    "service_config_id" INTEGER,
    "service_id" int(11) NOT NULL DEFAULT '0',
    "service_config_name" varchar(50) DEFAULT NULL,
    "service_config_desc" varchar(255) DEFAULT NULL,
    "service_config_version" int(11) DEFAULT NULL,
    "service_config_create_date" timestamp NOT NULL,
    PRIMARY KEY ("service_config_id")
    CONSTRAINT "Ref_197" FOREIGN KEY ("service_id") REFERENCES "service" ("service_id") ON DELETE NO ACTION ON UPDATE NO ACTION
)`,
	`CREATE TABLE IF NOT EXISTS "service_event" (
    "service_event_id" INTEGER,
    "service_config_id" int(11) NOT NULL DEFAULT '0',
    "service_event_user_tag" varchar(255) DEFAULT NULL,
    "service_event_UTC_time" timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP,
    "service_event_serial_tag" varchar(50) DEFAULT NULL,
    PRIMARY KEY ("service_event_id")
    CONSTRAINT "Ref_08" FOREIGN KEY ("service_config_id") REFERENCES "service_config" ("service_config_id") ON DELETE NO ACTION ON UPDATE NO ACTION
)`,
}

var mysqlSchema = []string{
	"CREATE TABLE IF NOT EXISTS `service` (" +
		"`service_id` int(11) NOT NULL AUTO_INCREMENT," +
		"`service_name` varchar(50) DEFAULT NULL," +
		"`service_desc` varchar(255) DEFAULT NULL," +
		"PRIMARY KEY (`service_id`))",
	"CREATE TABLE IF NOT EXISTS `service_config` (" +
		"`service_config_id` int(11) NOT NULL AUTO_INCREMENT," +
		"`service_id` int(11) NOT NULL DEFAULT '0'," +
		"`service_config_name` varchar(50) DEFAULT NULL," +
		"`service_config_desc` varchar(255) DEFAULT NULL," +
		"`service_config_version` int(11) DEFAULT NULL," +
		"`service_config_create_date` timestamp(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)," +
		"PRIMARY KEY (`service_config_id`)," +
		"CONSTRAINT `Ref_197` FOREIGN KEY (`service_id`) REFERENCES `service` (`service_id`) ON DELETE NO ACTION ON UPDATE NO ACTION)",
	"CREATE TABLE IF NOT EXISTS `service_event` (" +
		"`service_event_id` int(11) NOT NULL AUTO_INCREMENT," +
		"`service_config_id` int(11) NOT NULL DEFAULT '0'," +
		"`service_event_user_tag` varchar(255) DEFAULT NULL," +
		"`service_event_UTC_time` timestamp(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)," +
		"`service_event_serial_tag` varchar(50) DEFAULT NULL," +
		"PRIMARY KEY (`service_event_id`)," +
		"CONSTRAINT `Ref_08` FOREIGN KEY (`service_config_id`) REFERENCES `service_config` (`service_config_id`) ON DELETE NO ACTION ON UPDATE NO ACTION)",
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS "service" (
    "service_id" SERIAL PRIMARY KEY,
    "service_name" varchar(50) DEFAULT NULL,
    "service_desc" varchar(255) DEFAULT NULL
)`,
	`CREATE TABLE IF NOT EXISTS "service_config" (
    "service_config_id" SERIAL PRIMARY KEY,
    "service_id" integer NOT NULL DEFAULT 0 REFERENCES "service" ("service_id"),
    "service_config_name" varchar(50) DEFAULT NULL,
    "service_config_desc" varchar(255) DEFAULT NULL,
    "service_config_version" integer DEFAULT NULL,
    "service_config_create_date" timestamp NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS "service_event" (
    "service_event_id" SERIAL PRIMARY KEY,
    "service_config_id" integer NOT NULL DEFAULT 0 REFERENCES "service_config" ("service_config_id"),
    "service_event_user_tag" varchar(255) DEFAULT NULL,
    "service_event_UTC_time" timestamp NOT NULL DEFAULT (now() at time zone 'utc'),
    "service_event_serial_tag" varchar(50) DEFAULT NULL
)`,
}

// SchemaSQL returns the CREATE TABLE statements for a dialect.
func SchemaSQL(dialect Dialect) []string {
	switch dialect {
	case DialectMySQL:
		return mysqlSchema
	case DialectPostgres:
		return postgresSchema
	default:
		return sqliteSchema
	}
}

// InitSchema creates the service, service_config and service_event tables if
// they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range SchemaSQL(s.dialect) {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return s.storeError(merrors.CodeQueryFailed, "create schema", err)
		}
	}
	return nil
}
