package registry

import (
	"database/sql"
	"fmt"
)

// EnsureSchema creates the registry tables and the default config row
// when they do not exist yet. It runs outside the store's transaction
// machinery, once at process start.
func EnsureSchema(db *sql.DB, d Dialect) error {
	queries := []string{
		`create table if not exists ha_node (
			ha_nodeid char(25) primary key,
			name varchar(255) not null default '',
			status integer not null default 1,
			lastaccess integer not null default 0,
			address varchar(255) not null default '',
			port integer not null default 0,
			ha_sessionid char(25) not null default ''
		)`,
		`create table if not exists config (
			configid char(25) primary key,
			ha_failover_delay varchar(32) not null default '60s',
			auditlog_enabled integer not null default 1
		)`,
		`create table if not exists auditlog (
			auditid char(25) primary key,
			clock integer not null default 0,
			action varchar(8) not null default '',
			entity varchar(16) not null default '',
			entityid varchar(25) not null default '',
			name varchar(255) not null default '',
			details text not null default ''
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create registry schema: %w", err)
		}
	}

	var count int
	if err := db.QueryRow("select count(*) from config").Scan(&count); err != nil {
		return fmt.Errorf("failed to check config row: %w", err)
	}
	if count == 0 {
		query := d.Rebind("insert into config (configid,ha_failover_delay,auditlog_enabled) values (?,?,1)")
		if _, err := db.Exec(query, "1", fmt.Sprintf("%ds", DefaultFailoverDelay)); err != nil {
			return fmt.Errorf("failed to insert default config: %w", err)
		}
	}

	return nil
}
