package database

import (
	"context"
	"database/sql"
)

// migrations is the startup DDL, idempotent by construction.
//
// Visits use single-table inheritance: visit_type discriminates ongoing
// from finished rows. ongoing_ticket mirrors ticket_code for ongoing
// rows and is NULL for finished ones; its unique index is what makes
// concurrent duplicate entries fail at the storage boundary while
// letting a tag park again after it has exited.
//
// payment_sessions has no foreign key to visits: a session outlives the
// ongoing row it was started against once the visit is finished.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS visits (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		visit_type ENUM('ONGOING','FINISHED') NOT NULL,
		entry_time DATETIME NOT NULL,
		ticket_code BIGINT UNSIGNED NOT NULL,
		ongoing_ticket BIGINT UNSIGNED NULL,
		exit_time DATETIME NULL,
		UNIQUE KEY uq_visits_ongoing_ticket (ongoing_ticket)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		visit_id BIGINT UNSIGNED NOT NULL,
		made_at DATETIME NOT NULL,
		amount DOUBLE NOT NULL,
		KEY idx_payments_visit (visit_id),
		CONSTRAINT fk_payments_visit FOREIGN KEY (visit_id) REFERENCES visits(id)
	)`,
	`CREATE TABLE IF NOT EXISTS payment_sessions (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		visit_id BIGINT UNSIGNED NOT NULL,
		started_at DATETIME NOT NULL,
		amount DOUBLE NOT NULL,
		status ENUM('PENDING','COMPLETED','CANCELLED') NOT NULL,
		finished_at DATETIME NULL,
		KEY idx_sessions_visit (visit_id)
	)`,
	`CREATE TABLE IF NOT EXISTS parking_tariffs (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		upper_bound_minutes BIGINT NOT NULL,
		fee DOUBLE NOT NULL,
		UNIQUE KEY uq_tariffs_upper (upper_bound_minutes)
	)`,
	"CREATE TABLE IF NOT EXISTS configuration (\n" +
		"		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,\n" +
		"		`key` VARCHAR(191) NOT NULL,\n" +
		"		`value` VARCHAR(255) NOT NULL,\n" +
		"		UNIQUE KEY uq_configuration_key (`key`)\n" +
		"	)",
}

// Migrate applies the schema at startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
