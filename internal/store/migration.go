/**
 * Copyright 2026 aou-systems
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	ulog "github.com/aou-systems/umpfd/pkg/log"
)

//go:embed migrations/*
var migrationFiles embed.FS

// runMigrations applies every pending schema migration for driver against db,
// idempotently: a fully up-to-date database is a silent no-op.
func runMigrations(driver Driver, db *sql.DB) error {
	var m *migrate.Migrate
	var err error

	switch driver {
	case DriverSQLite:
		var d database.Driver
		d, err = sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("store: sqlite3 migration driver: %w", err)
		}
		src, err := iofs.New(migrationFiles, "migrations/sqlite3")
		if err != nil {
			return fmt.Errorf("store: migration source: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", d)
		if err != nil {
			return fmt.Errorf("store: migration instance: %w", err)
		}
	case DriverMySQL:
		var d database.Driver
		d, err = mysql.WithInstance(db, &mysql.Config{})
		if err != nil {
			return fmt.Errorf("store: mysql migration driver: %w", err)
		}
		src, err := iofs.New(migrationFiles, "migrations/mysql")
		if err != nil {
			return fmt.Errorf("store: migration source: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "mysql", d)
		if err != nil {
			return fmt.Errorf("store: migration instance: %w", err)
		}
	default:
		return fmt.Errorf("store: unknown driver %v", driver)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	ulog.Info("store: schema up to date")
	return nil
}
