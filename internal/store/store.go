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

// Package store is the persistence layer: portfolios, securities, tags
// and positions backed by either SQLite or MySQL through a single
// sqlx.DB handle. Selects and updates are built through squirrel;
// inserts are raw SQL strings, and the upserts, whose syntax differs
// between the two backends, are chosen per driver.
package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Driver replaces the original pointer-tagged handle (spec.md §9's own
// design note) with an explicit enum carried as a plain struct field.
type Driver int

const (
	DriverSQLite Driver = iota
	DriverMySQL
)

func (d Driver) String() string {
	if d == DriverMySQL {
		return "mysql"
	}
	return "sqlite3"
}

// Store wraps a *sqlx.DB for one of the two supported backends. The
// AutoPrune flag controls whether CopyTag drops all-zero positions
// during copy-on-write, per spec.md §3/§6.
type Store struct {
	db        *sqlx.DB
	driver    Driver
	stmtCache *sq.StmtCache
	AutoPrune bool
}

// Open connects to SQLite when host/user/pass are empty and schema is
// non-empty, otherwise MySQL, mirroring the open(...) contract of
// spec.md §4.4.
func Open(host, user, pass, schema string) (*Store, error) {
	var driver Driver
	var db *sqlx.DB
	var err error

	if host == "" && user == "" && pass == "" && schema != "" {
		driver = DriverSQLite
		db, err = sqlx.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", schema))
		if err != nil {
			return nil, fmt.Errorf("store: open sqlite3: %w", err)
		}
		// SQLite does not multithread; a single connection avoids
		// waiting on its own file lock.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA synchronous=OFF"); err != nil {
			return nil, fmt.Errorf("store: set synchronous pragma: %w", err)
		}
	} else {
		driver = DriverMySQL
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true", user, pass, host, schema)
		db, err = sqlx.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("store: open mysql: %w", err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}

	if err := runMigrations(driver, db.DB); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:        db,
		driver:    driver,
		stmtCache: sq.NewStmtCache(db.DB),
		AutoPrune: true,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// upsertPortfolioSQL renders the backend-specific portfolio upsert,
// since SQLite's ON CONFLICT and MySQL's ON DUPLICATE KEY UPDATE are
// not expressible through squirrel's portable builder alone.
func (s *Store) upsertPortfolioSQL() string {
	if s.driver == DriverMySQL {
		return "INSERT INTO aou_umpf_portfolio (short, description) VALUES (?, ?) " +
			"ON DUPLICATE KEY UPDATE portfolio_id = LAST_INSERT_ID(portfolio_id)"
	}
	return "INSERT INTO aou_umpf_portfolio (short, description) VALUES (?, ?) " +
		"ON CONFLICT(short) DO UPDATE SET short = excluded.short"
}

// NewPF upserts a portfolio by mnemonic, updating its description only
// when descr is non-empty, and returns the portfolio id.
func (s *Store) NewPF(mnemonic string, descr []byte) (int64, error) {
	id, err := s.portfolioID(mnemonic)
	if err != nil {
		res, err := s.stmtCache.Exec(s.upsertPortfolioSQL(), mnemonic, nullIfEmpty(descr))
		if err != nil {
			return 0, fmt.Errorf("store: new_pf %q: %w", mnemonic, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	}
	if len(descr) > 0 {
		if _, err := sq.Update("aou_umpf_portfolio").
			Set("description", []byte(descr)).
			Where(sq.Eq{"portfolio_id": id}).
			RunWith(s.stmtCache).Exec(); err != nil {
			return 0, fmt.Errorf("store: update portfolio description: %w", err)
		}
	}
	return id, nil
}

func (s *Store) portfolioID(mnemonic string) (int64, error) {
	var id int64
	err := sq.Select("portfolio_id").From("aou_umpf_portfolio").
		Where(sq.Eq{"short": mnemonic}).
		RunWith(s.stmtCache).QueryRow().Scan(&id)
	return id, err
}

// GetDescr returns the portfolio's description, or nil if the
// portfolio does not exist or has none set.
func (s *Store) GetDescr(mnemonic string) ([]byte, error) {
	var descr []byte
	err := sq.Select("description").From("aou_umpf_portfolio").
		Where(sq.Eq{"short": mnemonic}).
		RunWith(s.stmtCache).QueryRow().Scan(&descr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return descr, err
}

// LstPF iterates every known portfolio mnemonic.
func (s *Store) LstPF(fn func(mnemonic string) bool) error {
	rows, err := sq.Select("short").From("aou_umpf_portfolio").OrderBy("short").
		RunWith(s.stmtCache).Query()
	if err != nil {
		return fmt.Errorf("store: lst_pf: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mnemonic string
		if err := rows.Scan(&mnemonic); err != nil {
			return err
		}
		if !fn(mnemonic) {
			break
		}
	}
	return rows.Err()
}

func (s *Store) securityID(portfolioID int64, symbol string) (int64, error) {
	var id int64
	err := sq.Select("security_id").From("aou_umpf_security").
		Where(sq.Eq{"portfolio_id": portfolioID, "short": symbol}).
		RunWith(s.stmtCache).QueryRow().Scan(&id)
	return id, err
}

func (s *Store) upsertSecurityID(portfolioID int64, symbol string) (int64, error) {
	id, err := s.securityID(portfolioID, symbol)
	if err == nil {
		return id, nil
	}
	res, err := s.stmtCache.Exec(
		"INSERT INTO aou_umpf_security (portfolio_id, short) VALUES (?, ?)",
		portfolioID, symbol)
	if err != nil {
		return 0, fmt.Errorf("store: upsert security %q: %w", symbol, err)
	}
	return res.LastInsertId()
}

// NewSec upserts the owning portfolio, then the (portfolio, symbol)
// security, updating its description when non-empty.
func (s *Store) NewSec(portfolioMnemonic, symbol string, descr []byte) error {
	pfID, err := s.NewPF(portfolioMnemonic, nil)
	if err != nil {
		return err
	}
	secID, err := s.upsertSecurityID(pfID, symbol)
	if err != nil {
		return err
	}
	if len(descr) > 0 {
		if _, err := sq.Update("aou_umpf_security").
			Set("description", []byte(descr)).
			Where(sq.Eq{"security_id": secID}).
			RunWith(s.stmtCache).Exec(); err != nil {
			return fmt.Errorf("store: update security description: %w", err)
		}
	}
	return nil
}

// SetSec requires the security to already exist and updates its
// description.
func (s *Store) SetSec(portfolioMnemonic, symbol string, descr []byte) error {
	pfID, err := s.portfolioID(portfolioMnemonic)
	if err != nil {
		return fmt.Errorf("store: set_sec: unknown portfolio %q", portfolioMnemonic)
	}
	secID, err := s.securityID(pfID, symbol)
	if err != nil {
		return fmt.Errorf("store: set_sec: unknown security %q/%q", portfolioMnemonic, symbol)
	}
	_, err = sq.Update("aou_umpf_security").
		Set("description", []byte(descr)).
		Where(sq.Eq{"security_id": secID}).
		RunWith(s.stmtCache).Exec()
	return err
}

// GetSec returns a security's description.
func (s *Store) GetSec(portfolioMnemonic, symbol string) ([]byte, error) {
	pfID, err := s.portfolioID(portfolioMnemonic)
	if err != nil {
		return nil, nil
	}
	var descr []byte
	err = sq.Select("description").From("aou_umpf_security").
		Where(sq.Eq{"portfolio_id": pfID, "short": symbol}).
		RunWith(s.stmtCache).QueryRow().Scan(&descr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return descr, err
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

// Tag identifies a resolved or newly-created point-in-time snapshot of
// a portfolio's positions.
type Tag struct {
	ID          int64
	PortfolioID int64
	Stamp       time.Time
}

// NewTag inserts an empty tag for the named portfolio at stamp.
func (s *Store) NewTag(mnemonic string, stamp time.Time) (Tag, error) {
	pfID, err := s.NewPF(mnemonic, nil)
	if err != nil {
		return Tag{}, err
	}
	res, err := s.stmtCache.Exec(
		"INSERT INTO aou_umpf_tag (portfolio_id, tag_stamp) VALUES (?, ?)",
		pfID, stamp.UTC())
	if err != nil {
		return Tag{}, fmt.Errorf("store: new_tag %q: %w", mnemonic, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: id, PortfolioID: pfID, Stamp: stamp.UTC()}, nil
}

// ErrTagNotFound is returned by GetTag when no tag resolves at or
// before the requested stamp.
var ErrTagNotFound = fmt.Errorf("store: no tag resolves at or before the requested stamp")

// GetTag resolves the effective tag for mnemonic as of stamp: the tag
// with the largest tag_stamp <= stamp, ties broken by the larger id.
func (s *Store) GetTag(mnemonic string, stamp time.Time) (Tag, error) {
	pfID, err := s.portfolioID(mnemonic)
	if err != nil {
		return Tag{}, ErrTagNotFound
	}
	var t Tag
	t.PortfolioID = pfID
	err = sq.Select("tag_id", "tag_stamp").From("aou_umpf_tag").
		Where(sq.And{sq.Eq{"portfolio_id": pfID}, sq.LtOrEq{"tag_stamp": stamp.UTC()}}).
		OrderBy("tag_stamp DESC", "tag_id DESC").
		Limit(1).
		RunWith(s.stmtCache).QueryRow().Scan(&t.ID, &t.Stamp)
	if err == sql.ErrNoRows {
		return Tag{}, ErrTagNotFound
	}
	if err != nil {
		return Tag{}, fmt.Errorf("store: get_tag %q: %w", mnemonic, err)
	}
	return t, nil
}

// LstTag iterates (tag_id, stamp) for a portfolio ordered by
// (stamp, id).
func (s *Store) LstTag(mnemonic string, fn func(id int64, stamp time.Time) bool) error {
	pfID, err := s.portfolioID(mnemonic)
	if err != nil {
		return nil
	}
	rows, err := sq.Select("tag_id", "tag_stamp").From("aou_umpf_tag").
		Where(sq.Eq{"portfolio_id": pfID}).
		OrderBy("tag_stamp ASC", "tag_id ASC").
		RunWith(s.stmtCache).Query()
	if err != nil {
		return fmt.Errorf("store: lst_tag %q: %w", mnemonic, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var stamp time.Time
		if err := rows.Scan(&id, &stamp); err != nil {
			return err
		}
		if !fn(id, stamp) {
			break
		}
	}
	return rows.Err()
}

// CopyTag creates a new tag for mnemonic at stamp and populates it by
// copying every position from the tag that get_tag(mnemonic, stamp)
// resolves to. When AutoPrune is set, positions whose long and short
// are both exactly zero are skipped.
func (s *Store) CopyTag(mnemonic string, stamp time.Time) (Tag, error) {
	src, err := s.GetTag(mnemonic, stamp)
	if err != nil {
		return Tag{}, err
	}
	dst, err := s.NewTag(mnemonic, stamp)
	if err != nil {
		return Tag{}, err
	}
	rows, err := sq.Select("security_id", "long_qty", "short_qty").
		From("aou_umpf_position").
		Where(sq.Eq{"tag_id": src.ID}).
		RunWith(s.stmtCache).Query()
	if err != nil {
		return Tag{}, fmt.Errorf("store: copy_tag %q: %w", mnemonic, err)
	}
	defer rows.Close()
	for rows.Next() {
		var secID int64
		var long, short float64
		if err := rows.Scan(&secID, &long, &short); err != nil {
			return Tag{}, err
		}
		if s.AutoPrune && long == 0 && short == 0 {
			continue
		}
		if _, err := s.stmtCache.Exec(
			"INSERT INTO aou_umpf_position (tag_id, security_id, long_qty, short_qty) VALUES (?, ?, ?, ?)",
			dst.ID, secID, long, short); err != nil {
			return Tag{}, fmt.Errorf("store: copy_tag %q: copy position: %w", mnemonic, err)
		}
	}
	if err := rows.Err(); err != nil {
		return Tag{}, err
	}
	return dst, nil
}

func (s *Store) upsertPositionSQL() string {
	if s.driver == DriverMySQL {
		return "INSERT INTO aou_umpf_position (tag_id, security_id, long_qty, short_qty) VALUES (?, ?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE long_qty = VALUES(long_qty), short_qty = VALUES(short_qty)"
	}
	return "INSERT INTO aou_umpf_position (tag_id, security_id, long_qty, short_qty) VALUES (?, ?, ?, ?) " +
		"ON CONFLICT(tag_id, security_id) DO UPDATE SET long_qty = excluded.long_qty, short_qty = excluded.short_qty"
}

// SetPos upserts the (tag, symbol) position with the given pair,
// upserting the security under the tag's portfolio on demand.
func (s *Store) SetPos(tag Tag, symbol string, long, short float64) error {
	secID, err := s.upsertSecurityID(tag.PortfolioID, symbol)
	if err != nil {
		return err
	}
	_, err = s.stmtCache.Exec(s.upsertPositionSQL(), tag.ID, secID, long, short)
	if err != nil {
		return fmt.Errorf("store: set_pos %q: %w", symbol, err)
	}
	return nil
}

// AddPos reads the current (long, short) pair for (tag, symbol),
// defaulting to (0, 0) if absent, writes (long+dLong, short+dShort),
// and returns the new pair.
func (s *Store) AddPos(tag Tag, symbol string, dLong, dShort float64) (long, short float64, err error) {
	secID, err := s.upsertSecurityID(tag.PortfolioID, symbol)
	if err != nil {
		return 0, 0, err
	}
	err = sq.Select("long_qty", "short_qty").From("aou_umpf_position").
		Where(sq.Eq{"tag_id": tag.ID, "security_id": secID}).
		RunWith(s.stmtCache).QueryRow().Scan(&long, &short)
	if err != nil && err != sql.ErrNoRows {
		return 0, 0, fmt.Errorf("store: add_pos %q: %w", symbol, err)
	}
	long += dLong
	short += dShort
	if _, err := s.stmtCache.Exec(s.upsertPositionSQL(), tag.ID, secID, long, short); err != nil {
		return 0, 0, fmt.Errorf("store: add_pos %q: %w", symbol, err)
	}
	return long, short, nil
}

// GetPos iterates the positions held under tag, invoking fn per row
// with the security's symbol. Iteration stops early when fn returns
// false.
func (s *Store) GetPos(tag Tag, fn func(symbol string, long, short float64) bool) error {
	rows, err := sq.Select("sec.short", "p.long_qty", "p.short_qty").
		From("aou_umpf_position p").
		Join("aou_umpf_security sec ON sec.security_id = p.security_id").
		Where(sq.Eq{"p.tag_id": tag.ID}).
		RunWith(s.stmtCache).Query()
	if err != nil {
		return fmt.Errorf("store: get_pos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var symbol string
		var long, short float64
		if err := rows.Scan(&symbol, &long, &short); err != nil {
			return err
		}
		if !fn(symbol, long, short) {
			break
		}
	}
	return rows.Err()
}

// GetNPos returns the number of positions held under tag.
func (s *Store) GetNPos(tag Tag) (int, error) {
	var n int
	err := sq.Select("COUNT(*)").From("aou_umpf_position").
		Where(sq.Eq{"tag_id": tag.ID}).
		RunWith(s.stmtCache).QueryRow().Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: get_npos: %w", err)
	}
	return n, nil
}
