package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrReadOnly is returned by writes to a store opened with ReadOnly.
var ErrReadOnly = errors.New("pass log is read-only")

// ErrNotPassLog is returned when a read-only open finds no pass log schema.
var ErrNotPassLog = errors.New("database holds no pass log")

// migration brings user_version from version-1 to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations are applied in order, each in its own transaction. A log is
// usable for reads from version 1 on.
var migrations = []migration{
	{1, "passes and effects tables", schemaSQL},
	{2, "effect index for statistics", `CREATE INDEX IF NOT EXISTS idx_effects_effect ON effects(effect)`},
}

// SchemaVersion is the user_version of a fully migrated pass log.
var SchemaVersion = migrations[len(migrations)-1].version

// Store is the SQLite commit log of render passes.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	readOnly bool
}

// ReadOnly opens an existing log for inspection. The file is never
// created, no migration runs, and WritePass fails with ErrReadOnly.
func ReadOnly() Option {
	return func(c *openConfig) {
		c.readOnly = true
	}
}

// Open opens the pass log at path, creating and migrating it unless
// ReadOnly is given. ":memory:" opens a private in-memory log.
//
// A writable log uses WAL mode, so `trace` can read while `render` appends.
// Only one connection is kept: SQLite allows a single writer.
func Open(path string, opts ...Option) (*Store, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := path
	if cfg.readOnly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open pass log %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open pass log %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path, readOnly: cfg.readOnly}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open pass log %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if s.readOnly {
		pragmas = append(pragmas, "PRAGMA query_only = ON")
	} else {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	version, err := s.Version()
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	if s.readOnly {
		if version == 0 {
			return ErrNotPassLog
		}
		return nil
	}
	return s.migrate(version)
}

func (s *Store) migrate(from int) error {
	for _, m := range migrations {
		if m.version <= from {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	return nil
}

// Version returns the log's schema version (PRAGMA user_version).
func (s *Store) Version() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened with ReadOnly.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// pragma reads a single pragma value as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
