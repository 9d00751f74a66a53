// Package store is the librecast persistence adapter: schema creation and
// the two prepared inserts (message log, per-channel keyval updates) over
// an embedded SQLite database. It is an opaque store as far as the rest of
// librecast is concerned — no transactions are exposed, every insert
// autocommits.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/librecast/librecast/internal/logging"
)

// DefaultPath is the build-time database file path from the C original
// (LC_DATABASE_FILE), kept as an overridable package default rather than a
// hardcoded constant so tests can point at a scratch file.
var DefaultPath = "librecast.db"

const (
	schemaKeyval = `CREATE TABLE IF NOT EXISTS keyval (
		src UNSIGNED INTEGER,
		seq UNSIGNED INTEGER,
		rnd UNSIGNED INTEGER,
		k TEXT UNIQUE,
		v TEXT
	);`

	schemaKeyvalChannel = `CREATE TABLE IF NOT EXISTS keyval_channel (
		src UNSIGNED INTEGER,
		seq UNSIGNED INTEGER,
		rnd UNSIGNED INTEGER,
		channel TEXT,
		k TEXT,
		v TEXT
	);`

	schemaKeyvalChannelIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_keyval_channel_00
		ON keyval_channel (channel, k);`

	schemaMessage = `CREATE TABLE IF NOT EXISTS message (
		id INTEGER PRIMARY KEY DESC,
		src TEXT,
		dst TEXT,
		seq TEXT,
		rnd TEXT,
		channel TEXT,
		msg TEXT
	);`

	insertMessage = `INSERT INTO message (src, dst, seq, rnd, channel, msg)
		VALUES (?, ?, ?, ?, ?, ?);`

	insertKeyvalChannel = `INSERT INTO keyval_channel (src, seq, rnd, channel, k, v)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel, k) DO UPDATE SET src=excluded.src, seq=excluded.seq, rnd=excluded.rnd, v=excluded.v;`
)

// Store wraps a database/sql handle (a connection pool) over one SQLite
// database file. The zero value is not usable;
// construct with Open.
type Store struct {
	db *sql.DB
}

// MessageRow is one row of the message log table.
type MessageRow struct {
	Src     string
	Dst     string
	Seq     uint64
	Rnd     uint64
	Channel string
	Msg     []byte
}

// KeyValRow is one row of the keyval_channel table.
type KeyValRow struct {
	Src     string
	Seq     uint64
	Rnd     uint64
	Channel string
	Key     string
	Value   string
}

// Open opens (creating if necessary) the database file at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection. Safe to call on a nil Store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exec runs a side-effecting statement with no result rows.
func (s *Store) Exec(sqlText string, args ...any) error {
	logging.Trace("store: exec %s", sqlText)
	_, err := s.db.Exec(sqlText, args...)
	return err
}

// CreateSchema idempotently creates the four tables and one unique index
// the rest of librecast relies on.
func (s *Store) CreateSchema() error {
	for _, stmt := range []string{schemaKeyval, schemaKeyvalChannel, schemaKeyvalChannelIndex, schemaMessage} {
		if err := s.Exec(stmt); err != nil {
			return fmt.Errorf("store: create schema: %w", err)
		}
	}
	return nil
}

// InsertMessage logs a received message into the message table. Sequence
// numbers and nonces are stored as decimal text, since SQLite has no
// native unsigned 64-bit integer type and these values can exceed its
// signed range.
func (s *Store) InsertMessage(ctx context.Context, row MessageRow) error {
	_, err := s.db.ExecContext(ctx, insertMessage,
		row.Src, row.Dst, strconv.FormatUint(row.Seq, 10), strconv.FormatUint(row.Rnd, 10), row.Channel, string(row.Msg))
	if err != nil {
		return fmt.Errorf("store: insert message: %w", err)
	}
	return nil
}

// CountMessages returns how many rows of the message log table match
// channel and msg exactly, the query shape spec.md's testable scenarios
// phrase as "the message table contains a row ... whose msg equals ...".
func (s *Store) CountMessages(ctx context.Context, channel, msg string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message WHERE channel = ? AND msg = ?", channel, msg)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count messages: %w", err)
	}
	return count, nil
}

// InsertKeyValChannel records a per-channel key/value update, as driven by
// SET message reception. (channel, k) is unique: a repeated key for the
// same channel overwrites the prior value rather than erroring.
func (s *Store) InsertKeyValChannel(ctx context.Context, row KeyValRow) error {
	_, err := s.db.ExecContext(ctx, insertKeyvalChannel,
		row.Src, strconv.FormatUint(row.Seq, 10), strconv.FormatUint(row.Rnd, 10), row.Channel, row.Key, row.Value)
	if err != nil {
		return fmt.Errorf("store: insert keyval: %w", err)
	}
	return nil
}
