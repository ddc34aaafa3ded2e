package payloadstore

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relaytics/analytics-go/payload"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty database
// 1 - payloads table
const currentSchemaVersion = 1

// ErrClosed is returned by Store operations after Close.
var ErrClosed = errors.New("payload store is closed")

// Range identifies a contiguous set of rows by their inclusive id bounds. The zero value is an
// empty range.
type Range struct {
	MinID int64
	MaxID int64
}

// IsEmpty returns true if the range contains no rows.
func (r Range) IsEmpty() bool {
	return r.MinID == 0 && r.MaxID == 0
}

// Store is a crash-durable, insertion-ordered table of serialized payloads with a capacity ceiling.
//
// Store is not safe for concurrent use except for Count; all other calls must come from one goroutine.
// Worker provides that goroutine.
type Store struct {
	db           *sql.DB
	maxQueueSize int
	count        atomic.Int64
	loggers      ldlog.Loggers
}

// Open creates or opens the SQLite database at path. Pass ":memory:" for a database that lives only
// as long as the Store.
//
// If the database was written by a newer version of this library with an unknown schema, its
// contents are discarded.
func Open(path string, maxQueueSize int, loggers ldlog.Loggers) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to payload database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps a ":memory:" database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db, loggers); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, maxQueueSize: maxQueueSize, loggers: loggers}
	var n int64
	if err := db.QueryRow("SELECT COUNT(*) FROM payloads").Scan(&n); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to count queued payloads: %w", err)
	}
	s.count.Store(n)
	if n > 0 {
		loggers.Debugf("Opened payload queue with %d stored payloads", n)
	}
	return s, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB, loggers ldlog.Loggers) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		loggers.Warnf("Payload database has unknown schema version %d; discarding its contents", version)
		if _, err := db.Exec("DROP TABLE IF EXISTS payloads"); err != nil {
			return fmt.Errorf("drop payloads: %w", err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Append stores one serialized payload. It returns false, with no error, if the queue already holds
// its maximum number of rows; in that case nothing is written. The second return value is the row
// count after the call.
func (s *Store) Append(data []byte) (bool, int, error) {
	if s.db == nil {
		return false, 0, ErrClosed
	}
	current := s.count.Load()
	if s.maxQueueSize > 0 && current >= int64(s.maxQueueSize) {
		return false, int(current), nil
	}
	if _, err := s.db.Exec("INSERT INTO payloads (payload) VALUES (?)", string(data)); err != nil {
		return false, int(current), fmt.Errorf("insert payload: %w", err)
	}
	return true, int(s.count.Add(1)), nil
}

// ReadRange returns up to limit rows in ascending id order, along with the id bounds of the rows
// read. Rows that can no longer be decoded are logged and left out of the returned list, but are
// still covered by the range so that deleting the range removes them. An empty store returns an
// empty Range.
func (s *Store) ReadRange(limit int) (Range, []payload.Payload, error) {
	if s.db == nil {
		return Range{}, nil, ErrClosed
	}
	rows, err := s.db.Query("SELECT id, payload FROM payloads ORDER BY id ASC LIMIT ?", limit)
	if err != nil {
		return Range{}, nil, fmt.Errorf("query payloads: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var r Range
	var payloads []payload.Payload
	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return Range{}, nil, fmt.Errorf("scan payload: %w", err)
		}
		if r.MinID == 0 {
			r.MinID = id
		}
		r.MaxID = id
		p, err := payload.Parse([]byte(data))
		if err != nil {
			s.loggers.Warnf("Discarding unreadable stored payload %d: %s", id, err)
			continue
		}
		payloads = append(payloads, p.WithRowID(id))
	}
	if err := rows.Err(); err != nil {
		return Range{}, nil, fmt.Errorf("iterate payloads: %w", err)
	}
	return r, payloads, nil
}

// DeleteRange removes every row whose id is within [minID, maxID] and returns the number removed.
func (s *Store) DeleteRange(minID, maxID int64) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	result, err := s.db.Exec("DELETE FROM payloads WHERE id BETWEEN ? AND ?", minID, maxID)
	if err != nil {
		return 0, fmt.Errorf("delete payloads %d-%d: %w", minID, maxID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete payloads %d-%d: %w", minID, maxID, err)
	}
	s.count.Add(-n)
	return int(n), nil
}

// Clear removes every row. It is used when the application resets its identity.
func (s *Store) Clear() (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	result, err := s.db.Exec("DELETE FROM payloads")
	if err != nil {
		return 0, fmt.Errorf("clear payloads: %w", err)
	}
	n, _ := result.RowsAffected()
	s.count.Store(0)
	return int(n), nil
}

// Count returns the number of stored rows without querying the database. It is safe to call from any
// goroutine.
func (s *Store) Count() int {
	return int(s.count.Load())
}

// MaxQueueSize returns the configured capacity.
func (s *Store) MaxQueueSize() int {
	return s.maxQueueSize
}

// Close closes the database. Calling it more than once has no effect.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
