package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLite wraps the SQLite connection shared by all record tables
type SQLite struct {
	conn *sql.DB
}

// SQLiteTable is a Backend storing records as rows of one table
type SQLiteTable struct {
	conn  *sql.DB
	table string
}

// OpenSQLite opens (or creates) the database at dbPath
func OpenSQLite(dbPath string) (*SQLite, error) {
	// Add connection parameters to help with concurrent access
	connString := dbPath
	if dbPath != ":memory:" {
		connString = dbPath + "?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	conn, err := sql.Open("sqlite", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite doesn't handle concurrent writes well, and
	// :memory: databases are per connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLite{conn: conn}, nil
}

// Close closes the database connection
func (db *SQLite) Close() error {
	return db.conn.Close()
}

// Table returns a backend over the named table, creating it if needed
func (db *SQLite) Table(name string) (*SQLiteTable, error) {
	if !tableNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	)`, name)

	if _, err := db.conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize table %s: %w", name, err)
	}

	return &SQLiteTable{conn: db.conn, table: name}, nil
}

// Get retrieves a record by key
func (t *SQLiteTable) Get(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := t.conn.QueryRow(fmt.Sprintf(`SELECT data FROM %s WHERE key = ?`, t.table), key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}
	return data, nil
}

// Put inserts or replaces a record in a single statement
func (t *SQLiteTable) Put(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (key, data, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, t.table)

	if _, err := t.conn.Exec(query, key, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put record %s: %w", key, err)
	}
	return nil
}

// Delete removes a record; deleting a missing key succeeds
func (t *SQLiteTable) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if _, err := t.conn.Exec(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, t.table), key); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

// List returns all records ordered by key
func (t *SQLiteTable) List() ([]Record, error) {
	rows, err := t.conn.Query(fmt.Sprintf(`SELECT key, data FROM %s ORDER BY key`, t.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Key, &r.Data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}
