package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/grocery/internal/domain"
)

// Compile-time interface check.
var _ domain.ListStore = (*SQLiteList)(nil)

// SQLiteDB holds the staples and pantry tables in one database file.
type SQLiteDB struct {
	db *sql.DB
}

var tableName = regexp.MustCompile(`^[a-z_]+$`)

// OpenSQLite opens (or creates) the database at path and ensures the
// named list tables exist.
func OpenSQLite(path string, lists ...string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	// A single connection keeps writes serialized for this one-user tool.
	db.SetMaxOpenConns(1)

	s := &SQLiteDB{db: db}
	for _, name := range lists {
		if err := s.initList(name); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the database.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) initList(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("storage: invalid list name %q", name)
	}
	schema := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %s (
        position INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        quantity TEXT NOT NULL DEFAULT ''
    );`, name)

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("storage: create table %s: %w", name, err)
	}
	return nil
}

// List returns a ListStore for a table created by OpenSQLite.
func (s *SQLiteDB) List(name string) *SQLiteList {
	return &SQLiteList{db: s.db, table: name}
}

// SQLiteList is one named list stored as a table.
type SQLiteList struct {
	db    *sql.DB
	table string
}

// Items returns the items in insertion order.
func (l *SQLiteList) Items(ctx context.Context) ([]domain.NamedItem, error) {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf(`SELECT name, quantity FROM %s ORDER BY position`, l.table))
	if err != nil {
		return nil, fmt.Errorf("storage: query %s: %w", l.table, err)
	}
	defer rows.Close()

	items := []domain.NamedItem{}
	for rows.Next() {
		var it domain.NamedItem
		if err := rows.Scan(&it.Name, &it.Quantity); err != nil {
			return nil, fmt.Errorf("storage: scan %s: %w", l.table, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Add inserts item unless its name exists.
func (l *SQLiteList) Add(ctx context.Context, item domain.NamedItem) (bool, error) {
	res, err := l.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, quantity) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, l.table),
		item.Name, item.Quantity)
	if err != nil {
		return false, fmt.Errorf("storage: insert into %s: %w", l.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: insert into %s: %w", l.table, err)
	}
	return n > 0, nil
}

// Remove deletes the named item if present.
func (l *SQLiteList) Remove(ctx context.Context, name string) (bool, error) {
	res, err := l.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = ?`, l.table), name)
	if err != nil {
		return false, fmt.Errorf("storage: delete from %s: %w", l.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: delete from %s: %w", l.table, err)
	}
	return n > 0, nil
}
