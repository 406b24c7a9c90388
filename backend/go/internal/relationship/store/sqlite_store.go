package store

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS relationships (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	relationship TEXT UNIQUE,
	category TEXT
)`

// SQLiteStore keeps relationships in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs the migration.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open relationships db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate relationships db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]models.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, relationship, category FROM relationships ORDER BY relationship`)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var out []models.Relationship
	for rows.Next() {
		var r models.Relationship
		var cat sql.NullString
		if err := rows.Scan(&r.ID, &r.Relationship, &cat); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		r.Category = cat.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Add(ctx context.Context, relationship, category string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships (relationship, category) VALUES (?, ?) ON CONFLICT(relationship) DO NOTHING`,
		relationship, category,
	)
	if err != nil {
		return fmt.Errorf("insert relationship: %w", err)
	}
	return expectOne(res, ErrDuplicate)
}

func (s *SQLiteStore) Update(ctx context.Context, relationship, category string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE relationships SET category = ? WHERE relationship = ?`, category, relationship)
	if err != nil {
		return fmt.Errorf("update relationship: %w", err)
	}
	return expectOne(res, ErrNotFound)
}

func (s *SQLiteStore) Delete(ctx context.Context, relationship string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM relationships WHERE relationship = ?`, relationship)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	return expectOne(res, ErrNotFound)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func expectOne(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}
