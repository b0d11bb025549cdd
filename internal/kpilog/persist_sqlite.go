package kpilog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLitePersister keeps blobs in a kpi_kv table.
type SQLitePersister struct {
	DBPath string
	db     *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLitePersister, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve kpi db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure kpi db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open kpi db: %w", err)
	}

	p := &SQLitePersister{
		DBPath: absPath,
		db:     db,
	}
	if err := p.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *SQLitePersister) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS kpi_kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`
	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("create kpi schema: %w", err)
	}
	return nil
}

func (p *SQLitePersister) Read(key string) ([]byte, error) {
	var value string
	err := p.db.QueryRow("SELECT value FROM kpi_kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read kpi blob: %w", err)
	}
	return []byte(value), nil
}

func (p *SQLitePersister) Write(key string, blob []byte) error {
	_, err := p.db.Exec(`
		INSERT INTO kpi_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(blob), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write kpi blob: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *SQLitePersister) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
