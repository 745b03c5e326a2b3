package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deepfates/silicon/internal/models"
)

// SQLiteStore implements RecordStore using SQLite. Embeddings are stored as
// little-endian float32 blobs; cached neighbors as nullable JSON, where NULL
// means no cached result and "[]" means a cached empty result.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		path TEXT PRIMARY KEY,
		modified_at INTEGER NOT NULL,
		embedding BLOB,
		neighbors TEXT
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the record for path.
func (s *SQLiteStore) Get(ctx context.Context, path string) (*models.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT path, modified_at, embedding, neighbors FROM records WHERE path = ?`, path)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Put writes the whole record in a single statement.
func (s *SQLiteStore) Put(ctx context.Context, rec *models.DocumentRecord) error {
	neighbors, err := encodeNeighbors(rec.Neighbors)
	if err != nil {
		return fmt.Errorf("encode neighbors: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO records (path, modified_at, embedding, neighbors) VALUES (?, ?, ?, ?)`,
		rec.Path, rec.ModifiedAt, encodeVector(rec.Embedding), neighbors,
	)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// Delete removes the record for path.
func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Paths returns all stored identities.
func (s *SQLiteStore) Paths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM records ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Scan calls fn for every record in path order.
func (s *SQLiteStore) Scan(ctx context.Context, fn func(rec *models.DocumentRecord) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, modified_at, embedding, neighbors FROM records ORDER BY path`)
	if err != nil {
		return fmt.Errorf("scan records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(scan func(dest ...any) error) (*models.DocumentRecord, error) {
	var (
		rec       models.DocumentRecord
		embedding []byte
		neighbors sql.NullString
	)
	if err := scan(&rec.Path, &rec.ModifiedAt, &embedding, &neighbors); err != nil {
		return nil, err
	}
	rec.Embedding = decodeVector(embedding)
	if neighbors.Valid {
		rec.Neighbors = []models.Neighbor{}
		if err := json.Unmarshal([]byte(neighbors.String), &rec.Neighbors); err != nil {
			return nil, fmt.Errorf("decode neighbors: %w", err)
		}
	}
	return &rec, nil
}

func encodeNeighbors(neighbors []models.Neighbor) (any, error) {
	if neighbors == nil {
		return nil, nil
	}
	data, err := json.Marshal(neighbors)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func encodeVector(v []float32) []byte {
	if v == nil {
		return nil
	}
	const size = 4
	out := make([]byte, len(v)*size)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
