package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/vector"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.CollectionIndex = (*Store)(nil)

// Store is a SQLite collection index persisted to a single database file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at path, creating parent directories.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is required", domain.ErrInvalidConfig)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// foreign_keys is a per-connection pragma, so it goes in the DSN.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_collections.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		logger.Debug("sqlite: applied migration %s", name)
	}

	return nil
}

// HasCollection reports whether the named collection exists.
func (s *Store) HasCollection(ctx context.Context, name string) (bool, error) {
	_, err := s.dimension(ctx, name)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// dimension returns the declared dimension of a collection.
func (s *Store) dimension(ctx context.Context, name string) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("getting collection %s: %w", name, err)
	}
	return dim, nil
}

// CreateCollection creates an empty collection with a declared dimension.
func (s *Store) CreateCollection(ctx context.Context, name string, dimension int) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidConfig, dimension)
	}

	exists, err := s.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: collection %s already exists", domain.ErrInvalidInput, name)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (name, dimension) VALUES (?, ?)", name, dimension); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}

// DropCollection removes a collection and its records.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE collection = ?", name); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	return tx.Commit()
}

// ListCollections returns the collection names in lexical order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Insert bulk-inserts records in a single transaction.
func (s *Store) Insert(ctx context.Context, name string, records []domain.Record) error {
	dim, err := s.dimension(ctx, name)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Dimension() != dim {
			return fmt.Errorf("%w: record %s has %d, collection %s declares %d",
				domain.ErrDimensionMismatch, r.ID, r.Dimension(), name, dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM records WHERE collection = ?", name).Scan(&next); err != nil {
		return fmt.Errorf("reading next position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records (collection, id, position, text, embedding) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		id := r.ID
		if id == "" {
			id = strconv.Itoa(next + i)
		}
		if _, err := stmt.ExecContext(ctx, name, id, next+i, r.Text, float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("inserting record %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Search scores every record of the collection and returns the best k.
func (s *Store) Search(ctx context.Context, name string, query []float32, k int) ([]driven.CollectionHit, error) {
	dim, err := s.dimension(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d, collection %s declares %d",
			domain.ErrDimensionMismatch, len(query), name, dim)
	}
	if k <= 0 {
		return []driven.CollectionHit{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, embedding FROM records WHERE collection = ? ORDER BY position", name)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	hits := []driven.CollectionHit{}
	for rows.Next() {
		var (
			hit  driven.CollectionHit
			blob []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		hit.Similarity = vector.Cosine(query, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	if _, err := s.dimension(ctx, name); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE collection = ?", name).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
