// Package sqlitevec provides a vector index backed by a sqlite-vec vec0
// virtual table.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/docqa/pkg/vector"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// maxKNN is the largest k vec0 accepts in a KNN query.
const maxKNN = 4096

// Index implements vector.Index on SQLite with sqlite-vec. Slot i is stored
// under rowid i+1.
type Index struct {
	db     *sql.DB
	dims   int
	logger *slog.Logger

	mu   sync.RWMutex
	size int
}

var _ vector.Index = (*Index)(nil)

// Config holds configuration for the sqlite-vec index.
type Config struct {
	// DBPath is the path to the SQLite database file. Empty means MemoryPath.
	// A file path is only useful for inspecting an index with the sqlite3
	// shell; the table is recreated on every start.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewIndex creates a fresh sqlite-vec index.
func NewIndex(c Config, logger *slog.Logger) (*Index, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	dbPath := c.DBPath
	if dbPath == "" {
		dbPath = MemoryPath
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if _, err := db.Exec(`DROP TABLE IF EXISTS vec_chunks`); err != nil {
		db.Close()
		return nil, fmt.Errorf("dropping stale vec0 table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE vec_chunks USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector index initialized",
		"db_path", dbPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Index{
		db:     db,
		dims:   int(c.Dimensions),
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Add inserts vectors in one transaction.
func (x *Index) Add(ctx context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	dims, err := vector.Dimensions(vectors)
	if err != nil {
		return err
	}
	if dims != x.dims {
		return fmt.Errorf("%w: got %d dimensions, index has %d",
			vector.ErrDimensionMismatch, dims, x.dims)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vec_chunks(rowid, embedding) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range vectors {
		slot := x.size + i
		if _, err := stmt.ExecContext(ctx, int64(slot+1), serializeFloat32(v)); err != nil {
			return fmt.Errorf("inserting embedding for slot %d: %w", slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	x.size += len(vectors)

	x.logger.Debug("added vectors to sqlite-vec",
		"count", len(vectors),
		"total", x.size,
	)

	return nil
}

// Search runs a vec0 KNN query and applies the slot tie-break, since vec0
// leaves the order of equal distances unspecified. Up to maxKNN rows are
// fetched so ties at the k boundary resolve the same way as the flat index.
// Indexes larger than maxKNN are searched with an exact scan instead.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := vector.CheckQuery(x.size, x.dims, query, k); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	if x.size <= maxKNN {
		rows, err = x.db.QueryContext(ctx, `
			SELECT rowid, distance
			FROM vec_chunks
			WHERE embedding MATCH ?
				AND k = ?
			ORDER BY distance
		`, serializeFloat32(query), x.size)
	} else {
		rows, err = x.db.QueryContext(ctx, `
			SELECT rowid, vec_distance_l2(embedding, ?) AS distance
			FROM vec_chunks
			ORDER BY distance, rowid
			LIMIT ?
		`, serializeFloat32(query), min(k, x.size))
	}
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.Result
	for rows.Next() {
		var rowID int64
		var distance float64
		if err := rows.Scan(&rowID, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		// vec0 and vec_distance_l2 report plain L2 distance.
		results = append(results, vector.Result{
			Slot:     int(rowID - 1),
			Distance: float32(distance * distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	vector.SortResults(results)
	if k < len(results) {
		results = results[:k]
	}

	x.logger.Debug("queried sqlite-vec",
		"results", len(results),
	)

	return results, nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}
