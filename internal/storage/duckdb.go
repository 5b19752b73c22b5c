package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/lychee-technology/inquiry"
	"go.uber.org/zap"
)

// DuckDBRepository is an embedded single-file store. An empty path opens an
// in-memory database.
type DuckDBRepository struct {
	db      *sql.DB
	table   string
	nowFunc func() time.Time
}

// OpenDuckDB opens the database at path and creates the table.
func OpenDuckDB(ctx context.Context, path, table string) (*DuckDBRepository, error) {
	quoted, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// an in-memory database lives on a single connection
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	if _, err := db.ExecContext(ctx, tableDDL(quoted, "TEXT")); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	zap.S().Infow("duckdb repository opened", "path", dsn, "table", table)
	return &DuckDBRepository{db: db, table: quoted, nowFunc: time.Now}, nil
}

func (r *DuckDBRepository) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.nowFunc = now
}

// Close releases the database.
func (r *DuckDBRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database handle.
func (r *DuckDBRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *DuckDBRepository) Create(ctx context.Context, collection, key string, value []byte) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (collection, key, value, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`, r.table)
	res, err := r.db.ExecContext(ctx, query, collection, key, string(value), r.nowFunc().UnixMilli())
	if err != nil {
		return storageError("insert", collection, key, err)
	}
	return affected(res, func() error { return inquiry.NewAlreadyExistsError(collection, key) })
}

func (r *DuckDBRepository) Read(ctx context.Context, collection, key string) (*inquiry.Record, error) {
	query := fmt.Sprintf(`SELECT value, updated_at FROM %s WHERE collection = ? AND key = ?`, r.table)
	var (
		value     string
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, collection, key).Scan(&value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inquiry.NewNotFoundError(collection, key)
	}
	if err != nil {
		return nil, storageError("select", collection, key, err)
	}
	return &inquiry.Record{
		Collection: collection,
		Key:        key,
		Value:      []byte(value),
		UpdatedAt:  time.UnixMilli(updatedAt).UTC(),
	}, nil
}

func (r *DuckDBRepository) Update(ctx context.Context, collection, key string, value []byte) error {
	query := fmt.Sprintf(`UPDATE %s SET value = ?, updated_at = ? WHERE collection = ? AND key = ?`, r.table)
	res, err := r.db.ExecContext(ctx, query, string(value), r.nowFunc().UnixMilli(), collection, key)
	if err != nil {
		return storageError("update", collection, key, err)
	}
	return affected(res, func() error { return inquiry.NewNotFoundError(collection, key) })
}

func (r *DuckDBRepository) Delete(ctx context.Context, collection, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND key = ?`, r.table)
	res, err := r.db.ExecContext(ctx, query, collection, key)
	if err != nil {
		return storageError("delete", collection, key, err)
	}
	return affected(res, func() error { return inquiry.NewNotFoundError(collection, key) })
}

func (r *DuckDBRepository) List(ctx context.Context, collection string) ([]inquiry.Record, error) {
	query := fmt.Sprintf(`SELECT key, value, updated_at FROM %s WHERE collection = ? ORDER BY key`, r.table)
	rows, err := r.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, storageError("list", collection, "", err)
	}
	defer rows.Close()

	out := make([]inquiry.Record, 0)
	for rows.Next() {
		var (
			key, value string
			updatedAt  int64
		)
		if err := rows.Scan(&key, &value, &updatedAt); err != nil {
			return nil, storageError("scan", collection, "", err)
		}
		out = append(out, inquiry.Record{
			Collection: collection,
			Key:        key,
			Value:      []byte(value),
			UpdatedAt:  time.UnixMilli(updatedAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list", collection, "", err)
	}
	return out, nil
}

func affected(res sql.Result, none func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return none()
	}
	return nil
}
