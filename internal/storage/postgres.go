package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/inquiry"
	"go.uber.org/zap"
)

type kvPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent validates a table name and returns it double-quoted.
func quoteIdent(name string) (string, error) {
	if !identRegex.MatchString(name) {
		return "", fmt.Errorf("invalid SQL identifier: %q", name)
	}
	return `"` + name + `"`, nil
}

// PostgresRepository stores snapshots in one key/value table.
type PostgresRepository struct {
	pool    kvPool
	table   string
	nowFunc func() time.Time
}

// NewPostgresRepository wraps a pgx pool. table is validated as an identifier.
func NewPostgresRepository(pool kvPool, table string) (*PostgresRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool cannot be nil")
	}
	quoted, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{pool: pool, table: quoted, nowFunc: time.Now}, nil
}

func (r *PostgresRepository) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.nowFunc = now
}

func (r *PostgresRepository) nowMillis() int64 {
	return r.nowFunc().UnixMilli()
}

// Ping checks the pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// CreateTableSQL returns the DDL of the key/value table.
func CreateTableSQL(table string) (string, error) {
	quoted, err := quoteIdent(table)
	if err != nil {
		return "", err
	}
	return tableDDL(quoted, "JSONB"), nil
}

func tableDDL(quoted, valueType string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  collection TEXT NOT NULL,
  key TEXT NOT NULL,
  value %s NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (collection, key)
)`, quoted, valueType)
}

// EnsureSchema creates the table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, tableDDL(r.table, "JSONB")); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, collection, key string, value []byte) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (collection, key, value, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (collection, key) DO NOTHING`,
		r.table)
	tag, err := r.pool.Exec(ctx, query, collection, key, string(value), r.nowMillis())
	if err != nil {
		return storageError("insert", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return inquiry.NewAlreadyExistsError(collection, key)
	}
	return nil
}

func (r *PostgresRepository) Read(ctx context.Context, collection, key string) (*inquiry.Record, error) {
	query := fmt.Sprintf(`SELECT value, updated_at FROM %s WHERE collection = $1 AND key = $2`, r.table)
	var (
		value     []byte
		updatedAt int64
	)
	if err := r.pool.QueryRow(ctx, query, collection, key).Scan(&value, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inquiry.NewNotFoundError(collection, key)
		}
		return nil, storageError("select", collection, key, err)
	}
	return &inquiry.Record{
		Collection: collection,
		Key:        key,
		Value:      value,
		UpdatedAt:  time.UnixMilli(updatedAt).UTC(),
	}, nil
}

func (r *PostgresRepository) Update(ctx context.Context, collection, key string, value []byte) error {
	query := fmt.Sprintf(`UPDATE %s SET value = $3, updated_at = $4 WHERE collection = $1 AND key = $2`, r.table)
	tag, err := r.pool.Exec(ctx, query, collection, key, string(value), r.nowMillis())
	if err != nil {
		return storageError("update", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return inquiry.NewNotFoundError(collection, key)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE collection = $1 AND key = $2`, r.table)
	tag, err := r.pool.Exec(ctx, query, collection, key)
	if err != nil {
		return storageError("delete", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return inquiry.NewNotFoundError(collection, key)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, collection string) ([]inquiry.Record, error) {
	query := fmt.Sprintf(`SELECT key, value, updated_at FROM %s WHERE collection = $1 ORDER BY key`, r.table)
	rows, err := r.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, storageError("list", collection, "", err)
	}
	defer rows.Close()

	out := make([]inquiry.Record, 0)
	for rows.Next() {
		var (
			rec       inquiry.Record
			updatedAt int64
		)
		if err := rows.Scan(&rec.Key, &rec.Value, &updatedAt); err != nil {
			return nil, storageError("scan", collection, "", err)
		}
		rec.Collection = collection
		rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list", collection, "", err)
	}
	return out, nil
}

func storageError(op, collection, key string, err error) error {
	return inquiry.NewInquiryError(inquiry.ErrorTypeInternal, inquiry.ErrCodeStorageFailed,
		fmt.Sprintf("%s %s/%s failed", op, collection, key)).WithCause(err)
}

// PostgresDSN builds a connection URL from the database settings.
func PostgresDSN(cfg inquiry.DatabaseConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.Username != "" {
		if cfg.Password != "" && !cfg.UseIAMAuth {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if cfg.Timeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(cfg.Timeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPostgresPool opens a pgx pool. With UseIAMAuth a DSQL auth token is
// generated for every new connection in place of the password.
func NewPostgresPool(ctx context.Context, cfg inquiry.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	if cfg.UseIAMAuth {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		endpoint := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		poolCfg.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
			if err != nil {
				return fmt.Errorf("generate iam auth token: %w", err)
			}
			cc.Password = token
			return nil
		}
		zap.S().Infow("postgres iam auth enabled", "endpoint", endpoint, "region", awsCfg.Region)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
