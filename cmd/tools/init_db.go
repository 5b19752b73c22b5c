package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/health"
	"github.com/lychee-technology/inquiry/internal/storage"
)

type initDBOptions struct {
	db        inquiry.DatabaseConfig
	printOnly bool
}

func runInitDB(args []string) error {
	flags := flag.NewFlagSet("init-db", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: inquiry-tools init-db [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	defaults := inquiry.DefaultConfig().Storage.Database
	opts := initDBOptions{db: defaults}
	flags.StringVar(&opts.db.Host, "db-host", getenvDefault("DB_HOST", defaults.Host), "database host")
	flags.IntVar(&opts.db.Port, "db-port", getenvDefaultInt("DB_PORT", defaults.Port), "database port")
	flags.StringVar(&opts.db.Database, "db-name", getenvDefault("DB_NAME", defaults.Database), "database name")
	flags.StringVar(&opts.db.Username, "db-user", getenvDefault("DB_USER", "postgres"), "database user")
	flags.StringVar(&opts.db.Password, "db-password", getenvDefault("DB_PASSWORD", ""), "database password")
	flags.StringVar(&opts.db.SSLMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", defaults.SSLMode), "database sslmode")
	flags.StringVar(&opts.db.TableName, "table", getenvDefault("DB_TABLE", defaults.TableName), "key/value table name")
	flags.BoolVar(&opts.db.UseIAMAuth, "iam-auth", getenvDefaultBool("DB_IAM_AUTH", false), "authenticate with a DSQL IAM token")
	flags.StringVar(&opts.db.Region, "region", getenvDefault("DB_REGION", ""), "AWS region for IAM auth")
	flags.BoolVar(&opts.printOnly, "print", false, "Print the DDL instead of executing it")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.printOnly {
		ddl, err := storage.CreateTableSQL(opts.db.TableName)
		if err != nil {
			return err
		}
		fmt.Println(ddl + ";")
		return nil
	}
	return initDatabase(opts)
}

func initDatabase(opts initDBOptions) error {
	if err := health.ValidatePostgresConfig(opts.db); err != nil {
		return err
	}
	ddl, err := storage.CreateTableSQL(opts.db.TableName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := storage.NewPostgresPool(ctx, opts.db)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, ddl)
		return err
	}); err != nil {
		return err
	}

	fmt.Printf("Database initialized successfully, table: %s\n", opts.db.TableName)
	return nil
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
