package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/factory"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := loadConfig()

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := factory.NewService(ctx, cfg)
	if err != nil {
		sugar.Fatalf("failed to create service: %v", err)
	}
	defer svc.Close()

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      NewServer(svc),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("starting server", "port", cfg.Server.Port, "storage", cfg.Storage.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		sugar.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("graceful shutdown failed", "error", err)
		}
	}
}

// loadConfig overlays environment variables on the defaults.
func loadConfig() *inquiry.Config {
	cfg := inquiry.DefaultConfig()

	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.Server.MaxBodyBytes)))

	cfg.Storage.Backend = inquiry.StorageBackend(getEnv("STORAGE_BACKEND", string(cfg.Storage.Backend)))
	cfg.Storage.DuckDBPath = getEnv("DUCKDB_PATH", cfg.Storage.DuckDBPath)
	db := &cfg.Storage.Database
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnvInt("DB_PORT", db.Port)
	db.Database = getEnv("DB_NAME", db.Database)
	db.Username = getEnv("DB_USER", db.Username)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.SSLMode = getEnv("DB_SSL_MODE", db.SSLMode)
	db.MaxConnections = getEnvInt("DB_MAX_CONNECTIONS", db.MaxConnections)
	db.Timeout = getEnvDuration("DB_TIMEOUT", db.Timeout)
	db.TableName = getEnv("DB_TABLE", db.TableName)
	db.UseIAMAuth = getEnvBool("DB_IAM_AUTH", db.UseIAMAuth)
	db.Region = getEnv("DB_REGION", db.Region)

	cfg.Export.ScriptBaseURL = getEnv("SCRIPT_BASE_URL", cfg.Export.ScriptBaseURL)
	cfg.Export.Endpoint = getEnv("SUBMIT_ENDPOINT", cfg.Export.Endpoint)
	cfg.Export.SubmitTimeout = getEnvDuration("SUBMIT_TIMEOUT", cfg.Export.SubmitTimeout)

	p := &cfg.Publish
	p.Enabled = getEnvBool("PUBLISH_ENABLED", p.Enabled)
	p.Bucket = getEnv("S3_BUCKET", p.Bucket)
	p.Prefix = getEnv("S3_PREFIX", p.Prefix)
	p.Region = getEnv("S3_REGION", p.Region)
	p.Endpoint = getEnv("S3_ENDPOINT", p.Endpoint)
	p.AccessKeyID = getEnv("S3_ACCESS_KEY_ID", p.AccessKeyID)
	p.SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", p.SecretAccessKey)
	p.UsePathStyle = getEnvBool("S3_USE_PATH_STYLE", p.UsePathStyle)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	return cfg
}

// newLogger builds a production logger, or a development one at debug level.
func newLogger(lc inquiry.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	zc := zap.NewProductionConfig()
	if level.Level() == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	if lc.Format == "console" {
		zc.Encoding = "console"
	}
	return zc.Build()
}
