// Package factory wires a Service from an inquiry.Config.
//
// Usage:
//
//	cfg := inquiry.DefaultConfig()
//	svc, err := factory.NewService(ctx, cfg)
//	if err != nil {
//	    // handle error
//	}
//	defer svc.Close()
//
//	html, err := svc.Export(ctx, formID, inquiry.OutputModeInline)
package factory

import (
	"context"
	"fmt"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/editor"
	"github.com/lychee-technology/inquiry/internal/health"
	"github.com/lychee-technology/inquiry/internal/intake"
	"github.com/lychee-technology/inquiry/internal/publish"
	"github.com/lychee-technology/inquiry/internal/storage"
	"github.com/lychee-technology/inquiry/internal/widget"
	"go.uber.org/zap"
)

// Service bundles the components the server and the CLI work with.
type Service struct {
	Config     *inquiry.Config
	Repository inquiry.Repository
	Stores     *storage.Stores
	Editor     *editor.Manager
	Assembler  *widget.Assembler
	Intake     *intake.Service
	// Publisher is nil unless publishing is enabled.
	Publisher *publish.S3Publisher
	Health    *health.Checker

	closeRepo func()
}

type options struct {
	repo     inquiry.Repository
	notifier intake.Notifier
}

// Option customises NewService.
type Option func(*options)

// WithRepository uses repo instead of opening the configured back end.
func WithRepository(repo inquiry.Repository) Option {
	return func(o *options) { o.repo = repo }
}

// WithNotifier replaces the logging notifier of the intake service.
func WithNotifier(n intake.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// NewService validates cfg and builds every component.
func NewService(ctx context.Context, cfg *inquiry.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = inquiry.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := health.ValidatePublishConfig(cfg.Publish); err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == inquiry.StorageBackendPostgres {
		if err := health.ValidatePostgresConfig(cfg.Storage.Database); err != nil {
			return nil, err
		}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	repo, closeRepo := o.repo, func() {}
	if repo == nil {
		var err error
		repo, closeRepo, err = storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	stores := storage.NewStores(repo)
	assembler := widget.NewAssembler(cfg.Export)
	svc := &Service{
		Config:     cfg,
		Repository: repo,
		Stores:     stores,
		Editor:     editor.NewManager(stores, assembler.Config().Messages),
		Assembler:  assembler,
		Intake:     intake.NewService(stores, assembler.Config().Messages, o.notifier),
		Health:     health.NewChecker(),
		closeRepo:  closeRepo,
	}

	if cfg.Publish.Enabled {
		pub, err := publish.NewS3Publisher(ctx, cfg.Publish, assembler)
		if err != nil {
			closeRepo()
			return nil, fmt.Errorf("create publisher: %w", err)
		}
		svc.Publisher = pub
		svc.Health.Register("s3", func(ctx context.Context) error {
			return health.S3HealthCheck(ctx, cfg.Publish, cfg.Publish.Timeout)
		})
	}
	if p, ok := repo.(health.Pinger); ok {
		svc.Health.Register("storage", func(ctx context.Context) error {
			return p.Ping(ctx)
		})
	}

	zap.S().Infow("inquiry service ready",
		"storage", cfg.Storage.Backend,
		"publish", cfg.Publish.Enabled,
		"scriptBaseUrl", assembler.Config().ScriptBaseURL)
	return svc, nil
}

// Close releases the storage back end.
func (s *Service) Close() {
	if s.closeRepo != nil {
		s.closeRepo()
	}
}

// Export builds the artifact of a stored form.
func (s *Service) Export(ctx context.Context, formID string, mode inquiry.OutputMode) (string, error) {
	form, err := s.Stores.Forms.Get(ctx, formID)
	if err != nil {
		return "", err
	}
	return s.Assembler.Build(form, mode)
}

// HostedScript builds the script file the compact artifact loads.
func (s *Service) HostedScript(ctx context.Context, formID string) (string, error) {
	form, err := s.Stores.Forms.Get(ctx, formID)
	if err != nil {
		return "", err
	}
	return s.Assembler.HostedScript(form)
}

// Publish uploads the hosted script of a stored form.
func (s *Service) Publish(ctx context.Context, formID string) (string, error) {
	if s.Publisher == nil {
		return "", inquiry.NewConfigurationError(inquiry.ErrCodeUploadFailed, "publishing is not enabled")
	}
	form, err := s.Stores.Forms.Get(ctx, formID)
	if err != nil {
		return "", err
	}
	return s.Publisher.Publish(ctx, form)
}
