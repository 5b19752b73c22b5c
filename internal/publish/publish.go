// Package publish hosts the per-form script the compact artifact loads.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/breaker"
	"github.com/lychee-technology/inquiry/internal/namespace"
	"github.com/lychee-technology/inquiry/internal/telemetry"
	"go.uber.org/zap"
)

// ContentType is set on every uploaded script.
const ContentType = "application/javascript; charset=utf-8"

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// ScriptSource produces the hosted script of a form.
type ScriptSource interface {
	HostedScript(form *inquiry.Form) (string, error)
}

// S3Publisher uploads hosted scripts to an S3 bucket or an S3-compatible
// store. Repeated failures open a circuit breaker that short-circuits
// further uploads until it cools down.
type S3Publisher struct {
	cfg      inquiry.PublishConfig
	uploader uploader
	buckets  bucketAPI
	scripts  ScriptSource
	breaker  *breaker.CircuitBreaker
	nowFunc  func() time.Time
}

// NewS3Publisher builds an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Publisher(ctx context.Context, cfg inquiry.PublishConfig, scripts ScriptSource) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, inquiry.NewConfigurationError(inquiry.ErrCodeUploadFailed, "publish bucket is not configured")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newPublisher(cfg, manager.NewUploader(client), client, scripts), nil
}

func newPublisher(cfg inquiry.PublishConfig, up uploader, buckets bucketAPI, scripts ScriptSource) *S3Publisher {
	return &S3Publisher{
		cfg:      cfg,
		uploader: up,
		buckets:  buckets,
		scripts:  scripts,
		breaker:  breaker.New(cfg.BreakerThreshold, cfg.BreakerWindow, cfg.BreakerCooldown),
		nowFunc:  time.Now,
	}
}

// Key returns the object key of a form's script.
func (p *S3Publisher) Key(formID string) string {
	return p.cfg.Prefix + namespace.ScriptFileFor(formID)
}

// ObjectURL returns the public URL of key. Path-style or custom endpoints
// yield endpoint/bucket/key; otherwise the virtual-hosted AWS form is used.
func (p *S3Publisher) ObjectURL(key string) string {
	if p.cfg.Endpoint != "" {
		base := strings.TrimRight(p.cfg.Endpoint, "/")
		return base + "/" + url.PathEscape(p.cfg.Bucket) + "/" + escapeKey(key)
	}
	if p.cfg.UsePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", p.cfg.Region, url.PathEscape(p.cfg.Bucket), escapeKey(key))
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, escapeKey(key))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// Publish uploads the hosted script of form and returns its URL.
func (p *S3Publisher) Publish(ctx context.Context, form *inquiry.Form) (string, error) {
	script, err := p.scripts.HostedScript(form)
	if err != nil {
		return "", err
	}

	// Checked only once an upload is certain, so a trial slot is never
	// taken by a form that fails to render.
	if p.breaker.IsOpen() {
		telemetry.EmitPublishLatency(ctx, inquiry.ErrCodeCircuitOpen, 0)
		zap.S().Debugw("script upload refused", "formId", form.ID, "retryAfter", p.breaker.RetryAfter())
		return "", inquiry.NewTransportError(inquiry.ErrCodeCircuitOpen,
			"publishing is paused after repeated upload failures", nil)
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	key := p.Key(form.ID)
	start := p.nowFunc()
	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.cfg.Bucket),
		Key:          aws.String(key),
		Body:         strings.NewReader(script),
		ContentType:  aws.String(ContentType),
		CacheControl: aws.String("max-age=300"),
	})
	elapsed := p.nowFunc().Sub(start).Milliseconds()

	if err != nil {
		p.breaker.RecordFailure()
		telemetry.EmitPublishLatency(ctx, inquiry.ErrCodeUploadFailed, elapsed)
		zap.S().Warnw("script upload failed", "formId", form.ID, "bucket", p.cfg.Bucket, "key", key,
			"failures", p.breaker.Failures(), "error", err)
		return "", uploadError(err)
	}
	p.breaker.RecordSuccess()
	telemetry.EmitPublishLatency(ctx, "ok", elapsed)

	location := p.ObjectURL(key)
	if out != nil && out.Location != "" {
		location = out.Location
	}
	zap.S().Infow("script published", "formId", form.ID, "url", location, "ms", elapsed)
	return location, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (p *S3Publisher) EnsureBucket(ctx context.Context) error {
	bucket := aws.String(p.cfg.Bucket)
	if _, err := p.buckets.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: bucket}); err == nil {
		return nil
	}
	if _, err := p.buckets.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: bucket}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return uploadError(err)
	}
	return nil
}

func uploadError(err error) *inquiry.InquiryError {
	ie := inquiry.NewTransportError(inquiry.ErrCodeUploadFailed, "uploading the hosted script failed", err)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ie = ie.WithDetail("awsCode", apiErr.ErrorCode()).WithDetail("awsMessage", apiErr.ErrorMessage())
	}
	return ie
}
