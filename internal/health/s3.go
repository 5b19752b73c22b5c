package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lychee-technology/inquiry"
)

// ValidatePublishConfig checks the S3 publishing settings.
func ValidatePublishConfig(cfg inquiry.PublishConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("publish.bucket is required")
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey == "" {
		return fmt.Errorf("publish.accessKeyId provided without publish.secretAccessKey")
	}
	if cfg.SecretAccessKey != "" && cfg.AccessKeyID == "" {
		return fmt.Errorf("publish.secretAccessKey provided without publish.accessKeyId")
	}
	return nil
}

// S3HealthCheck sends a HEAD request to the configured endpoint. It only
// checks reachability: 2xx and 3xx pass, 401 and 403 are reported as auth
// errors. Without a custom endpoint there is nothing to probe.
func S3HealthCheck(ctx context.Context, cfg inquiry.PublishConfig, timeout time.Duration) error {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("s3 health request build failed: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("s3 health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("s3 endpoint reachable but returned auth error: %d", resp.StatusCode)
	}
	return fmt.Errorf("s3 endpoint returned unexpected status: %d", resp.StatusCode)
}
