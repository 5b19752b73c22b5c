package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/health"
	"github.com/lychee-technology/inquiry/internal/publish"
	"github.com/lychee-technology/inquiry/internal/widget"
)

type publishOptions struct {
	formFile      string
	createBucket  bool
	scriptBaseURL string
	endpoint      string
	cfg           inquiry.PublishConfig
}

func runPublish(args []string) error {
	flags := flag.NewFlagSet("publish", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: inquiry-tools publish [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	defaults := inquiry.DefaultConfig()
	opts := publishOptions{cfg: defaults.Publish}
	opts.cfg.Enabled = true
	flags.StringVar(&opts.formFile, "form", "", "Path to the form JSON file (required)")
	flags.BoolVar(&opts.createBucket, "create-bucket", false, "Create the bucket when it does not exist")
	flags.StringVar(&opts.scriptBaseURL, "script-base-url", getenvDefault("SCRIPT_BASE_URL", defaults.Export.ScriptBaseURL), "Base URL of hosted scripts")
	flags.StringVar(&opts.endpoint, "endpoint", getenvDefault("SUBMIT_ENDPOINT", defaults.Export.Endpoint), "Submission endpoint baked into the widget")
	flags.StringVar(&opts.cfg.Bucket, "bucket", getenvDefault("S3_BUCKET", ""), "Target bucket (required)")
	flags.StringVar(&opts.cfg.Prefix, "prefix", getenvDefault("S3_PREFIX", opts.cfg.Prefix), "Key prefix")
	flags.StringVar(&opts.cfg.Region, "region", getenvDefault("S3_REGION", opts.cfg.Region), "AWS region")
	flags.StringVar(&opts.cfg.Endpoint, "s3-endpoint", getenvDefault("S3_ENDPOINT", ""), "Custom S3 endpoint, e.g. http://localhost:4566")
	flags.StringVar(&opts.cfg.AccessKeyID, "access-key-id", getenvDefault("S3_ACCESS_KEY_ID", ""), "Static access key id")
	flags.StringVar(&opts.cfg.SecretAccessKey, "secret-access-key", getenvDefault("S3_SECRET_ACCESS_KEY", ""), "Static secret access key")
	flags.BoolVar(&opts.cfg.UsePathStyle, "path-style", getenvDefaultBool("S3_USE_PATH_STYLE", false), "Use path-style addressing")
	flags.DurationVar(&opts.cfg.Timeout, "timeout", getenvDefaultDuration("S3_TIMEOUT", opts.cfg.Timeout), "Upload timeout")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	url, err := publishForm(context.Background(), opts)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

func publishForm(ctx context.Context, opts publishOptions) (string, error) {
	if err := health.ValidatePublishConfig(opts.cfg); err != nil {
		return "", err
	}
	form, err := loadCheckedForm(opts.formFile)
	if err != nil {
		return "", err
	}

	exportCfg := inquiry.DefaultConfig().Export
	exportCfg.ScriptBaseURL = opts.scriptBaseURL
	exportCfg.Endpoint = opts.endpoint

	pub, err := publish.NewS3Publisher(ctx, opts.cfg, widget.NewAssembler(exportCfg))
	if err != nil {
		return "", err
	}
	if opts.createBucket {
		if err := pub.EnsureBucket(ctx); err != nil {
			return "", err
		}
	}
	return pub.Publish(ctx, form)
}
