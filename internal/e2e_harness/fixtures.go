package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lychee-technology/inquiry"
)

// ContactForm returns a deliverable form accepting submissions from
// localhost:3000.
func ContactForm() *inquiry.Form {
	return &inquiry.Form{
		Name: "Contact",
		Fields: []inquiry.FormField{
			{ID: "name", Type: inquiry.FieldTypeText, Label: "Name", Required: true},
			{ID: "email", Type: inquiry.FieldTypeText, Label: "Email", Order: 1,
				Validation: &inquiry.FieldValidation{Type: inquiry.ValidationTypeEmail}},
			{ID: "topic", Type: inquiry.FieldTypeRadio, Label: "Topic", Order: 2, Options: []string{"Sales", "Support"}},
		},
		Settings: inquiry.FormSettings{
			AllowedDomains:  []string{"localhost:3000"},
			RecipientEmails: []string{"ops@example.com"},
		},
	}
}

// CountRows counts the rows of one collection through database/sql, so the
// check does not share a driver with the repository under test.
func CountRows(ctx context.Context, db *sql.DB, table, collection string) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT count(*) FROM %q WHERE collection = $1`, table)
	if err := db.QueryRowContext(ctx, query, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// FetchObject downloads an object from the S3 container.
func FetchObject(ctx context.Context, endpoint, bucket, key string) (body string, contentType string, err error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(S3AccessKey, S3SecretKey, "")),
		config.WithBaseEndpoint(endpoint),
	)
	if err != nil {
		return "", "", fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", "", fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", "", fmt.Errorf("read object: %w", err)
	}
	return string(data), aws.ToString(out.ContentType), nil
}
