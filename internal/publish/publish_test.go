package publish

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/inquiry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	inputs   []*s3.PutObjectInput
	bodies   []string
	err      error
	location string
}

func (f *fakeUploader) Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.inputs = append(f.inputs, in)
	body, _ := io.ReadAll(in.Body)
	f.bodies = append(f.bodies, string(body))
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{Location: f.location}, nil
}

type fakeBuckets struct {
	headErr   error
	createErr error
	created   int
}

func (f *fakeBuckets) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeBuckets) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created++
	return &s3.CreateBucketOutput{}, f.createErr
}

type staticScripts struct{}

func (staticScripts) HostedScript(form *inquiry.Form) (string, error) {
	return "/* " + form.ID + " */\n", nil
}

func testConfig() inquiry.PublishConfig {
	return inquiry.PublishConfig{
		Enabled:          true,
		Bucket:           "widgets",
		Prefix:           "forms/",
		Region:           "eu-west-1",
		Timeout:          time.Second,
		BreakerThreshold: 2,
		BreakerWindow:    time.Minute,
		BreakerCooldown:  time.Hour,
	}
}

func TestPublishUploadsScript(t *testing.T) {
	up := &fakeUploader{}
	p := newPublisher(testConfig(), up, &fakeBuckets{}, staticScripts{})

	url, err := p.Publish(context.Background(), &inquiry.Form{ID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "https://widgets.s3.eu-west-1.amazonaws.com/forms/inquiry-form-abc.js", url)

	require.Len(t, up.inputs, 1)
	in := up.inputs[0]
	assert.Equal(t, "widgets", aws.ToString(in.Bucket))
	assert.Equal(t, "forms/inquiry-form-abc.js", aws.ToString(in.Key))
	assert.Equal(t, ContentType, aws.ToString(in.ContentType))
	assert.Equal(t, "/* abc */\n", up.bodies[0])
}

func TestPublishPrefersUploaderLocation(t *testing.T) {
	up := &fakeUploader{location: "https://cdn.example.com/forms/inquiry-form-abc.js"}
	p := newPublisher(testConfig(), up, &fakeBuckets{}, staticScripts{})

	url, err := p.Publish(context.Background(), &inquiry.Form{ID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, up.location, url)
}

func TestObjectURL(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoint = "http://localhost:9000/"
	p := newPublisher(cfg, &fakeUploader{}, &fakeBuckets{}, staticScripts{})
	assert.Equal(t, "http://localhost:9000/widgets/forms/inquiry-form-a.js", p.ObjectURL("forms/inquiry-form-a.js"))

	cfg = testConfig()
	cfg.UsePathStyle = true
	p = newPublisher(cfg, &fakeUploader{}, &fakeBuckets{}, staticScripts{})
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com/widgets/k%20y.js", p.ObjectURL("k y.js"))
}

func TestPublishFailureCarriesAWSCode(t *testing.T) {
	up := &fakeUploader{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}
	p := newPublisher(testConfig(), up, &fakeBuckets{}, staticScripts{})

	_, err := p.Publish(context.Background(), &inquiry.Form{ID: "abc"})
	var ie *inquiry.InquiryError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, inquiry.ErrorTypeTransport, ie.Type)
	assert.Equal(t, inquiry.ErrCodeUploadFailed, ie.Code)
	assert.Equal(t, "AccessDenied", ie.Details["awsCode"])
}

func TestPublishOpensBreaker(t *testing.T) {
	up := &fakeUploader{err: errors.New("connection refused")}
	p := newPublisher(testConfig(), up, &fakeBuckets{}, staticScripts{})
	form := &inquiry.Form{ID: "abc"}

	for i := 0; i < 2; i++ {
		_, err := p.Publish(context.Background(), form)
		assert.Equal(t, inquiry.ErrCodeUploadFailed, inquiry.ErrorCode(err))
	}

	_, err := p.Publish(context.Background(), form)
	assert.Equal(t, inquiry.ErrCodeCircuitOpen, inquiry.ErrorCode(err))
	assert.Len(t, up.inputs, 2)
}

func TestPublishSuccessResetsFailures(t *testing.T) {
	up := &fakeUploader{err: errors.New("timeout")}
	p := newPublisher(testConfig(), up, &fakeBuckets{}, staticScripts{})
	form := &inquiry.Form{ID: "abc"}

	_, err := p.Publish(context.Background(), form)
	require.Error(t, err)
	up.err = nil
	_, err = p.Publish(context.Background(), form)
	require.NoError(t, err)
	up.err = errors.New("timeout")
	_, err = p.Publish(context.Background(), form)
	assert.Equal(t, inquiry.ErrCodeUploadFailed, inquiry.ErrorCode(err))
}

type brokenScripts struct{}

func (brokenScripts) HostedScript(form *inquiry.Form) (string, error) {
	return "", errors.New("render failed")
}

func TestPublishRenderFailureLeavesBreakerAlone(t *testing.T) {
	up := &fakeUploader{}
	p := newPublisher(testConfig(), up, &fakeBuckets{}, brokenScripts{})

	for i := 0; i < 3; i++ {
		_, err := p.Publish(context.Background(), &inquiry.Form{ID: "abc"})
		require.Error(t, err)
		assert.NotEqual(t, inquiry.ErrCodeCircuitOpen, inquiry.ErrorCode(err))
	}
	assert.Empty(t, up.inputs)
	assert.Zero(t, p.breaker.Failures())
}

func TestEnsureBucket(t *testing.T) {
	b := &fakeBuckets{}
	p := newPublisher(testConfig(), &fakeUploader{}, b, staticScripts{})
	require.NoError(t, p.EnsureBucket(context.Background()))
	assert.Zero(t, b.created)

	b.headErr = errors.New("not found")
	require.NoError(t, p.EnsureBucket(context.Background()))
	assert.Equal(t, 1, b.created)

	b.createErr = &smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou"}
	assert.NoError(t, p.EnsureBucket(context.Background()))

	b.createErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	assert.Equal(t, inquiry.ErrCodeUploadFailed, inquiry.ErrorCode(p.EnsureBucket(context.Background())))
}

func TestNewS3PublisherRequiresBucket(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), inquiry.PublishConfig{}, staticScripts{})
	assert.Error(t, err)
}
