package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/retry"
)

// maxManifestSize bounds how much of a manifest body is read.
const maxManifestSize = 16 << 20

// Source fetches the raw bytes of one manifest.
type Source interface {
	// Fetch returns the manifest body and the format hinted by its name.
	Fetch(ctx context.Context) ([]byte, Format, error)

	// Type returns the source type identifier ("file", "s3", "http").
	Type() string

	// Location describes where the manifest lives, for logs.
	Location() string
}

// Load fetches and decodes a manifest, recording load metrics.
func Load(ctx context.Context, src Source) (*Manifest, error) {
	start := time.Now()
	data, format, err := src.Fetch(ctx)
	if err == nil {
		var m *Manifest
		m, err = Decode(data, format)
		if err == nil {
			metrics.RecordManifestLoad(src.Type(), time.Since(start), true)
			logging.Debug("manifest loaded",
				zap.String("source", src.Type()),
				zap.String("location", src.Location()),
				zap.Int("files", len(m.Files)))
			return m, nil
		}
	}
	metrics.RecordManifestLoad(src.Type(), time.Since(start), false)
	return nil, fmt.Errorf("load %s manifest %s: %w", src.Type(), src.Location(), err)
}

// FileSource reads a manifest from the local filesystem.
type FileSource struct {
	Path string
}

// Fetch reads the file.
func (s FileSource) Fetch(_ context.Context) ([]byte, Format, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, FormatAuto, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, FormatAuto, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return data, FormatFor(s.Path), nil
}

func (s FileSource) Type() string     { return "file" }
func (s FileSource) Location() string { return s.Path }

// S3Config locates a manifest object in S3 or an S3-compatible store.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// S3Source reads a manifest object from a bucket.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Source builds an S3 client. An empty endpoint uses AWS itself;
// otherwise path-style addressing is used, as MinIO expects.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("s3 source needs bucket and key")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// Fetch downloads the object.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, Format, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, FormatAuto, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, s.key)
		}
		return nil, FormatAuto, fmt.Errorf("get object %s: %w", s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxManifestSize))
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("read object %s: %w", s.key, err)
	}
	return data, FormatFor(s.key), nil
}

func (s *S3Source) Type() string     { return "s3" }
func (s *S3Source) Location() string { return "s3://" + s.bucket + "/" + s.key }

// HTTPSource fetches a manifest over HTTP(S), retrying transient failures.
type HTTPSource struct {
	URL    string
	Client *http.Client
	Retry  retry.Config
}

// NewHTTPSource returns a source with a bounded client timeout.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Retry:  retry.DefaultConfig(),
	}
}

// Fetch issues GET requests until one succeeds or a permanent error occurs.
// Server errors and network failures are retried; 404 is ErrNotFound.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, Format, error) {
	cfg := s.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
			logging.Warn("manifest fetch failed, retrying",
				zap.String("url", s.URL),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		}
	}
	data, err := retry.DoWithResult(ctx, cfg, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json, application/yaml")

		resp, err := s.Client.Do(req)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.URL)
		case retry.TemporaryStatus(resp.StatusCode):
			after := retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
			return nil, retry.RetryAfter(fmt.Errorf("GET %s: %s", s.URL, resp.Status), after)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("GET %s: %s", s.URL, resp.Status)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	})
	if err != nil {
		return nil, FormatAuto, err
	}
	return data, FormatFor(s.URL), nil
}

func (s *HTTPSource) Type() string     { return "http" }
func (s *HTTPSource) Location() string { return s.URL }
