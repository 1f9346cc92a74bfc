package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

// ObjectPutter is the part of *minio.Client the store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base that object URLs are built on. Defaults to the endpoint.
	PublicURL string
}

// BreakerSettings controls when uploads stop being attempted.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

// MinioStore uploads product images to a bucket behind a circuit breaker.
type MinioStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	breaker *gobreaker.CircuitBreaker[minio.UploadInfo]
	logger  *log.Entry
}

// NewMinio connects to MinIO, creates the bucket when missing and returns a store.
func NewMinio(ctx context.Context, opts Options, logger *log.Entry) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	base := opts.PublicURL
	if base == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + opts.Endpoint
	}
	return NewMinioStore(client, opts.Bucket, base, DefaultBreakerSettings(), logger), nil
}

func NewMinioStore(client ObjectPutter, bucket, baseURL string, bs BreakerSettings, logger *log.Entry) *MinioStore {
	if logger == nil {
		logger = log.WithField("component", "media")
	}
	s := &MinioStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
	s.breaker = gobreaker.NewCircuitBreaker[minio.UploadInfo](gobreaker.Settings{
		Name:        "minio-upload",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return s
}

// Upload stores body under key and returns its public URL. Storage failures and
// an open breaker are reported as domain.ErrUploadsUnavailable.
func (s *MinioStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if size <= 0 {
		size = -1
	}
	_, err := s.breaker.Execute(func() (minio.UploadInfo, error) {
		return s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit open", domain.ErrUploadsUnavailable)
		}
		s.logger.WithError(err).WithField("key", key).Error("image upload failed")
		return "", fmt.Errorf("%w: %v", domain.ErrUploadsUnavailable, err)
	}
	return s.objectURL(key), nil
}

func (s *MinioStore) objectURL(key string) string {
	return s.baseURL + "/" + url.PathEscape(s.bucket) + "/" + key
}
