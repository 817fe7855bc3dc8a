package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// MinioConfig addresses an S3 compatible bucket.
type MinioConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Validate checks that the bucket can be addressed.
func (c MinioConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("storage endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("storage endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("storage bucket is required")
	}
	return nil
}

// objectGetter is the subset of *minio.Client used by MinioReader.
type objectGetter interface {
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// MinioReader reads definitions from an S3 compatible bucket.
type MinioReader struct {
	client objectGetter
	bucket string
}

// NewMinioReader creates a reader for cfg. Without static keys the client
// falls back to the environment and instance-role credential chain.
func NewMinioReader(cfg MinioConfig) (*MinioReader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var creds *credentials.Credentials
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.IAM{Client: &http.Client{Transport: newTransport()}},
		})
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     creds,
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &MinioReader{client: client, bucket: cfg.Bucket}, nil
}

// NewMinioReaderWithClient wraps an existing client.
func NewMinioReaderWithClient(client *minio.Client, bucket string) (*MinioReader, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	return &MinioReader{client: client, bucket: bucket}, nil
}

// Read implements Reader. The object is drained completely before returning.
func (r *MinioReader) Read(ctx context.Context, key string) (DefinitionBlob, error) {
	location := "bucket " + r.bucket
	logging.Debug("Source", "Reading definition %s from %s", key, location)

	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return DefinitionBlob{}, &SourceUnavailableError{Location: location, Key: key, Err: err}
	}
	defer obj.Close()

	// GetObject is lazy; errors such as NoSuchKey surface on the first read.
	content, err := io.ReadAll(obj)
	if err != nil {
		return DefinitionBlob{}, &SourceUnavailableError{Location: location, Key: key, Err: describeMinioError(err)}
	}

	return DefinitionBlob{Key: key, RawContent: content}, nil
}

func describeMinioError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return err
	}
	return fmt.Errorf("%s: %w", resp.Code, err)
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
