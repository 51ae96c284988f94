package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures a MinioStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base clients use to fetch objects, for example a CDN
	// host. Defaults to the endpoint.
	PublicURL string
	MaxWidth  int
}

// MinioStore keeps assets in an S3-compatible bucket under the images/ and
// videos/ prefixes.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	maxWidth  int
	now       func() time.Time
}

// NewMinioStore connects to the endpoint and creates the bucket if needed.
func NewMinioStore(ctx context.Context, opts MinioOptions) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("assets: init minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("assets: reach minio: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("assets: create bucket %s: %w", opts.Bucket, err)
		}
		slog.Info("assets: created bucket", "bucket", opts.Bucket)
	}

	public := strings.TrimRight(opts.PublicURL, "/")
	if public == "" {
		public = strings.TrimRight(client.EndpointURL().String(), "/")
	}
	return &MinioStore{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: public,
		maxWidth:  opts.MaxWidth,
		now:       time.Now,
	}, nil
}

func (s *MinioStore) key(kind Kind, name string) string {
	return path.Join(kind.dir(), name)
}

func (s *MinioStore) url(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}

// Upload puts r into the bucket under a new unique name.
func (s *MinioStore) Upload(ctx context.Context, kind Kind, originalName string, r io.Reader, size int64) (Asset, error) {
	now := s.now()
	p, err := prepare(kind, originalName, r, size, s.maxWidth, now)
	if err != nil {
		return Asset{}, err
	}
	key := s.key(kind, p.name)
	info, err := s.client.PutObject(ctx, s.bucket, key, p.body, p.size, minio.PutObjectOptions{
		ContentType: p.contentType,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("assets: upload %s: %w", key, err)
	}
	return Asset{Name: p.name, Kind: kind, URL: s.url(key), Size: info.Size, ModTime: now}, nil
}

// List returns assets of kind, newest first.
func (s *MinioStore) List(ctx context.Context, kind Kind) ([]Asset, error) {
	// Cancelling stops the lister goroutine when we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []Asset
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    kind.dir() + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("assets: list %s: %w", kind.dir(), obj.Err)
		}
		name := path.Base(obj.Key)
		if !ValidName(name) {
			continue
		}
		out = append(out, Asset{
			Name:    name,
			Kind:    kind,
			URL:     s.url(obj.Key),
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes the named object.
func (s *MinioStore) Delete(ctx context.Context, kind Kind, name string) error {
	if !ValidName(name) {
		return ErrBadName
	}
	key := s.key(kind, name)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("assets: stat %s: %w", key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("assets: delete %s: %w", key, err)
	}
	return nil
}
