package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrNotConfigured = errors.New("s3: gallery storage is not configured")

// Photo is one gallery image with the URL browsers load it from.
type Photo struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"lastModified,omitempty"`
}

// Gallery lists and stores the house photos.
type Gallery interface {
	List(ctx context.Context) ([]Photo, error)
	Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (Photo, error)
}

type Options struct {
	Endpoint      string
	UseSSL        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	PublicBaseURL string
	Prefix        string
}

// Client keeps photos in an S3-compatible bucket under Prefix.
type Client struct {
	bucket         string
	prefix         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	cleanEndpoint := strings.TrimSpace(opts.Endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(opts.PublicBaseURL)
	if base == "" {
		base = cleanEndpoint
	}
	prefix := strings.Trim(strings.TrimSpace(opts.Prefix), "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Client{
		bucket:        bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// List returns the images under the gallery prefix sorted by key.
func (c *Client) List(ctx context.Context) ([]Photo, error) {
	var photos []Photo
	for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: c.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("s3: list objects: %w", obj.Err)
		}
		if !isImage(obj.Key) {
			continue
		}
		photos = append(photos, Photo{
			Key:          obj.Key,
			URL:          c.objectURL(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].Key < photos[j].Key })
	return photos, nil
}

// Upload stores a photo under the gallery prefix. An empty contentType is derived from the name.
func (c *Client) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (Photo, error) {
	if reader == nil {
		return Photo{}, errors.New("s3: reader is required")
	}
	name = strings.Trim(strings.TrimSpace(path.Base(name)), "/")
	if name == "" || name == "." {
		return Photo{}, errors.New("s3: object name is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return Photo{}, err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := c.prefix + name
	info, err := c.client.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Photo{}, fmt.Errorf("s3: put object: %w", err)
	}
	photo := Photo{Key: key, URL: c.objectURL(key), Size: info.Size}
	if c.logger != nil {
		c.logger.Info("gallery photo uploaded", "bucket", c.bucket, "key", key, "url", photo.URL)
	}
	return photo, nil
}

// StaticGallery serves a fixed list of URLs when no bucket is configured.
type StaticGallery struct {
	URLs []string
}

func (g StaticGallery) List(context.Context) ([]Photo, error) {
	photos := make([]Photo, 0, len(g.URLs))
	for _, u := range g.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		photos = append(photos, Photo{Key: path.Base(u), URL: u})
	}
	return photos, nil
}

func (StaticGallery) Upload(context.Context, string, io.Reader, int64, string) (Photo, error) {
	return Photo{}, ErrNotConfigured
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if err := c.allowPublicRead(ctx); err != nil {
			c.bucketInitErr = err
		}
	})
	return c.bucketInitErr
}

func (c *Client) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/%s*"]}]}`, c.bucket, c.prefix)
	if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return fmt.Errorf("s3: set bucket policy: %w", err)
	}
	return nil
}

func (c *Client) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, strings.TrimLeft(key, "/"))
}

func isImage(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif":
		return true
	}
	return false
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var (
	_ Gallery = (*Client)(nil)
	_ Gallery = StaticGallery{}
)
