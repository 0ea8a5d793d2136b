package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures the MinIO-backed store. Endpoint accepts either a
// bare host:port or a URL; a https scheme turns TLS on.
type MinioOptions struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// MinioStore implements ObjectStore against a self-hosted MinIO server. It
// exists alongside S3Store for deployments that run their own cluster and
// want the native client rather than the AWS SDK.
type MinioStore struct {
	client *minio.Client
}

var _ ObjectStore = (*MinioStore)(nil)

// minioObjectWrapper adapts a fetched object to ReadableStoredObject. The
// stat is captured eagerly so missing keys fail at GetObject time, matching
// the S3 backend.
type minioObjectWrapper struct {
	*minio.Object
	info ObjectInfo
}

func (w *minioObjectWrapper) Stat() (ObjectInfo, error) {
	return w.info, nil
}

// splitEndpoint strips the scheme off an endpoint URL and reports whether it
// requested TLS
func splitEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	return parsed.Host, parsed.Scheme == "https", nil
}

// NewMinioStore creates the MinIO client
func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	host, useSSL, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: useSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioStore{client: client}, nil
}

// EnsureBucket creates the bucket if it does not exist
func (m *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// ListBuckets lists the buckets visible to the account
func (m *MinioStore) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	raw, err := m.client.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	buckets := make([]BucketInfo, 0, len(raw))
	for _, b := range raw {
		buckets = append(buckets, BucketInfo{
			Name:         b.Name,
			CreationDate: b.CreationDate,
		})
	}
	return buckets, nil
}

// ListObjects lists objects under a prefix
func (m *MinioStore) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Bucket:       bucket,
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         cleanETag(obj.ETag),
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}

// GetObjectMetadata retrieves object metadata without the body
func (m *MinioStore) GetObjectMetadata(ctx context.Context, bucket, objectName string) (ObjectInfo, error) {
	stat, err := m.client.StatObject(ctx, bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return ObjectInfo{}, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, objectName)
		}
		return ObjectInfo{}, fmt.Errorf("failed to stat object: %w", err)
	}
	return minioObjectInfo(bucket, stat), nil
}

// GetObject retrieves an object. Missing keys surface here rather than on
// first read.
func (m *MinioStore) GetObject(ctx context.Context, bucket, objectName string, opts GetObjectOptions) (ReadableStoredObject, error) {
	getOpts := minio.GetObjectOptions{}
	if start, end, hasRange := opts.GetRange(); hasRange {
		if err := getOpts.SetRange(start, end); err != nil {
			return nil, fmt.Errorf("invalid object range: %w", err)
		}
	}

	obj, err := m.client.GetObject(ctx, bucket, objectName, getOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// The client defers the request until first read, so stat now to learn
	// whether the key exists at all.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, objectName)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return &minioObjectWrapper{Object: obj, info: minioObjectInfo(bucket, stat)}, nil
}

// PutObject uploads an object
func (m *MinioStore) PutObject(ctx context.Context, bucket, objectName string, reader io.Reader, objectSize int64, opts PutObjectOptions) (UploadInfo, error) {
	info, err := m.client.PutObject(ctx, bucket, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.UserMetadata,
	})
	if err != nil {
		return UploadInfo{}, fmt.Errorf("failed to put object: %w", err)
	}

	return UploadInfo{
		Bucket: bucket,
		Key:    objectName,
		ETag:   cleanETag(info.ETag),
		Size:   info.Size,
	}, nil
}

// RemoveObject deletes an object
func (m *MinioStore) RemoveObject(ctx context.Context, bucket, objectName string, opts RemoveObjectOptions) error {
	return m.client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{
		GovernanceBypass: opts.Force,
	})
}

func minioObjectInfo(bucket string, stat minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Bucket:       bucket,
		Key:          stat.Key,
		Size:         stat.Size,
		ETag:         cleanETag(stat.ETag),
		LastModified: stat.LastModified,
		ContentType:  stat.ContentType,
		UserMetadata: stat.UserMetadata,
	}
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound ||
		resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
