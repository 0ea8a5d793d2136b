package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound indicates the requested key does not exist in the bucket
var ErrObjectNotFound = errors.New("object not found")

// ReadableStoredObject defines the minimal interface needed to read, close,
// and stat a stored object. Used as the return type for GetObject to allow
// easier mocking.
type ReadableStoredObject interface {
	io.ReadCloser
	Stat() (ObjectInfo, error)
}

// ObjectStore defines the interface for object storage operations. Buckets
// are passed per call: share tokens reference objects across every bucket the
// account can see, not a single application bucket.
type ObjectStore interface {
	ListBuckets(ctx context.Context) ([]BucketInfo, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	GetObjectMetadata(ctx context.Context, bucket, objectName string) (ObjectInfo, error)
	GetObject(ctx context.Context, bucket, objectName string, opts GetObjectOptions) (ReadableStoredObject, error)
	PutObject(ctx context.Context, bucket, objectName string, reader io.Reader, objectSize int64, opts PutObjectOptions) (UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, objectName string, opts RemoveObjectOptions) error
}
