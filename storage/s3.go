package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures the S3-compatible store
type S3Options struct {
	Provider       Provider
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// S3Store implements the ObjectStore interface using AWS SDK v2
type S3Store struct {
	client *s3.Client
}

// Ensure S3Store implements ObjectStore
var _ ObjectStore = (*S3Store)(nil)

// awsObjectWrapper wraps s3.GetObjectOutput to implement ReadableStoredObject
type awsObjectWrapper struct {
	*s3.GetObjectOutput
	bucket string
	key    string
}

func (w *awsObjectWrapper) Read(p []byte) (n int, err error) {
	return w.Body.Read(p)
}

func (w *awsObjectWrapper) Close() error {
	return w.Body.Close()
}

func (w *awsObjectWrapper) Stat() (ObjectInfo, error) {
	info := ObjectInfo{
		Bucket:       w.bucket,
		Key:          w.key,
		ETag:         cleanETag(aws.ToString(w.ETag)),
		ContentType:  aws.ToString(w.ContentType),
		UserMetadata: w.Metadata,
	}
	if w.ContentLength != nil {
		info.Size = *w.ContentLength
	}
	if w.LastModified != nil {
		info.LastModified = *w.LastModified
	}
	return info, nil
}

// resolveEndpoint maps a provider to its endpoint URL and path-style default
func resolveEndpoint(opts S3Options) (string, bool) {
	switch opts.Provider {
	case ProviderWasabi:
		return fmt.Sprintf("https://s3.%s.wasabi.com", opts.Region), false
	case ProviderVultr:
		return fmt.Sprintf("https://%s.vultrobjects.com", opts.Region), false
	case ProviderCloudflareR2:
		return opts.Endpoint, false
	case ProviderAmazonS3:
		return "", false // SDK default endpoints
	default: // generic S3, local clusters, MinIO
		endpoint := opts.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:9000"
		}
		return endpoint, true
	}
}

// NewS3Store creates the S3 client for the configured provider
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint, pathStyleDefault := resolveEndpoint(opts)
	usePathStyle := opts.ForcePathStyle || pathStyleDefault

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = usePathStyle
	})

	return &S3Store{client: client}, nil
}

// EnsureBucket creates the bucket if it does not exist. Failures to create are
// returned so the caller can decide whether missing permissions are fatal.
func (s *S3Store) EnsureBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// ListBuckets lists the buckets visible to the account
func (s *S3Store) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	output, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	buckets := make([]BucketInfo, 0, len(output.Buckets))
	for _, b := range output.Buckets {
		info := BucketInfo{Name: aws.ToString(b.Name)}
		if b.CreationDate != nil {
			info.CreationDate = *b.CreationDate
		}
		buckets = append(buckets, info)
	}
	return buckets, nil
}

// ListObjects lists objects under a prefix, following continuation tokens
func (s *S3Store) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, err)
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{
				Bucket: bucket,
				Key:    aws.ToString(obj.Key),
				ETag:   cleanETag(aws.ToString(obj.ETag)),
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
	}
	return objects, nil
}

// GetObjectMetadata retrieves object metadata without the body
func (s *S3Store) GetObjectMetadata(ctx context.Context, bucket, objectName string) (ObjectInfo, error) {
	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return ObjectInfo{}, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, objectName)
		}
		return ObjectInfo{}, fmt.Errorf("failed to head object: %w", err)
	}

	info := ObjectInfo{
		Bucket:       bucket,
		Key:          objectName,
		ETag:         cleanETag(aws.ToString(output.ETag)),
		ContentType:  aws.ToString(output.ContentType),
		UserMetadata: output.Metadata,
	}
	if output.ContentLength != nil {
		info.Size = *output.ContentLength
	}
	if output.LastModified != nil {
		info.LastModified = *output.LastModified
	}
	return info, nil
}

// GetObject retrieves an object from S3
func (s *S3Store) GetObject(ctx context.Context, bucket, objectName string, opts GetObjectOptions) (ReadableStoredObject, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectName),
	}

	start, end, hasRange := opts.GetRange()
	if hasRange {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", start, end))
	}

	output, err := s.client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, objectName)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return &awsObjectWrapper{GetObjectOutput: output, bucket: bucket, key: objectName}, nil
}

// PutObject uploads an object to S3
func (s *S3Store) PutObject(ctx context.Context, bucket, objectName string, reader io.Reader, objectSize int64, opts PutObjectOptions) (UploadInfo, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectName),
		Body:          reader,
		ContentLength: aws.Int64(objectSize),
		Metadata:      opts.UserMetadata,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	output, err := s.client.PutObject(ctx, input)
	if err != nil {
		return UploadInfo{}, fmt.Errorf("failed to put object: %w", err)
	}

	return UploadInfo{
		Bucket: bucket,
		Key:    objectName,
		ETag:   cleanETag(aws.ToString(output.ETag)),
		Size:   objectSize,
	}, nil
}

// RemoveObject deletes an object from S3
func (s *S3Store) RemoveObject(ctx context.Context, bucket, objectName string, opts RemoveObjectOptions) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectName),
	}

	if opts.Force {
		input.BypassGovernanceRetention = aws.Bool(true)
	}

	_, err := s.client.DeleteObject(ctx, input)
	return err
}

// cleanETag strips the quotes S3 wraps around etag values. Sync backends that
// surface CIDs as etags do not quote them, so the trim is a no-op there.
func cleanETag(etag string) string {
	return strings.Trim(etag, `"`)
}
