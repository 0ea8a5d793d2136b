package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a mock implementation of ObjectStore using testify/mock
type MockObjectStore struct {
	mock.Mock
}

// Ensure MockObjectStore implements ObjectStore
var _ ObjectStore = (*MockObjectStore)(nil)

// ListBuckets mocks the ListBuckets method
func (m *MockObjectStore) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	args := m.Called(ctx)
	buckets, _ := args.Get(0).([]BucketInfo)
	return buckets, args.Error(1)
}

// ListObjects mocks the ListObjects method
func (m *MockObjectStore) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	args := m.Called(ctx, bucket, prefix)
	objects, _ := args.Get(0).([]ObjectInfo)
	return objects, args.Error(1)
}

// GetObjectMetadata mocks the GetObjectMetadata method
func (m *MockObjectStore) GetObjectMetadata(ctx context.Context, bucket, objectName string) (ObjectInfo, error) {
	args := m.Called(ctx, bucket, objectName)
	info, _ := args.Get(0).(ObjectInfo)
	return info, args.Error(1)
}

// GetObject mocks the GetObject method
func (m *MockObjectStore) GetObject(ctx context.Context, bucket, objectName string, opts GetObjectOptions) (ReadableStoredObject, error) {
	args := m.Called(ctx, bucket, objectName, opts)
	obj, _ := args.Get(0).(*MockStoredObject)
	if obj == nil {
		// Tests returning an error supply no object; keep the interface nil.
		return nil, args.Error(1)
	}
	return obj, args.Error(1)
}

// PutObject mocks the PutObject method
func (m *MockObjectStore) PutObject(ctx context.Context, bucket, objectName string, reader io.Reader, objectSize int64, opts PutObjectOptions) (UploadInfo, error) {
	args := m.Called(ctx, bucket, objectName, reader, objectSize, opts)
	info, _ := args.Get(0).(UploadInfo)
	return info, args.Error(1)
}

// RemoveObject mocks the RemoveObject method
func (m *MockObjectStore) RemoveObject(ctx context.Context, bucket, objectName string, opts RemoveObjectOptions) error {
	args := m.Called(ctx, bucket, objectName, opts)
	return args.Error(0)
}

// --- Mock stored object ---

// MockStoredObject mocks the readable object returned by GetObject
type MockStoredObject struct {
	mock.Mock
	Content *bytes.Reader // Use bytes.Reader to simulate readable content
	Info    ObjectInfo    // Store ObjectInfo directly
	StatErr error         // Optional error for Stat
}

// Ensure MockStoredObject satisfies the interface
var _ ReadableStoredObject = (*MockStoredObject)(nil)

// Read reads from the internal content buffer when set, otherwise falls back
// to testify expectations so read errors can be simulated.
func (m *MockStoredObject) Read(p []byte) (n int, err error) {
	if m.Content != nil {
		return m.Content.Read(p)
	}
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

// Close mocks the Close method
func (m *MockStoredObject) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Stat returns the stored info and error directly
func (m *MockStoredObject) Stat() (ObjectInfo, error) {
	return m.Info, m.StatErr
}

// SetStatInfo sets the ObjectInfo and error to be returned by Stat()
func (m *MockStoredObject) SetStatInfo(info ObjectInfo, err error) {
	m.Info = info
	m.StatErr = err
}

// SetContent sets readable content for the object
func (m *MockStoredObject) SetContent(content []byte) {
	m.Content = bytes.NewReader(content)
}
