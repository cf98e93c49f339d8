package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound reports that no object exists under the requested key.
// Implementations translate their backend's not-found condition into it so
// callers never inspect backend error codes.
var ErrNotFound = errors.New("object not found")

// Package storage contains file/object storage abstractions and utilities for object stores (S3-compatible).
// Implementations must avoid using local disk and rely on streaming I/O only.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// ListOptions control a prefix listing. MaxKeys <= 0 means backend default.
type ListOptions struct {
	Prefix  string
	MaxKeys int
}

// Storage is a reusable, S3-compatible object storage client interface.
// Methods use context and streaming readers/writers; no local disk is used.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object info without fetching content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// List returns objects under a prefix.
	List(ctx context.Context, opt ListOptions) ([]ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// Copy duplicates an object server-side from srcKey to dstKey.
	Copy(ctx context.Context, srcKey, dstKey string) (ObjectInfo, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// PresignPut returns a time-limited URL that can be used to upload the object without credentials.
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
}
