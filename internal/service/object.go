package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"blobapi/internal/expiry"
	"blobapi/internal/model"
	"blobapi/internal/storage"
)

// DefaultExpirySeconds is substituted for an absent presign expiration
// before the value reaches the normalizer. The normalizer itself never
// applies defaults; it only classifies what it receives.
const DefaultExpirySeconds = 3600

var (
	ErrKeyRequired   = errors.New("key is required")
	ErrInvalidKey    = errors.New("invalid key")
	ErrReaderNil     = errors.New("reader is nil")
	ErrExpiryTooLong = errors.New("expiry exceeds maximum")
)

// UploadOptions carry optional upload parameters. Filename is used only to
// derive a key when the caller does not supply one.
type UploadOptions struct {
	Size        int64
	ContentType string
	Filename    string
}

// ObjectListResult is the service-level DTO for object listings.
type ObjectListResult struct {
	Items []model.Object `json:"data"`
	Total int            `json:"total"`
}

// ObjectService defines the use cases for the object storage wrapper. All
// operations are pass-through glue over the storage backend; the presign
// operations additionally resolve a heterogeneous expiration value into
// relative seconds through the expiry core.
type ObjectService interface {
	// Upload streams content to storage under key; when key is empty a
	// UUID-based key is derived from the filename extension.
	Upload(ctx context.Context, key string, r io.Reader, opt UploadOptions) (*model.Object, error)

	// Download returns the object content stream and its metadata.
	Download(ctx context.Context, key string) (io.ReadCloser, *model.Object, error)

	// Stat returns object metadata without content.
	Stat(ctx context.Context, key string) (*model.Object, error)

	// List returns objects under a prefix.
	List(ctx context.Context, prefix string, maxKeys int) (*ObjectListResult, error)

	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error

	// Copy duplicates an object server-side.
	Copy(ctx context.Context, srcKey, dstKey string) (*model.Object, error)

	// PresignDownload returns a time-limited download URL. expires may be a
	// number, a date string, or a time.Time; nil selects the one-hour
	// default. The normalized second count goes to the signer unchanged.
	PresignDownload(ctx context.Context, key string, expires any) (*model.PresignedURL, error)

	// PresignUpload returns a time-limited upload URL with the same
	// expiration semantics as PresignDownload.
	PresignUpload(ctx context.Context, key string, expires any) (*model.PresignedURL, error)
}

// objectService is a concrete implementation of ObjectService.
type objectService struct {
	store        storage.Storage
	expiry       *expiry.Resolver
	maxExpirySec int64
}

// NewObjectService constructs a new ObjectService backed by the given
// storage client and expiry resolver.
func NewObjectService(store storage.Storage, resolver *expiry.Resolver, maxExpirySec int64) ObjectService {
	return &objectService{store: store, expiry: resolver, maxExpirySec: maxExpirySec}
}

func (s *objectService) Upload(ctx context.Context, key string, r io.Reader, opt UploadOptions) (*model.Object, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	var err error
	if key == "" {
		key = "objects/" + uuid.New().String() + filepath.Ext(opt.Filename)
	}
	key, err = normalizeKey(key)
	if err != nil {
		return nil, err
	}

	putOpt := storage.PutObjectOptions{
		Size:        opt.Size,
		ContentType: opt.ContentType,
	}
	if opt.Filename != "" {
		putOpt.Metadata = map[string]string{"original-filename": opt.Filename}
	}

	info, err := s.store.Put(ctx, key, r, putOpt)
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	return toModel(info), nil
}

func (s *objectService) Download(ctx context.Context, key string) (io.ReadCloser, *model.Object, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, nil, err
	}
	rc, info, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return rc, toModel(info), nil
}

func (s *objectService) Stat(ctx context.Context, key string) (*model.Object, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	info, err := s.store.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	return toModel(info), nil
}

func (s *objectService) List(ctx context.Context, prefix string, maxKeys int) (*ObjectListResult, error) {
	if maxKeys <= 0 {
		maxKeys = 100
	}
	infos, err := s.store.List(ctx, storage.ListOptions{Prefix: prefix, MaxKeys: maxKeys})
	if err != nil {
		return nil, err
	}
	items := make([]model.Object, 0, len(infos))
	for _, info := range infos {
		items = append(items, *toModel(info))
	}
	return &ObjectListResult{Items: items, Total: len(items)}, nil
}

func (s *objectService) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, key)
}

func (s *objectService) Copy(ctx context.Context, srcKey, dstKey string) (*model.Object, error) {
	srcKey, err := normalizeKey(srcKey)
	if err != nil {
		return nil, err
	}
	dstKey, err = normalizeKey(dstKey)
	if err != nil {
		return nil, err
	}
	info, err := s.store.Copy(ctx, srcKey, dstKey)
	if err != nil {
		return nil, fmt.Errorf("copy object: %w", err)
	}
	return toModel(info), nil
}

func (s *objectService) PresignDownload(ctx context.Context, key string, expires any) (*model.PresignedURL, error) {
	return s.presign(ctx, key, expires, s.store.PresignGet)
}

func (s *objectService) PresignUpload(ctx context.Context, key string, expires any) (*model.PresignedURL, error) {
	return s.presign(ctx, key, expires, s.store.PresignPut)
}

type signFunc func(ctx context.Context, key string, expiry time.Duration) (string, error)

// presign resolves the expiration once and hands the resulting second count
// to the signer unchanged. A zero or negative normalized value is not an
// error here; the signer rejects it on its own terms.
func (s *objectService) presign(ctx context.Context, key string, expires any, sign signFunc) (*model.PresignedURL, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}

	if expires == nil {
		expires = DefaultExpirySeconds
	}
	secs, err := s.expiry.ExpiresIn(expires)
	if err != nil {
		return nil, err
	}
	if secs > s.maxExpirySec {
		return nil, fmt.Errorf("%w: %ds > %ds", ErrExpiryTooLong, secs, s.maxExpirySec)
	}

	u, err := sign(ctx, key, time.Duration(secs)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}
	return &model.PresignedURL{URL: u, ExpiresIn: secs}, nil
}

// normalizeKey cleans an object key into canonical slash form and rejects
// traversal outside the bucket root.
func normalizeKey(key string) (string, error) {
	if key == "" {
		return "", ErrKeyRequired
	}
	// Backslashes are normalized regardless of host OS; object keys are
	// always slash-separated.
	slashed := strings.ReplaceAll(key, `\`, "/")
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	key = strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}

func toModel(info storage.ObjectInfo) *model.Object {
	return &model.Object{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}
}
