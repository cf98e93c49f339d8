package mocks

import (
	"context"
	"io"

	"blobapi/internal/model"
	"blobapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockObjectService struct {
	mock.Mock
}

func (m *MockObjectService) Upload(ctx context.Context, key string, r io.Reader, opt service.UploadOptions) (*model.Object, error) {
	args := m.Called(ctx, key, r, opt)
	obj, _ := args.Get(0).(*model.Object)
	return obj, args.Error(1)
}

func (m *MockObjectService) Download(ctx context.Context, key string) (io.ReadCloser, *model.Object, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	obj, _ := args.Get(1).(*model.Object)
	return rc, obj, args.Error(2)
}

func (m *MockObjectService) Stat(ctx context.Context, key string) (*model.Object, error) {
	args := m.Called(ctx, key)
	obj, _ := args.Get(0).(*model.Object)
	return obj, args.Error(1)
}

func (m *MockObjectService) List(ctx context.Context, prefix string, maxKeys int) (*service.ObjectListResult, error) {
	args := m.Called(ctx, prefix, maxKeys)
	res, _ := args.Get(0).(*service.ObjectListResult)
	return res, args.Error(1)
}

func (m *MockObjectService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectService) Copy(ctx context.Context, srcKey, dstKey string) (*model.Object, error) {
	args := m.Called(ctx, srcKey, dstKey)
	obj, _ := args.Get(0).(*model.Object)
	return obj, args.Error(1)
}

func (m *MockObjectService) PresignDownload(ctx context.Context, key string, expires any) (*model.PresignedURL, error) {
	args := m.Called(ctx, key, expires)
	res, _ := args.Get(0).(*model.PresignedURL)
	return res, args.Error(1)
}

func (m *MockObjectService) PresignUpload(ctx context.Context, key string, expires any) (*model.PresignedURL, error) {
	args := m.Called(ctx, key, expires)
	res, _ := args.Get(0).(*model.PresignedURL)
	return res, args.Error(1)
}
