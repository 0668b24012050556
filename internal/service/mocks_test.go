package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UploadImage(ctx context.Context, folder string, fileName string, file io.Reader, size int64) (string, error) {
	args := m.Called(ctx, folder, fileName, file, size)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) DeleteImage(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockStorage) OpenImage(ctx context.Context, objectName string) (io.ReadCloser, string, int64, error) {
	args := m.Called(ctx, objectName)
	if args.Get(0) == nil {
		return nil, "", 0, args.Error(3)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Get(2).(int64), args.Error(3)
}

type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GoogleIdentity), args.Error(1)
}
