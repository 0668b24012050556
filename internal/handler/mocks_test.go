package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"moviemeter/internal/models"
	"moviemeter/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) IssueTokenPair(ctx context.Context, user *models.User) (*service.TokenPair, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) VerifyAccess(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) GoogleSignIn(ctx context.Context, credential string) (*service.AuthResult, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Create(ctx context.Context, req service.CreateRatingInput) (*models.Rating, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockRatingService) List(ctx context.Context) ([]models.Rating, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Rating), args.Error(1)
}

func (m *MockRatingService) ListMine(ctx context.Context, ownerID string) ([]models.Rating, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Rating), args.Error(1)
}

func (m *MockRatingService) GetByID(ctx context.Context, ratingID string) (*models.Rating, error) {
	args := m.Called(ctx, ratingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockRatingService) Update(ctx context.Context, req service.UpdateRatingInput) (*models.Rating, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockRatingService) Delete(ctx context.Context, callerID, ratingID string) error {
	args := m.Called(ctx, callerID, ratingID)
	return args.Error(0)
}

func (m *MockRatingService) AddComment(ctx context.Context, ratingID, userID, text string) (*models.Rating, error) {
	args := m.Called(ctx, ratingID, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockRatingService) AddPeerRating(ctx context.Context, ratingID, userID string, score float64) (*service.AverageResult, error) {
	args := m.Called(ctx, ratingID, userID, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AverageResult), args.Error(1)
}

func (m *MockRatingService) GetPeerRatingForUser(ctx context.Context, ratingID, userID string) (*service.PeerRating, error) {
	args := m.Called(ctx, ratingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PeerRating), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, req service.UpdateUserInput) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockTablesService struct {
	mock.Mock
}

func (m *MockTablesService) GetCountTablesBD(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

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
