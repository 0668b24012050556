package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"moviemeter/internal/models"
	"moviemeter/internal/repository"
	"moviemeter/internal/storage"
)

const profileImageFolder = "users"

// UpdateUserInput changes only the fields that are set. Passwords are never
// accepted here.
type UpdateUserInput struct {
	CallerID string
	UserID   string
	Username *string
	Email    *string
	Picture  *ImageUpload
}

type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, req UpdateUserInput) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	storage  storage.Storage
}

func NewUserService(userRepo repository.UserRepository, storage storage.Storage) UserService {
	return &userService{
		userRepo: userRepo,
		storage:  storage,
	}
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAllUsers(ctx)
}

func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, req UpdateUserInput) (*models.User, error) {
	if req.CallerID != req.UserID {
		return nil, ErrNotOwner
	}

	user, err := s.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, validationError("username cannot be empty")
		}
		user.Username = username
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, validationError("email cannot be empty")
		}
		user.Email = email
	}

	oldPicture := ""
	if req.Picture != nil {
		objectName, err := s.storage.UploadImage(ctx, profileImageFolder, req.Picture.FileName, req.Picture.Reader, req.Picture.Size)
		if err != nil {
			return nil, fmt.Errorf("error uploading profile picture: %w", err)
		}
		oldPicture = user.ProfilePic
		user.ProfilePic = objectName
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		if req.Picture != nil {
			removeImage(ctx, s.storage, user.ProfilePic)
		}
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("user %s: %w", req.UserID, ErrNotFound)
		}
		return nil, err
	}

	removeImage(ctx, s.storage, oldPicture)
	return user, nil
}
