package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"moviemeter/internal/config"
	"moviemeter/internal/logging"
	"moviemeter/internal/metrics"
	"moviemeter/internal/models"
	"moviemeter/internal/repository"
	"moviemeter/internal/storage"
)

const (
	MinScore = 1
	MaxScore = 5

	ratingImageFolder = "ratings"
)

// ImageUpload is an image file received with a request.
type ImageUpload struct {
	FileName string
	Reader   io.Reader
	Size     int64
}

type CreateRatingInput struct {
	OwnerID string
	Title   string
	Rating  float64
	Image   *ImageUpload
}

// UpdateRatingInput changes only the fields that are set.
type UpdateRatingInput struct {
	CallerID string
	RatingID string
	Title    *string
	Rating   *float64
	Image    *ImageUpload
}

type PeerRating struct {
	Rating float64 `json:"rating"`
}

type AverageResult struct {
	AverageRating float64 `json:"averageRating"`
}

type RatingService interface {
	Create(ctx context.Context, req CreateRatingInput) (*models.Rating, error)
	List(ctx context.Context) ([]models.Rating, error)
	ListMine(ctx context.Context, ownerID string) ([]models.Rating, error)
	GetByID(ctx context.Context, ratingID string) (*models.Rating, error)
	Update(ctx context.Context, req UpdateRatingInput) (*models.Rating, error)
	Delete(ctx context.Context, callerID, ratingID string) error
	AddComment(ctx context.Context, ratingID, userID, text string) (*models.Rating, error)
	AddPeerRating(ctx context.Context, ratingID, userID string, score float64) (*AverageResult, error)
	GetPeerRatingForUser(ctx context.Context, ratingID, userID string) (*PeerRating, error)
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	userRepo   repository.UserRepository
	storage    storage.Storage
	sanitizer  *bluemonday.Policy
}

func NewRatingService(ratingRepo repository.RatingRepository, userRepo repository.UserRepository, storage storage.Storage) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		userRepo:   userRepo,
		storage:    storage,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// dbNow matches the microsecond precision of TIMESTAMPTZ columns.
func dbNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func validScore(score float64) bool {
	return score >= MinScore && score <= MaxScore
}

func (s *ratingService) Create(ctx context.Context, req CreateRatingInput) (*models.Rating, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if !validScore(req.Rating) {
		return nil, validationError("rating must be between %d and %d", MinScore, MaxScore)
	}
	if req.Image == nil {
		return nil, validationError("movie_image is required")
	}

	objectName, err := s.storage.UploadImage(ctx, ratingImageFolder, req.Image.FileName, req.Image.Reader, req.Image.Size)
	if err != nil {
		return nil, fmt.Errorf("error uploading movie image: %w", err)
	}

	rating := &models.Rating{
		RatingID:      uuid.New().String(),
		Title:         title,
		OwnerID:       req.OwnerID,
		Rating:        req.Rating,
		MovieImage:    objectName,
		CreatedAt:     dbNow(),
		UserRatings:   models.UserRatings{},
		Comments:      models.Comments{},
		AverageRating: AverageRating(req.Rating, nil),
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		s.deleteImage(ctx, objectName)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", req.OwnerID, ErrNotFound)
		}
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("ratingId", rating.RatingID).Str("owner", rating.OwnerID).Msg("rating created")
	return rating, nil
}

func (s *ratingService) List(ctx context.Context) ([]models.Rating, error) {
	return s.ratingRepo.GetAll(ctx)
}

func (s *ratingService) ListMine(ctx context.Context, ownerID string) ([]models.Rating, error) {
	return s.ratingRepo.GetByOwnerID(ctx, ownerID)
}

func (s *ratingService) GetByID(ctx context.Context, ratingID string) (*models.Rating, error) {
	rating, err := s.ratingRepo.GetByID(ctx, ratingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("rating %s: %w", ratingID, ErrNotFound)
		}
		return nil, err
	}
	return rating, nil
}

// getOwned loads a rating the caller owns.
func (s *ratingService) getOwned(ctx context.Context, callerID, ratingID string) (*models.Rating, error) {
	rating, err := s.GetByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if rating.OwnerID != callerID {
		return nil, ErrNotOwner
	}
	return rating, nil
}

func (s *ratingService) Update(ctx context.Context, req UpdateRatingInput) (*models.Rating, error) {
	rating, err := s.getOwned(ctx, req.CallerID, req.RatingID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, validationError("title cannot be empty")
		}
		rating.Title = title
	}
	if req.Rating != nil {
		if !validScore(*req.Rating) {
			return nil, validationError("rating must be between %d and %d", MinScore, MaxScore)
		}
		rating.Rating = *req.Rating
	}

	oldImage := ""
	if req.Image != nil {
		objectName, err := s.storage.UploadImage(ctx, ratingImageFolder, req.Image.FileName, req.Image.Reader, req.Image.Size)
		if err != nil {
			return nil, fmt.Errorf("error uploading movie image: %w", err)
		}
		oldImage = rating.MovieImage
		rating.MovieImage = objectName
	}

	rating.AverageRating = AverageRating(rating.Rating, rating.UserRatings)

	if err := s.ratingRepo.Update(ctx, rating); err != nil {
		if req.Image != nil {
			s.deleteImage(ctx, rating.MovieImage)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("rating %s: %w", req.RatingID, ErrNotFound)
		}
		return nil, err
	}

	s.deleteImage(ctx, oldImage)
	return rating, nil
}

func (s *ratingService) Delete(ctx context.Context, callerID, ratingID string) error {
	rating, err := s.getOwned(ctx, callerID, ratingID)
	if err != nil {
		return err
	}

	if err := s.ratingRepo.Delete(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("rating %s: %w", ratingID, ErrNotFound)
		}
		return err
	}

	s.deleteImage(ctx, rating.MovieImage)

	logging.Ctx(ctx).Info().Str("ratingId", ratingID).Msg("rating deleted")
	return nil
}

func (s *ratingService) AddComment(ctx context.Context, ratingID, userID, text string) (*models.Rating, error) {
	// strip markup but keep the plain text as written
	text = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
	if text == "" {
		return nil, validationError("comment is required")
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	rating, err := s.GetByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}

	createdAt := dbNow()
	comment := models.Comment{
		UserID:    userID,
		Username:  user.Username,
		Comment:   text,
		CreatedAt: createdAt,
	}
	userComment := models.UserComment{
		RatingID:  ratingID,
		Comment:   text,
		CreatedAt: createdAt,
	}

	if err := s.ratingRepo.AddComment(ctx, ratingID, comment, userComment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("rating %s: %w", ratingID, ErrNotFound)
		}
		return nil, err
	}

	rating.Comments = append(rating.Comments, comment)
	rating.CommentsCount = len(rating.Comments)
	return rating, nil
}

func (s *ratingService) AddPeerRating(ctx context.Context, ratingID, userID string, score float64) (*AverageResult, error) {
	if !validScore(score) {
		return nil, validationError("rating must be between %d and %d", MinScore, MaxScore)
	}

	rating, err := s.GetByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}

	if rating.OwnerID == userID {
		return nil, ErrSelfRating
	}
	for _, p := range rating.UserRatings {
		if p.UserID == userID {
			return nil, ErrAlreadyRated
		}
	}

	entry := models.UserRating{UserID: userID, Rating: score}
	rating.UserRatings = append(rating.UserRatings, entry)
	rating.AverageRating = AverageRating(rating.Rating, rating.UserRatings)

	if err := s.ratingRepo.AddUserRating(ctx, rating, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	return &AverageResult{AverageRating: rating.AverageRating}, nil
}

// GetPeerRatingForUser returns the user's peer score, or zero when the user
// has not rated yet.
func (s *ratingService) GetPeerRatingForUser(ctx context.Context, ratingID, userID string) (*PeerRating, error) {
	rating, err := s.GetByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}

	for _, p := range rating.UserRatings {
		if p.UserID == userID {
			return &PeerRating{Rating: p.Rating}, nil
		}
	}
	return &PeerRating{Rating: 0}, nil
}

// deleteImage removes a stored image best-effort. Failures are logged only.
func (s *ratingService) deleteImage(ctx context.Context, objectName string) {
	removeImage(ctx, s.storage, objectName)
}

func removeImage(ctx context.Context, store storage.Storage, objectName string) {
	if objectName == "" || objectName == config.DefaultProfilePic {
		return
	}

	if err := store.DeleteImage(ctx, objectName); err != nil {
		metrics.ImageDeleteFailures.Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("object", objectName).Msg("failed to delete image")
	}
}
