package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"moviemeter/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	AddRefreshToken(ctx context.Context, userID, refreshToken string) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	RemoveRefreshToken(ctx context.Context, userID, refreshToken string) error
	ClearRefreshTokens(ctx context.Context, userID string) error
}

type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	GetAll(ctx context.Context) ([]models.Rating, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]models.Rating, error)
	GetByID(ctx context.Context, ratingID string) (*models.Rating, error)
	Update(ctx context.Context, rating *models.Rating) error
	Delete(ctx context.Context, rating *models.Rating) error
	AddUserRating(ctx context.Context, rating *models.Rating, entry models.UserRating) error
	AddComment(ctx context.Context, ratingID string, comment models.Comment, userComment models.UserComment) error
}

type TablesRepository interface {
	CountTablesDB(ctx context.Context) (int, error)
}

type Repository struct {
	User   UserRepository
	Rating RatingRepository
	Tables TablesRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		User:   NewUserRepository(db),
		Rating: NewRatingRepository(db),
		Tables: NewTablesRepository(db),
	}
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// expectAffected turns a zero-row result into ErrNotFound.
func expectAffected(rowsAffected int64, err error, what string) error {
	if err != nil {
		return fmt.Errorf("error checking affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
