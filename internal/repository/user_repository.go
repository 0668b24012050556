package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"moviemeter/internal/models"
)

const userColumns = `user_id, username, email, password_hash, profile_pic, my_ratings, comments, tokens, created_at`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.MyRatings == nil {
		user.MyRatings = models.RatingSummaries{}
	}
	if user.Comments == nil {
		user.Comments = models.UserComments{}
	}
	if user.Tokens == nil {
		user.Tokens = []string{}
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.UserID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ProfilePic,
		user.MyRatings,
		user.Comments,
		user.Tokens,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	err := r.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("error getting user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("error getting users: %w", err)
	}

	return users, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, profile_pic = $3
		WHERE user_id = $4
	`

	result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.ProfilePic, user.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("error updating user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected(rowsAffected, err, "user with ID "+user.UserID)
}

func (r *userRepository) AddRefreshToken(ctx context.Context, userID, refreshToken string) error {
	query := `UPDATE users SET tokens = array_append(tokens, $1) WHERE user_id = $2`

	result, err := r.db.ExecContext(ctx, query, refreshToken, userID)
	if err != nil {
		return fmt.Errorf("error saving refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected(rowsAffected, err, "user with ID "+userID)
}

// RotateRefreshToken swaps oldToken for newToken in one statement.
// It returns ErrNotFound when oldToken is no longer in the user's set.
func (r *userRepository) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error {
	query := `
		UPDATE users
		SET tokens = array_append(array_remove(tokens, $1), $2)
		WHERE user_id = $3 AND $1 = ANY(tokens)
	`

	result, err := r.db.ExecContext(ctx, query, oldToken, newToken, userID)
	if err != nil {
		return fmt.Errorf("error rotating refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected(rowsAffected, err, "refresh token of user "+userID)
}

func (r *userRepository) RemoveRefreshToken(ctx context.Context, userID, refreshToken string) error {
	query := `UPDATE users SET tokens = array_remove(tokens, $1) WHERE user_id = $2`

	result, err := r.db.ExecContext(ctx, query, refreshToken, userID)
	if err != nil {
		return fmt.Errorf("error removing refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected(rowsAffected, err, "user with ID "+userID)
}

func (r *userRepository) ClearRefreshTokens(ctx context.Context, userID string) error {
	query := `UPDATE users SET tokens = '{}' WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("error clearing refresh tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected(rowsAffected, err, "user with ID "+userID)
}
