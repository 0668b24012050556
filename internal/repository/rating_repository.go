package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"moviemeter/internal/models"
)

const ratingSelect = `
	SELECT r.rating_id, r.title, r.owner_id, COALESCE(u.username, '') AS owner_username,
	       r.rating, r.movie_image, r.created_at, r.user_ratings, r.comments, r.average_rating
	FROM ratings r
	LEFT JOIN users u ON u.user_id = r.owner_id
`

// The owner's my_ratings list mirrors the ratings table. These statements keep it
// in step inside the same transaction as the rating write.
const (
	appendSummaryQuery = `
		UPDATE users
		SET my_ratings = my_ratings || jsonb_build_array($1::jsonb)
		WHERE user_id = $2
	`

	// replaceSummaryQuery rewrites the matching entry in place, or appends it
	// when the cached list lost it.
	replaceSummaryQuery = `
		UPDATE users
		SET my_ratings = CASE
			WHEN my_ratings @> jsonb_build_array(jsonb_build_object('_id', $1::text)) THEN (
				SELECT COALESCE(jsonb_agg(CASE WHEN elem->>'_id' = $1::text THEN $2::jsonb ELSE elem END ORDER BY idx), '[]'::jsonb)
				FROM jsonb_array_elements(my_ratings) WITH ORDINALITY AS t(elem, idx)
			)
			ELSE my_ratings || jsonb_build_array($2::jsonb)
		END
		WHERE user_id = $3
	`

	pullSummaryQuery = `
		UPDATE users
		SET my_ratings = (
			SELECT COALESCE(jsonb_agg(elem ORDER BY idx), '[]'::jsonb)
			FROM jsonb_array_elements(my_ratings) WITH ORDINALITY AS t(elem, idx)
			WHERE elem->>'_id' <> $1::text
		)
		WHERE user_id = $2
	`
)

type ratingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now().UTC()
	}
	if rating.UserRatings == nil {
		rating.UserRatings = models.UserRatings{}
	}
	if rating.Comments == nil {
		rating.Comments = models.Comments{}
	}

	summary, err := encodeJSON(rating.Summary())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ratings
		(rating_id, title, owner_id, rating, movie_image, created_at, user_ratings, comments, average_rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			rating.RatingID,
			rating.Title,
			rating.OwnerID,
			rating.Rating,
			rating.MovieImage,
			rating.CreatedAt,
			rating.UserRatings,
			rating.Comments,
			rating.AverageRating,
		)
		if err != nil {
			return fmt.Errorf("error creating rating: %w", err)
		}

		result, err := tx.ExecContext(ctx, appendSummaryQuery, summary, rating.OwnerID)
		if err != nil {
			return fmt.Errorf("error adding rating to owner: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		return expectAffected(rowsAffected, err, "owner "+rating.OwnerID)
	})
}

func (r *ratingRepository) GetAll(ctx context.Context) ([]models.Rating, error) {
	ratings := []models.Rating{}

	query := ratingSelect + ` ORDER BY r.created_at DESC`

	if err := r.db.SelectContext(ctx, &ratings, query); err != nil {
		return nil, fmt.Errorf("error getting ratings: %w", err)
	}

	countComments(ratings)
	return ratings, nil
}

func (r *ratingRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]models.Rating, error) {
	ratings := []models.Rating{}

	query := ratingSelect + ` WHERE r.owner_id = $1 ORDER BY r.created_at DESC`

	if err := r.db.SelectContext(ctx, &ratings, query, ownerID); err != nil {
		return nil, fmt.Errorf("error getting ratings of user %s: %w", ownerID, err)
	}

	countComments(ratings)
	return ratings, nil
}

func (r *ratingRepository) GetByID(ctx context.Context, ratingID string) (*models.Rating, error) {
	var rating models.Rating

	query := ratingSelect + ` WHERE r.rating_id = $1`

	err := r.db.GetContext(ctx, &rating, query, ratingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rating with ID %s: %w", ratingID, ErrNotFound)
		}
		return nil, fmt.Errorf("error getting rating: %w", err)
	}

	rating.CommentsCount = len(rating.Comments)
	return &rating, nil
}

func (r *ratingRepository) Update(ctx context.Context, rating *models.Rating) error {
	summary, err := encodeJSON(rating.Summary())
	if err != nil {
		return err
	}

	query := `
		UPDATE ratings
		SET title = $1, rating = $2, movie_image = $3, average_rating = $4
		WHERE rating_id = $5
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			rating.Title,
			rating.Rating,
			rating.MovieImage,
			rating.AverageRating,
			rating.RatingID,
		)
		if err != nil {
			return fmt.Errorf("error updating rating: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err := expectAffected(rowsAffected, err, "rating with ID "+rating.RatingID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, replaceSummaryQuery, rating.RatingID, summary, rating.OwnerID); err != nil {
			return fmt.Errorf("error updating owner summary: %w", err)
		}
		return nil
	})
}

func (r *ratingRepository) Delete(ctx context.Context, rating *models.Rating) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM ratings WHERE rating_id = $1`, rating.RatingID)
		if err != nil {
			return fmt.Errorf("error deleting rating: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err := expectAffected(rowsAffected, err, "rating with ID "+rating.RatingID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, pullSummaryQuery, rating.RatingID, rating.OwnerID); err != nil {
			return fmt.Errorf("error removing owner summary: %w", err)
		}
		return nil
	})
}

// AddUserRating appends entry and stores rating.AverageRating. The caller has
// already applied entry to rating. ErrDuplicate means entry.UserID already rated.
func (r *ratingRepository) AddUserRating(ctx context.Context, rating *models.Rating, entry models.UserRating) error {
	entryJSON, err := encodeJSON(entry)
	if err != nil {
		return err
	}
	summary, err := encodeJSON(rating.Summary())
	if err != nil {
		return err
	}

	query := `
		UPDATE ratings
		SET user_ratings = user_ratings || jsonb_build_array($1::jsonb), average_rating = $2
		WHERE rating_id = $3
		  AND NOT user_ratings @> jsonb_build_array(jsonb_build_object('userId', $4::text))
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, entryJSON, rating.AverageRating, rating.RatingID, entry.UserID)
		if err != nil {
			return fmt.Errorf("error adding user rating: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("error checking affected rows: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("user %s on rating %s: %w", entry.UserID, rating.RatingID, ErrDuplicate)
		}

		if _, err := tx.ExecContext(ctx, replaceSummaryQuery, rating.RatingID, summary, rating.OwnerID); err != nil {
			return fmt.Errorf("error updating owner summary: %w", err)
		}
		return nil
	})
}

func (r *ratingRepository) AddComment(ctx context.Context, ratingID string, comment models.Comment, userComment models.UserComment) error {
	commentJSON, err := encodeJSON(comment)
	if err != nil {
		return err
	}
	userCommentJSON, err := encodeJSON(userComment)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE ratings SET comments = comments || jsonb_build_array($1::jsonb) WHERE rating_id = $2`,
			commentJSON, ratingID,
		)
		if err != nil {
			return fmt.Errorf("error adding comment: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err := expectAffected(rowsAffected, err, "rating with ID "+ratingID); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE users SET comments = comments || jsonb_build_array($1::jsonb) WHERE user_id = $2`,
			userCommentJSON, comment.UserID,
		)
		if err != nil {
			return fmt.Errorf("error adding comment to user: %w", err)
		}

		rowsAffected, err = result.RowsAffected()
		return expectAffected(rowsAffected, err, "user with ID "+comment.UserID)
	})
}

func countComments(ratings []models.Rating) {
	for i := range ratings {
		ratings[i].CommentsCount = len(ratings[i].Comments)
	}
}

func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error encoding %T: %w", v, err)
	}
	return string(data), nil
}
