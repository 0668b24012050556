package models

import (
	"time"

	"github.com/lib/pq"
)

type User struct {
	UserID       string          `json:"_id" db:"user_id"`
	Username     string          `json:"username" db:"username"`
	Email        string          `json:"email" db:"email"`
	PasswordHash string          `json:"-" db:"password_hash"`
	ProfilePic   string          `json:"profilePic" db:"profile_pic"`
	MyRatings    RatingSummaries `json:"my_ratings" db:"my_ratings"`
	Comments     UserComments    `json:"comments" db:"comments"`
	Tokens       pq.StringArray  `json:"-" db:"tokens"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// HasToken reports whether token is one of the user's valid refresh tokens.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// RatingSummary is the copy of a rating kept on its owner's record.
type RatingSummary struct {
	RatingID      string    `json:"_id"`
	Title         string    `json:"title"`
	Rating        float64   `json:"rating"`
	MovieImage    string    `json:"movie_image"`
	CreatedAt     time.Time `json:"createdAt"`
	AverageRating float64   `json:"averageRating"`
}

// UserComment references a comment the user left on a rating.
type UserComment struct {
	RatingID  string    `json:"ratingId"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Rating struct {
	RatingID      string      `json:"_id" db:"rating_id"`
	Title         string      `json:"title" db:"title"`
	OwnerID       string      `json:"owner" db:"owner_id"`
	OwnerUsername string      `json:"ownerUsername,omitempty" db:"owner_username"`
	Rating        float64     `json:"rating" db:"rating"`
	MovieImage    string      `json:"movie_image" db:"movie_image"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UserRatings   UserRatings `json:"userRatings" db:"user_ratings"`
	Comments      Comments    `json:"comments" db:"comments"`
	AverageRating float64     `json:"averageRating" db:"average_rating"`
	CommentsCount int         `json:"commentsCount" db:"-"`
}

// Summary builds the owner-side copy of r.
func (r *Rating) Summary() RatingSummary {
	return RatingSummary{
		RatingID:      r.RatingID,
		Title:         r.Title,
		Rating:        r.Rating,
		MovieImage:    r.MovieImage,
		CreatedAt:     r.CreatedAt,
		AverageRating: r.AverageRating,
	}
}

// UserRating is a peer score left by a user other than the owner.
type UserRating struct {
	UserID string  `json:"userId"`
	Rating float64 `json:"rating"`
}

type Comment struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
