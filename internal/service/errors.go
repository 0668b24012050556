package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrNotOwner   = errors.New("only the owner can modify this resource")

	ErrEmailTaken   = fmt.Errorf("%w: user with this email already exists", ErrConflict)
	ErrAlreadyRated = fmt.Errorf("%w: user has already rated this movie", ErrConflict)
	ErrSelfRating   = errors.New("you cannot rate your own movie")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("token is required")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenReuse         = errors.New("refresh token mismatch, all sessions revoked")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
