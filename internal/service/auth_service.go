package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moviemeter/internal/config"
	"moviemeter/internal/logging"
	"moviemeter/internal/metrics"
	"moviemeter/internal/models"
	"moviemeter/internal/repository"
)

// GooglePasswordMarker is stored as the password hash of users created through
// Google sign-in. It is not a bcrypt hash, so password login never matches it.
const GooglePasswordMarker = "google-signin"

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	IssueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyAccess(ctx context.Context, accessToken string) (string, error)
	GoogleSignIn(ctx context.Context, credential string) (*AuthResult, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	google   IdentityVerifier
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config, google IdentityVerifier) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   NewTokenManager(cfg.JWTSecretKey, cfg.AccessTokenDuration, cfg.RefreshTokenDuration),
		google:   google,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterInput) (*AuthResult, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, validationError("username, email and password are required")
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err == nil && existingUser != nil {
		return nil, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		UserID:       uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		ProfilePic:   config.DefaultProfilePic,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	result, err := s.authenticate(ctx, user)
	metrics.RecordAuthEvent("register", err)
	return result, err
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAuthEvent("login", ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordAuthEvent("login", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	result, err := s.authenticate(ctx, user)
	metrics.RecordAuthEvent("login", err)
	return result, err
}

// IssueTokenPair signs a new pair and stores the refresh token in the user's set.
// Every call adds one more valid refresh token.
func (s *authService) IssueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.signPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.AddRefreshToken(ctx, user.UserID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("error saving refresh token: %w", err)
	}
	user.Tokens = append(user.Tokens, pair.RefreshToken)

	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		metrics.RecordAuthEvent("refresh", err)
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrTokenInvalid)
		}
		return nil, err
	}

	if !user.HasToken(refreshToken) {
		return nil, s.revokeAll(ctx, user.UserID)
	}

	pair, err := s.signPair(user)
	if err != nil {
		return nil, err
	}

	err = s.userRepo.RotateRefreshToken(ctx, user.UserID, refreshToken, pair.RefreshToken)
	if err != nil {
		// consumed by a concurrent refresh between the read and the swap
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.revokeAll(ctx, user.UserID)
		}
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}

	metrics.RecordAuthEvent("refresh", nil)
	return pair, nil
}

// revokeAll wipes every refresh token of the user and returns ErrTokenReuse.
func (s *authService) revokeAll(ctx context.Context, userID string) error {
	metrics.SessionWipes.Inc()
	metrics.RecordAuthEvent("refresh", ErrTokenReuse)

	logging.Ctx(ctx).Warn().Str("userId", userID).Msg("refresh token mismatch, revoking all sessions")

	if err := s.userRepo.ClearRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("error revoking sessions: %w", err)
	}
	return ErrTokenReuse
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingToken
	}

	claims, err := s.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		return err
	}

	err = s.userRepo.RemoveRefreshToken(ctx, claims.UserID, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user no longer exists", ErrTokenInvalid)
		}
		return err
	}

	metrics.RecordAuthEvent("logout", nil)
	return nil
}

// VerifyAccess validates an access token and returns the id of its user,
// who must still exist.
func (s *authService) VerifyAccess(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", ErrMissingToken
	}

	claims, err := s.tokens.Verify(accessToken, AccessToken)
	if err != nil {
		return "", err
	}

	if _, err := s.userRepo.GetUserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: user no longer exists", ErrTokenInvalid)
		}
		return "", err
	}

	return claims.UserID, nil
}

func (s *authService) GoogleSignIn(ctx context.Context, credential string) (*AuthResult, error) {
	if credential == "" {
		return nil, validationError("credential is required")
	}

	identity, err := s.google.Verify(ctx, credential)
	if err != nil {
		metrics.RecordAuthEvent("google", err)
		return nil, err
	}
	if identity.Email == "" {
		return nil, validationError("google account has no email")
	}

	user, err := s.userRepo.GetUserByEmail(ctx, identity.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		user = &models.User{
			UserID:       uuid.New().String(),
			Username:     googleUsername(identity),
			Email:        identity.Email,
			PasswordHash: GooglePasswordMarker,
			ProfilePic:   config.DefaultProfilePic,
		}
		err := s.userRepo.CreateUser(ctx, user)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			// a concurrent first sign-in created the user
			user, err = s.userRepo.GetUserByEmail(ctx, identity.Email)
			if err != nil {
				return nil, err
			}
		case err != nil:
			return nil, err
		default:
			logging.Ctx(ctx).Info().Str("userId", user.UserID).Msg("created user from google sign-in")
		}
	}

	result, err := s.authenticate(ctx, user)
	metrics.RecordAuthEvent("google", err)
	return result, err
}

func googleUsername(identity *GoogleIdentity) string {
	if identity.Name != "" {
		return identity.Name
	}
	local, _, _ := strings.Cut(identity.Email, "@")
	return local
}

func (s *authService) authenticate(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *authService) signPair(user *models.User) (*TokenPair, error) {
	accessToken, err := s.tokens.Issue(user, AccessToken)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	refreshToken, err := s.tokens.Issue(user, RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
