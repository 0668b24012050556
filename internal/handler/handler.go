package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"

	"moviemeter/internal/config"
	"moviemeter/internal/service"
	"moviemeter/internal/storage"
)

type Handlers struct {
	UserService   service.UserService
	RatingService service.RatingService
	AuthService   service.AuthService
	TablesService service.TablesService
	Storage       storage.Storage
	Cfg           *config.Config
	Validate      *validator.Validate
}

func NewHandlers(service *service.Service, storage storage.Storage, config *config.Config) *Handlers {
	return &Handlers{
		UserService:   service.User,
		RatingService: service.Rating,
		AuthService:   service.Auth,
		TablesService: service.Tables,
		Storage:       storage,
		Cfg:           config,
		Validate:      validator.New(),
	}
}

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the id stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}
