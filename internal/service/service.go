package service

import (
	"moviemeter/internal/config"
	"moviemeter/internal/repository"
	"moviemeter/internal/storage"
)

type Service struct {
	User   UserService
	Rating RatingService
	Auth   AuthService
	Tables TablesService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, google IdentityVerifier) *Service {
	return &Service{
		User:   NewUserService(rep.User, storage),
		Rating: NewRatingService(rep.Rating, rep.User, storage),
		Auth:   NewAuthService(rep.User, cfg, google),
		Tables: NewTablesService(rep.Tables),
	}
}
