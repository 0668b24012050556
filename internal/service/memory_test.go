package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lib/pq"

	"moviemeter/internal/models"
	"moviemeter/internal/repository"
)

// memUserRepo is an in-memory repository.UserRepository. Reads return copies
// so tests observe only what was persisted.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.MyRatings = append(models.RatingSummaries{}, u.MyRatings...)
	c.Comments = append(models.UserComments{}, u.Comments...)
	c.Tokens = append(pq.StringArray{}, u.Tokens...)
	return &c
}

func (r *memUserRepo) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s: %w", user.Email, repository.ErrDuplicate)
		}
	}
	r.users[user.UserID] = copyUser(user)
	return nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetAllUsers(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := []models.User{}
	for _, u := range r.users {
		users = append(users, *copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (r *memUserRepo) UpdateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[user.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.users {
		if id != user.UserID && other.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	u.Username, u.Email, u.ProfilePic = user.Username, user.Email, user.ProfilePic
	return nil
}

func (r *memUserRepo) AddRefreshToken(_ context.Context, userID, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Tokens = append(u.Tokens, refreshToken)
	return nil
}

func (r *memUserRepo) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok || !u.HasToken(oldToken) {
		return repository.ErrNotFound
	}
	u.Tokens = append(removeToken(u.Tokens, oldToken), newToken)
	return nil
}

func (r *memUserRepo) RemoveRefreshToken(_ context.Context, userID, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Tokens = removeToken(u.Tokens, refreshToken)
	return nil
}

func (r *memUserRepo) ClearRefreshTokens(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Tokens = pq.StringArray{}
	return nil
}

func removeToken(tokens pq.StringArray, token string) pq.StringArray {
	kept := pq.StringArray{}
	for _, t := range tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	return kept
}

// memRatingRepo keeps the owner's my_ratings in step with every write.
type memRatingRepo struct {
	users   *memUserRepo
	ratings map[string]*models.Rating
}

func newMemRatingRepo(users *memUserRepo) *memRatingRepo {
	return &memRatingRepo{users: users, ratings: map[string]*models.Rating{}}
}

func copyRating(r *models.Rating) *models.Rating {
	c := *r
	c.UserRatings = append(models.UserRatings{}, r.UserRatings...)
	c.Comments = append(models.Comments{}, r.Comments...)
	c.CommentsCount = len(c.Comments)
	return &c
}

func (m *memRatingRepo) owner(ownerID string) (*models.User, error) {
	u, ok := m.users.users[ownerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memRatingRepo) replaceSummary(rating *models.Rating) {
	u, err := m.owner(rating.OwnerID)
	if err != nil {
		return
	}
	for i := range u.MyRatings {
		if u.MyRatings[i].RatingID == rating.RatingID {
			u.MyRatings[i] = rating.Summary()
			return
		}
	}
	u.MyRatings = append(u.MyRatings, rating.Summary())
}

func (m *memRatingRepo) Create(_ context.Context, rating *models.Rating) error {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	u, err := m.owner(rating.OwnerID)
	if err != nil {
		return err
	}
	m.ratings[rating.RatingID] = copyRating(rating)
	u.MyRatings = append(u.MyRatings, rating.Summary())
	return nil
}

func (m *memRatingRepo) GetAll(_ context.Context) ([]models.Rating, error) {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	ratings := []models.Rating{}
	for _, r := range m.ratings {
		ratings = append(ratings, *copyRating(r))
	}
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].CreatedAt.After(ratings[j].CreatedAt) })
	return ratings, nil
}

func (m *memRatingRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]models.Rating, error) {
	all, _ := m.GetAll(ctx)
	mine := []models.Rating{}
	for _, r := range all {
		if r.OwnerID == ownerID {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

func (m *memRatingRepo) GetByID(_ context.Context, ratingID string) (*models.Rating, error) {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	r, ok := m.ratings[ratingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyRating(r), nil
}

func (m *memRatingRepo) Update(_ context.Context, rating *models.Rating) error {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	r, ok := m.ratings[rating.RatingID]
	if !ok {
		return repository.ErrNotFound
	}
	r.Title, r.Rating, r.MovieImage, r.AverageRating = rating.Title, rating.Rating, rating.MovieImage, rating.AverageRating
	m.replaceSummary(r)
	return nil
}

func (m *memRatingRepo) Delete(_ context.Context, rating *models.Rating) error {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	if _, ok := m.ratings[rating.RatingID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.ratings, rating.RatingID)

	if u, err := m.owner(rating.OwnerID); err == nil {
		kept := models.RatingSummaries{}
		for _, s := range u.MyRatings {
			if s.RatingID != rating.RatingID {
				kept = append(kept, s)
			}
		}
		u.MyRatings = kept
	}
	return nil
}

func (m *memRatingRepo) AddUserRating(_ context.Context, rating *models.Rating, entry models.UserRating) error {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	r, ok := m.ratings[rating.RatingID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.UserRatings {
		if p.UserID == entry.UserID {
			return repository.ErrDuplicate
		}
	}
	r.UserRatings = append(r.UserRatings, entry)
	r.AverageRating = rating.AverageRating
	m.replaceSummary(r)
	return nil
}

func (m *memRatingRepo) AddComment(_ context.Context, ratingID string, comment models.Comment, userComment models.UserComment) error {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	r, ok := m.ratings[ratingID]
	if !ok {
		return repository.ErrNotFound
	}
	u, err := m.owner(comment.UserID)
	if err != nil {
		return err
	}
	r.Comments = append(r.Comments, comment)
	u.Comments = append(u.Comments, userComment)
	return nil
}
