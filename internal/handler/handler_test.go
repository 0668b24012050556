package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"moviemeter/internal/config"
	"moviemeter/internal/service"
)

type testDeps struct {
	auth    *MockAuthService
	ratings *MockRatingService
	users   *MockUserService
	tables  *MockTablesService
	storage *MockStorage
}

func createTestHandler() (*Handlers, *testDeps) {
	deps := &testDeps{
		auth:    new(MockAuthService),
		ratings: new(MockRatingService),
		users:   new(MockUserService),
		tables:  new(MockTablesService),
		storage: new(MockStorage),
	}

	cfg := &config.Config{
		JWTSecretKey:  "test-secret-key",
		ServerPort:    8080,
		MaxUploadSize: 1024 * 1024,
	}

	return &Handlers{
		UserService:   deps.users,
		RatingService: deps.ratings,
		AuthService:   deps.auth,
		TablesService: deps.tables,
		Storage:       deps.storage,
		Cfg:           cfg,
		Validate:      validator.New(),
	}, deps
}

// assertJSONError checks the JSON response with an error
func assertJSONError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Contains(t, response["error"], expectedError)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	return response
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("title: %w", service.ErrValidation), http.StatusBadRequest},
		{service.ErrEmailTaken, http.StatusBadRequest},
		{service.ErrAlreadyRated, http.StatusBadRequest},
		{service.ErrSelfRating, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusBadRequest},
		{service.ErrMissingToken, http.StatusUnauthorized},
		{service.ErrTokenInvalid, http.StatusForbidden},
		{service.ErrTokenExpired, http.StatusForbidden},
		{service.ErrTokenReuse, http.StatusForbidden},
		{service.ErrNotOwner, http.StatusForbidden},
		{fmt.Errorf("rating x: %w", service.ErrNotFound), http.StatusNotFound},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestWriteServiceError_PassesStorageMessageThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ratings", nil)

	writeServiceError(rr, req, errors.New("error getting ratings: pq: relation \"ratings\" does not exist"))

	assertJSONError(t, rr, http.StatusInternalServerError, `pq: relation "ratings" does not exist`)
}

func TestHealth(t *testing.T) {
	h, deps := createTestHandler()
	deps.tables.On("GetCountTablesBD", mock.Anything).Return(2, nil)

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["tables"])
}
