package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"moviemeter/internal/models"
	"moviemeter/internal/service"
	"moviemeter/internal/storage"
)

func TestGetUserHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h, deps := createTestHandler()
		deps.users.On("GetByID", mock.Anything, "user-1").Return(&models.User{
			UserID:     "user-1",
			Username:   "yuval",
			ProfilePic: "avatar.jpg",
			MyRatings:  models.RatingSummaries{{RatingID: "r-1", Title: "Heat"}},
		}, nil)
		rr := httptest.NewRecorder()

		h.GetUser(rr, mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/users/user-1", nil), map[string]string{"id": "user-1"}))

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "avatar.jpg", body["profilePic"])
		assert.Len(t, body["my_ratings"], 1)
	})

	t.Run("not found", func(t *testing.T) {
		h, deps := createTestHandler()
		deps.users.On("GetByID", mock.Anything, "ghost").Return(nil, service.ErrNotFound)
		rr := httptest.NewRecorder()

		h.GetUser(rr, mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/users/ghost", nil), map[string]string{"id": "ghost"}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListUsersHandler(t *testing.T) {
	h, deps := createTestHandler()
	deps.users.On("List", mock.Anything).Return([]models.User{{UserID: "a"}, {UserID: "b"}}, nil)
	rr := httptest.NewRecorder()

	h.ListUsers(rr, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	deps.users.AssertExpectations(t)
}

func TestUpdateUserHandler(t *testing.T) {
	t.Run("multipart with picture", func(t *testing.T) {
		h, deps := createTestHandler()
		deps.users.On("Update", mock.Anything, mock.MatchedBy(func(in service.UpdateUserInput) bool {
			return in.CallerID == "user-1" && in.UserID == "user-1" &&
				in.Username != nil && *in.Username == "newname" && in.Email == nil &&
				in.Picture != nil && in.Picture.FileName == "me.png"
		})).Return(&models.User{UserID: "user-1", Username: "newname"}, nil)

		req := multipartRequest(t, http.MethodPut, "/users/user-1",
			map[string]string{"username": "newname", "password": "ignored"}, "profilePic", "me.png", pngBytes)
		rr := httptest.NewRecorder()

		h.UpdateUser(rr, authed(req, "user-1", map[string]string{"id": "user-1"}))

		assert.Equal(t, http.StatusOK, rr.Code)
		deps.users.AssertExpectations(t)
	})

	t.Run("invalid email", func(t *testing.T) {
		h, _ := createTestHandler()
		req := jsonRequest(http.MethodPut, "/users/user-1", map[string]string{"email": "nope"})
		rr := httptest.NewRecorder()

		h.UpdateUser(rr, authed(req, "user-1", map[string]string{"id": "user-1"}))

		assertJSONError(t, rr, http.StatusBadRequest, "email must be a valid email")
	})

	t.Run("someone else's profile", func(t *testing.T) {
		h, deps := createTestHandler()
		deps.users.On("Update", mock.Anything, mock.Anything).Return(nil, service.ErrNotOwner)
		req := jsonRequest(http.MethodPut, "/users/user-1", map[string]string{"username": "x"})
		rr := httptest.NewRecorder()

		h.UpdateUser(rr, authed(req, "user-2", map[string]string{"id": "user-1"}))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestServeUpload(t *testing.T) {
	t.Run("streams object", func(t *testing.T) {
		h, deps := createTestHandler()
		deps.storage.On("OpenImage", mock.Anything, "ratings/2026/10/a.png").
			Return(io.NopCloser(strings.NewReader("png-data")), "image/png", int64(8), nil)
		rr := httptest.NewRecorder()

		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/uploads/ratings/2026/10/a.png", nil),
			map[string]string{"object": "ratings/2026/10/a.png"})
		h.ServeUpload(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, "png-data", rr.Body.String())
	})

	t.Run("missing object", func(t *testing.T) {
		h, deps := createTestHandler()
		deps.storage.On("OpenImage", mock.Anything, "nope.png").
			Return(nil, "", int64(0), storage.ErrObjectNotFound)
		rr := httptest.NewRecorder()

		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/uploads/nope.png", nil),
			map[string]string{"object": "nope.png"})
		h.ServeUpload(rr, req)

		assertJSONError(t, rr, http.StatusNotFound, "image not found")
	})
}
