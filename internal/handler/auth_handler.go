package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"moviemeter/internal/service"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LogoutRequest struct {
	Token string `json:"token"`
}

type GoogleSignInRequest struct {
	Credential string `json:"credential" validate:"required"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	result, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, result, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	result, err := h.AuthService.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, result, http.StatusOK)
}

// Refresh exchanges the bearer refresh token for a new pair.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.AuthService.Refresh(r.Context(), BearerToken(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, pair, http.StatusOK)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	if err := h.AuthService.Logout(r.Context(), req.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req GoogleSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	result, err := h.AuthService.GoogleSignIn(r.Context(), req.Credential)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, result, http.StatusOK)
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
