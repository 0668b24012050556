package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"moviemeter/internal/service"
)

const profilePicField = "profilePic"

type UpdateUserRequest struct {
	Username string `validate:"omitempty,min=1"`
	Email    string `validate:"omitempty,email"`
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, users, http.StatusOK)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, user, http.StatusOK)
}

// UpdateUser changes username, email and picture. Password fields are ignored.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	currentUserID, _ := UserIDFromContext(r.Context())

	form, err := h.readForm(w, r, profilePicField)
	if err != nil {
		WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer form.Close()

	req := service.UpdateUserInput{
		CallerID: currentUserID,
		UserID:   mux.Vars(r)["id"],
		Picture:  form.upload(),
	}

	var check UpdateUserRequest
	if username, ok := form.value("username"); ok {
		req.Username = &username
		check.Username = username
	}
	if email, ok := form.value("email"); ok {
		req.Email = &email
		check.Email = email
	}

	if err := h.Validate.Struct(check); err != nil {
		WriteError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, user, http.StatusOK)
}
