package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"moviemeter/internal/service"
)

const movieImageField = "movie_image"

type RatingRequest struct {
	Title  string  `validate:"required,max=200"`
	Rating float64 `validate:"gte=1,lte=5"`
}

type CommentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type PeerRatingRequest struct {
	Rating float64 `json:"rating" validate:"gte=1,lte=5"`
}

func parseScore(value string) (float64, bool) {
	score, err := strconv.ParseFloat(value, 64)
	return score, err == nil
}

func (h *Handlers) ListRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.RatingService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, ratings, http.StatusOK)
}

func (h *Handlers) MyRatings(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	ratings, err := h.RatingService.ListMine(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, ratings, http.StatusOK)
}

func (h *Handlers) GetRating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.RatingService.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, rating, http.StatusOK)
}

func (h *Handlers) CreateRating(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	form, err := h.readForm(w, r, movieImageField)
	if err != nil {
		WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer form.Close()

	title, _ := form.value("title")
	rawScore, _ := form.value("rating")
	score, ok := parseScore(rawScore)
	if !ok {
		WriteError(w, "rating must be a number", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(RatingRequest{Title: title, Rating: score}); err != nil {
		WriteError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	image := form.upload()
	if image == nil {
		WriteError(w, movieImageField+" is required", http.StatusBadRequest)
		return
	}

	rating, err := h.RatingService.Create(r.Context(), service.CreateRatingInput{
		OwnerID: userID,
		Title:   title,
		Rating:  score,
		Image:   image,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, rating, http.StatusCreated)
}

func (h *Handlers) UpdateRating(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	form, err := h.readForm(w, r, movieImageField)
	if err != nil {
		WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer form.Close()

	req := service.UpdateRatingInput{
		CallerID: userID,
		RatingID: mux.Vars(r)["id"],
		Image:    form.upload(),
	}

	if title, ok := form.value("title"); ok {
		req.Title = &title
	}
	if rawScore, ok := form.value("rating"); ok {
		score, valid := parseScore(rawScore)
		if !valid {
			WriteError(w, "rating must be a number", http.StatusBadRequest)
			return
		}
		req.Rating = &score
	}

	rating, err := h.RatingService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, rating, http.StatusOK)
}

func (h *Handlers) DeleteRating(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if err := h.RatingService.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	rating, err := h.RatingService.AddComment(r.Context(), mux.Vars(r)["id"], userID, req.Comment)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, rating, http.StatusOK)
}

func (h *Handlers) AddPeerRating(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req PeerRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	result, err := h.RatingService.AddPeerRating(r.Context(), mux.Vars(r)["id"], userID, req.Rating)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, result, http.StatusOK)
}

func (h *Handlers) GetPeerRating(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	result, err := h.RatingService.GetPeerRatingForUser(r.Context(), vars["id"], vars["userId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, result, http.StatusOK)
}
