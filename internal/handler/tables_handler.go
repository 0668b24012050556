package handlers

import (
	"net/http"
)

type HealthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
}

// Health reports database reachability by counting the application tables.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.TablesService.GetCountTablesBD(r.Context())
	if err != nil {
		WriteError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	WriteSuccess(w, HealthResponse{Status: "ok", Tables: count}, http.StatusOK)
}
