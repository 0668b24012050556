package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"moviemeter/internal/logging"
	"moviemeter/internal/storage"
)

// ServeUpload streams a stored image.
func (h *Handlers) ServeUpload(w http.ResponseWriter, r *http.Request) {
	objectName := mux.Vars(r)["object"]

	body, contentType, size, err := h.Storage.OpenImage(r.Context(), objectName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			WriteError(w, "image not found", http.StatusNotFound)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("object", objectName).Msg("image stream interrupted")
	}
}
