package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/tworoomsboom/internal/model"
)

// JSON writes data with the given status. Game state changes under the
// client's feet, so nothing the API returns may be cached.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteSession writes the session document with 200
func WriteSession(w http.ResponseWriter, sess *model.Session) {
	JSON(w, http.StatusOK, SessionFromModel(sess))
}

// NoContent writes a 204
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
