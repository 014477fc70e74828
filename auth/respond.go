package auth

import (
	"encoding/json"
	"net/http"

	"github.com/user/lojinha-go/apperror"
)

// WriteJSON serializes data and writes it with the given status. A nil data
// value writes only the status, never a literal "null" body.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError converts any error into the standardized apperror response shape
// and writes it with the matching status code.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred: "+err.Error(), err)
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
