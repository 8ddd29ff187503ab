package api

import (
	"net/http"

	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Int("status", status).
			Str("path", r.URL.Path).
			Msg(message)
	}
	respondJSON(w, r, status, errorResponse{Error: message})
}
