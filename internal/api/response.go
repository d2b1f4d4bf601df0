package api

import (
	"encoding/json"
	"net/http"

	"phonelogin/internal/navigation"
)

type errorResponse struct {
	Error string `json:"error"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeRedirect(w http.ResponseWriter, to navigation.Destination) {
	w.Header().Set("Location", to.Path())
	writeJSON(w, http.StatusSeeOther, redirectResponse{Redirect: to.Path()})
}
