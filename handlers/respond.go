package handlers

import (
	"encoding/json"
	"net/http"
)

// Response envelope shared by every JSON endpoint.
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	writeJSON(w, code, envelope{Status: "success", Message: message, Data: data})
}

func respondError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: "error", Message: message})
}

func respondErrorWithData(w http.ResponseWriter, code int, message string, data interface{}) {
	writeJSON(w, code, envelope{Status: "error", Message: message, Data: data})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
