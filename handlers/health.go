package handlers

import (
	"net/http"
	"time"
)

func Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "Server is running", map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
