package handlers

import (
	"encoding/json"
	"net/http"
)

// failedResponse is returned when the data source cannot be reached.
type failedResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeFailed(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadGateway, failedResponse{Status: "failed", Error: err.Error()})
}
