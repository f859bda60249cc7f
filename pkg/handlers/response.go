package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON error shape of the plain HTTP endpoints.
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Datasource string `json:"datasource,omitempty"`
}

// WriteError writes body as a JSON error with statusCode.
func WriteError(w http.ResponseWriter, statusCode int, body ErrorBody) error {
	return WriteJSON(w, statusCode, body)
}

// WriteJSON writes data as JSON with Cache-Control: no-store.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
