package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response mirrors api.Response. Duplicated here (rather than importing
// pkg/api) because pkg/api's router imports this package; the two
// envelopes must stay field-for-field identical.
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func healthyResponse(data interface{}) Response {
	return Response{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

func unhealthyResponse(errMsg string) Response {
	return Response{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: errMsg}
}

func unhealthyResponseWithData(data interface{}) Response {
	return Response{Status: "unhealthy", Timestamp: time.Now().UTC(), Data: data}
}

func errorResponse(errMsg string) Response {
	return Response{Status: "error", Timestamp: time.Now().UTC(), Error: errMsg}
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse(msg))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, errorResponse(msg))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, errorResponse(msg))
}

// Forbidden writes a 403 error response.
func Forbidden(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusForbidden, errorResponse(msg))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusConflict, errorResponse(msg))
}

// InternalServerError writes a 500 error response.
func InternalServerError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse(msg))
}
