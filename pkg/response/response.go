// Package response writes the JSON envelope used by every API endpoint.
//
// Success responses carry data; error responses carry a human-readable
// message plus a stable machine-readable code from pkg/apperr.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/cremaze/cremaze/pkg/apperr"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Message sends a 200 with only a message (admin inbox actions).
func Message(w http.ResponseWriter, msg string) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Message: msg})
}

// Error sends a JSON error response with an explicit status and code.
func Error(w http.ResponseWriter, status int, code apperr.Code, message string) {
	write(w, status, envelope{Status: status, Code: string(code), Message: message})
}

// ErrorFrom maps a service error to its HTTP status and code.
func ErrorFrom(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	msg := ae.Message
	if ae.Code == apperr.CodePersistence || ae.Code == apperr.CodeUpstream {
		// Never leak store/gateway internals to clients.
		if msg == "" {
			msg = "Server error"
		}
	}
	Error(w, ae.HTTPStatus(), ae.Code, msg)
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	write(w, http.StatusUnprocessableEntity, envelope{
		Status:  http.StatusUnprocessableEntity,
		Code:    string(apperr.CodeValidation),
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, apperr.CodeAuthentication, "Unauthorized")
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, apperr.CodeAuthorization, "Forbidden")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, apperr.CodeNotFound, "Not found")
}
