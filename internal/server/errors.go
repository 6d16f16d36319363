package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		ve *types.ValidationError
		ae *types.AuthorizationError
		re *types.ReferenceError
		se *types.StoreError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusForbidden
	case errors.As(err, &re):
		return http.StatusNotFound
	case errors.As(err, &se):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error  string             `json:"error"`
	Fields []types.FieldError `json:"fields,omitempty"`
}

// serviceError writes err with its mapped status. Unexpected errors are
// logged and hidden from the client.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	body := errorBody{Error: err.Error()}

	var ve *types.ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[server] %v", err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	s.jsonResponse(w, status, body)
}
