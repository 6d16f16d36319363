package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/recruit-tracker/internal/types"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", types.NewValidationError("op", "status", "is required"), http.StatusBadRequest},
		{"authorization", &types.AuthorizationError{ActorID: uuid.New(), Action: "x", Reason: "y"}, http.StatusForbidden},
		{"reference", types.NotFound("candidate", uuid.New()), http.StatusNotFound},
		{"store", &types.StoreError{Op: "get", Cause: errors.New("conn refused")}, http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("outer: %w", types.NotFound("job", uuid.New())), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
