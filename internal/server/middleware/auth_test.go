package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func (v *testTokenValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	userID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(userID), nil
}

type testClaims uuid.UUID

func (c testClaims) GetUserID() uuid.UUID { return uuid.UUID(c) }

type roster map[uuid.UUID]types.User

func (r roster) ResolveActor(_ context.Context, id uuid.UUID) (types.User, error) {
	u, ok := r[id]
	if !ok {
		return types.User{}, &types.AuthorizationError{ActorID: id, Action: "authenticate", Reason: "not on the roster"}
	}
	return u, nil
}

func TestAuthMiddleware(t *testing.T) {
	known := types.User{ID: uuid.New(), Name: "Rae", Role: types.RoleRecruiter}
	gone := uuid.New()
	tokens := &testTokenValidator{validTokens: map[string]uuid.UUID{"good": known.ID, "stale": gone}}

	var seen types.User
	handler := AuthMiddleware(tokens, roster{known.ID: known})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := GetActor(r)
		require.NoError(t, err)
		seen = actor
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusNoContent},
		{"lowercase scheme", "bearer good", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"extra parts", "Bearer good extra", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"user left the roster", "Bearer stale", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want != http.StatusNoContent {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
	assert.Equal(t, known.ID, seen.ID)
}

func TestGetActor_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetActor(req)
	assert.Error(t, err)

	actor := types.User{ID: uuid.New()}
	req = req.WithContext(WithActor(req.Context(), actor))
	got, err := GetActor(req)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, got.ID)
}

type failingRoster struct{ err error }

func (r failingRoster) ResolveActor(context.Context, uuid.UUID) (types.User, error) {
	return types.User{}, r.err
}

func TestAuthMiddleware_ResolveErrors(t *testing.T) {
	id := uuid.New()
	tokens := &testTokenValidator{validTokens: map[string]uuid.UUID{"good": id}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"store outage", &types.StoreError{Op: "resolve actor", Cause: fmt.Errorf("connection refused")}, http.StatusServiceUnavailable},
		{"wrapped store outage", fmt.Errorf("lookup: %w", &types.StoreError{Op: "resolve actor", Cause: fmt.Errorf("timeout")}), http.StatusServiceUnavailable},
		{"not on roster", &types.AuthorizationError{ActorID: id, Action: "authenticate", Reason: "not on the roster"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(tokens, failingRoster{err: tt.err})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
			req.Header.Set("Authorization", "Bearer good")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
