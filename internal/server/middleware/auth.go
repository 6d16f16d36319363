// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// actorKey is the context key for storing the authenticated actor.
const actorKey ContextKey = "actor"

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (UserIDGetter, error)
}

// UserIDGetter is an interface for extracting user ID from token claims.
type UserIDGetter interface {
	GetUserID() uuid.UUID
}

// ActorResolver loads the roster entry behind a token's user ID.
type ActorResolver interface {
	ResolveActor(ctx context.Context, id uuid.UUID) (types.User, error)
}

// AuthMiddleware validates the bearer token and puts the resolved actor on the
// request context. A bad token is 401; a valid token for a user that is no
// longer on the roster is 403, and a roster lookup that fails in the store is 503.
func AuthMiddleware(tokens TokenValidator, actors ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			actor, err := actors.ResolveActor(r.Context(), claims.GetUserID())
			if err != nil {
				var se *types.StoreError
				if errors.As(err, &se) {
					deny(w, http.StatusServiceUnavailable, err.Error())
					return
				}
				deny(w, http.StatusForbidden, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// bearerToken extracts the token from a case-insensitive "Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor types.User) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor extracts the authenticated actor from the request context.
func GetActor(r *http.Request) (types.User, error) {
	actor, ok := r.Context().Value(actorKey).(types.User)
	if !ok {
		return types.User{}, fmt.Errorf("actor not found in request context")
	}
	return actor, nil
}
