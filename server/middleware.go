package server

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey int

const identityKey contextKey = iota

// authenticate verifies the bearer token and stores the caller's user
// id in the request context. Handlers read it back with identityFrom;
// nothing is ever attached to shared mutable state.
func (s *Server) authenticate(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeErrorResponse(w, http.StatusUnauthorized, "Access denied")
			return
		}

		token := header
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			writeErrorResponse(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		id, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			writeErrorResponse(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFrom returns the authenticated caller's id.
func identityFrom(r *http.Request) (primitive.ObjectID, bool) {
	id, ok := r.Context().Value(identityKey).(primitive.ObjectID)
	return id, ok
}
