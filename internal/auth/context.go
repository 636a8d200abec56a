package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userIDKey = contextKey("userID")

// TokenTTL is how long an issued session token stays valid.
const TokenTTL = 72 * time.Hour

// WithUserID stores the authenticated user's ID in the context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext extracts the authenticated user's ID from the context.
func GetUserIDFromContext(ctx context.Context) (uint, error) {
	id, ok := ctx.Value(userIDKey).(uint)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return id, nil
}

// ViewerID is like GetUserIDFromContext but treats an anonymous request as
// viewer 0 instead of an error. Used by read paths that serve both.
func ViewerID(ctx context.Context) uint {
	id, _ := ctx.Value(userIDKey).(uint)
	return id
}

// IssueToken signs a JWT for the given user with the HS256 secret from the
// environment.
func IssueToken(userID uint, username string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET is not set in environment")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(TokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Middleware validates a Bearer token, if present, and stores the user ID in
// the request context. Requests without a valid token pass through anonymous;
// individual operations decide whether authentication is required.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractTokenFromHeader(r.Header.Get("Authorization"))
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			http.Error(w, "JWT secret not set", http.StatusInternalServerError)
			return
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		idFloat, ok := claims["user_id"].(float64)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithUserID(r.Context(), uint(idFloat))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractTokenFromHeader(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
