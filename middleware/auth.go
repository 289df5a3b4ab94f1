package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tours-api/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userKey contextKey = "user"

// Claims is the JWT payload: the user id plus standard expiry/issue times.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// UserResolver loads the principal during token verification. Reads go
// through the default scope, so soft-deleted users fail resolution.
type UserResolver interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Protect verifies the bearer token (header first, then the jwt cookie),
// resolves the user, rejects tokens minted before the last password change,
// and attaches the principal to the request context.
func Protect(users UserResolver, jwtSecret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				writeAuthError(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
				return
			}
			token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token or token has expired.")
				return
			}
			claims, ok := token.Claims.(*Claims)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token or token has expired.")
				return
			}
			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token or token has expired.")
				return
			}
			user, err := users.FindByID(r.Context(), userID)
			if err != nil || user == nil {
				writeAuthError(w, http.StatusUnauthorized, "The user belonging to this token no longer exists.")
				return
			}
			if claims.IssuedAt != nil && user.PasswordChangedAfter(claims.IssuedAt.Time) {
				writeAuthError(w, http.StatusUnauthorized, "User recently changed password! Please log in again.")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleAllowed is the authorization predicate behind RestrictTo.
func RoleAllowed(role string, allowed ...string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// RestrictTo gates a route to the given roles. Must run after Protect.
func RestrictTo(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
				return
			}
			if !RoleAllowed(user.Role, roles...) {
				writeAuthError(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the principal attached by Protect.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// WithUser attaches a principal to the context; used by tests and internal
// request construction.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie("jwt"); err == nil {
		return cookie.Value
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "fail",
		"message": message,
	})
}
