package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserContextKey contextKey = "user"

type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// ParseToken validates an HS256 token and extracts the user claims
func ParseToken(tokenString, jwtSecret string) (UserClaims, error) {
	if jwtSecret == "" {
		return UserClaims{}, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return UserClaims{}, err
	}
	if !token.Valid {
		return UserClaims{}, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		return UserClaims{}, errors.New("token is missing user_id or role")
	}

	return UserClaims{UserID: userID, Email: email, Role: role}, nil
}

// Auth middleware validates JWT token and adds user claims to context
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("❌ No authorization header: %s %s", r.Method, r.URL.Path)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Extract Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Printf("❌ Invalid authorization header format (parts: %d)", len(parts))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userClaims, err := ParseToken(parts[1], jwtSecret)
			if err != nil {
				log.Printf("❌ Invalid token: %v", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			log.Printf("🔐 Authenticated: %s (%s) %s %s", userClaims.Email, userClaims.Role, r.Method, r.URL.Path)

			// Add claims to context
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userClaims)))
		})
	}
}

// RequireRole middleware checks if user has one of the allowed roles (must be used after Auth)
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
			if !ok {
				log.Println("❌ User claims not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if userClaims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Printf("❌ Insufficient permissions: required %v, got %s", roles, userClaims.Role)
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
	return userClaims, ok
}

// WithUser returns a copy of ctx carrying the claims
func WithUser(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
