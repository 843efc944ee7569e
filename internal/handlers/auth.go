package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"binroute-backend/internal/middleware"
	"binroute-backend/internal/models"
	"binroute-backend/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserLookup finds accounts for login
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK    bool                 `json:"ok"`
	Token string               `json:"token,omitempty"`
	User  *models.UserResponse `json:"user,omitempty"`
}

const tokenTTL = 7 * 24 * time.Hour

func Login(users UserLookup, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		log.Printf("🔐 Login attempt for: %s", req.Email)

		user, err := users.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			log.Printf("❌ User lookup failed for %s: %v", req.Email, err)
			utils.RespondJSON(w, http.StatusInternalServerError, LoginResponse{OK: false})
			return
		}
		if user == nil {
			log.Printf("❌ User not found: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		// Verify password
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			log.Printf("❌ Invalid password for: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		tokenString, err := IssueToken(user, jwtSecret, time.Now())
		if err != nil {
			log.Println("❌ Failed to create token")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		userResponse := user.ToUserResponse()
		log.Printf("✅ Login successful: %s (%s)", user.Email, user.Role)

		utils.RespondJSON(w, http.StatusOK, LoginResponse{
			OK:    true,
			Token: tokenString,
			User:  &userResponse,
		})
	}
}

// IssueToken signs an HS256 token carrying the user's ID, email and role
func IssueToken(user *models.User, jwtSecret string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(jwtSecret))
}

// GetAuthStatus echoes the authenticated user's claims
func GetAuthStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": true,
			"user":          claims,
		})
	}
}
