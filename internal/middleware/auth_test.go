package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": "u-1",
		"email":   "driver@binroute.dev",
		"role":    "driver",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func TestParseToken(t *testing.T) {
	good := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())
	claims, err := ParseToken(good, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "driver" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := ParseToken(good, "other-secret"); err == nil {
		t.Fatalf("token accepted with the wrong secret")
	}
	if _, err := ParseToken(good, ""); err == nil {
		t.Fatalf("token accepted without a secret")
	}

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	if _, err := ParseToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired), testSecret); err == nil {
		t.Fatalf("expired token accepted")
	}

	noRole := validClaims()
	delete(noRole, "role")
	if _, err := ParseToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noRole), testSecret); err == nil {
		t.Fatalf("token without role accepted")
	}
}

func TestAuthAndRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, found := GetUserFromContext(r)
		if !found {
			t.Errorf("claims missing from context")
		}
		w.Write([]byte(claims.Role))
	})
	handler := Auth(testSecret)(RequireRole("admin", "driver")(ok))
	adminOnly := Auth(testSecret)(RequireRole("admin")(ok))

	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	tests := []struct {
		name   string
		h      http.Handler
		header string
		want   int
	}{
		{"no header", handler, "", http.StatusUnauthorized},
		{"not bearer", handler, "Token " + token, http.StatusUnauthorized},
		{"bad token", handler, "Bearer nope", http.StatusUnauthorized},
		{"allowed role", handler, "Bearer " + token, http.StatusOK},
		{"forbidden role", adminOnly, "Bearer " + token, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/routes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
