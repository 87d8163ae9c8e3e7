package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// TokenCookieName is the cookie the frontend stores the JWT under
const TokenCookieName = "token"

// TokenTTL is how long an issued token stays valid
const TokenTTL = 7 * 24 * time.Hour

// Middleware verifies the JWT from the token cookie or the Authorization
// header and stashes the resolved identity in the request context. Handlers
// receive the identity as an explicit value, never from session state.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ident, err := authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("user %s authenticated", ident.UserID)
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), ident)))
	})
}

// AdminOnly wraps Middleware and additionally requires the isAdmin claim
func AdminOnly(next http.Handler) http.Handler {
	return Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFromContext(r.Context())
		if !ok || !ident.IsAdmin {
			zap.S().Warnw("admin route denied",
				"url", r.URL,
				"userId", ident.UserID)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized - admin only"}`))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// ContextWithIdentity returns a child context carrying the identity
func ContextWithIdentity(ctx context.Context, ident models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, ident)
}

// IdentityFromContext extracts the authenticated identity set by Middleware
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityContextKey).(models.Identity)
	return ident, ok
}

// GenerateToken signs a JWT carrying the user id and admin flag
func GenerateToken(userID string, isAdmin bool) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	claims := jwt.MapClaims{
		"userId":  userID,
		"isAdmin": isAdmin,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func authenticate(r *http.Request) (models.Identity, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return models.Identity{}, fmt.Errorf("no token provided")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil {
		return models.Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, fmt.Errorf("invalid token")
	}

	userID, _ := claims["userId"].(string)
	if userID == "" {
		return models.Identity{}, fmt.Errorf("token missing userId claim")
	}
	isAdmin, _ := claims["isAdmin"].(bool)

	return models.Identity{UserID: userID, IsAdmin: isAdmin}, nil
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
