package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/valentine-apple/vouchers-api/api"
	"github.com/valentine-apple/vouchers-api/config"
	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/models"
)

// Auth exported for testing purposes
type Auth struct {
	DB databases.UserDatabase
}

// RegisterHandler creates a new user with a bcrypt hashed password
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		config.ErrorStatus("username and password required", http.StatusBadRequest, w, errors.New("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := a.DB.FindOne(ctx, bson.M{"username": req.Username})
	if err == nil {
		config.ErrorStatus("username already exists", http.StatusBadRequest, w, errors.New("duplicate username"))
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to check username", http.StatusInternalServerError, w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Username:  req.Username,
		Password:  string(hashed),
		IsAdmin:   req.IsAdmin,
		CreatedAt: time.Now(),
	}

	if _, err := a.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "user created successfully",
		"user": models.UserResponse{
			ID:       user.ID.Hex(),
			Username: user.Username,
			IsAdmin:  user.IsAdmin,
		},
	})
}

// LoginHandler verifies credentials and issues a JWT, set both as an
// http-only cookie and in the response body
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindOne(ctx, bson.M{"username": req.Username})
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, errors.New("unknown username"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, errors.New("password mismatch"))
		return
	}

	token, err := api.GenerateToken(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		config.ErrorStatus("failed to generate token", http.StatusInternalServerError, w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(api.TokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.LoginResponse{
		Token: token,
		User: models.UserResponse{
			ID:       user.ID.Hex(),
			Username: user.Username,
			IsAdmin:  user.IsAdmin,
		},
	})
}

// LogoutHandler clears the token cookie
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageResponse{Message: "logged out"})
}
