package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/valentine-apple/vouchers-api/api/handlers"
	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/databases/mocks"
	"github.com/valentine-apple/vouchers-api/models"
)

func TestAuth_RegisterHandlerSuccess(t *testing.T) {
	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var singleResult mocks.SingleResultHelper

	singleResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(&singleResult)

	var created models.User
	collectionHelper.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		created = args.Get(1).(models.User)
	})
	dbHelper.On("Collection", "users").Return(&collectionHelper)

	a := handlers.Auth{DB: databases.NewUserDatabase(&dbHelper)}

	body := []byte(`{"username": "apple", "password": "sweetheart"}`)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.RegisterHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "apple", created.Username)
	assert.NotEqual(t, "sweetheart", created.Password, "password must never be stored in plaintext")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("sweetheart")))
}

func TestAuth_RegisterHandlerDuplicateUsername(t *testing.T) {
	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var singleResult mocks.SingleResultHelper

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		**arg = models.User{ID: primitive.NewObjectID(), Username: "apple"}
	})
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(&singleResult)
	dbHelper.On("Collection", "users").Return(&collectionHelper)

	a := handlers.Auth{DB: databases.NewUserDatabase(&dbHelper)}

	body := []byte(`{"username": "apple", "password": "sweetheart"}`)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.RegisterHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `{"response": "username already exists, duplicate username"}`, rr.Body.String())
}

func TestAuth_RegisterHandlerMissingCredentials(t *testing.T) {
	a := handlers.Auth{}

	body := []byte(`{"username": "   ", "password": ""}`)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.RegisterHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `{"response": "username and password required, missing credentials"}`, rr.Body.String())
}

func TestAuth_LoginHandlerSuccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := primitive.NewObjectID()
	hashed, err := bcrypt.GenerateFromPassword([]byte("sweetheart"), bcrypt.MinCost)
	require.NoError(t, err)

	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var singleResult mocks.SingleResultHelper

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		**arg = models.User{ID: userID, Username: "apple", Password: string(hashed), IsAdmin: true}
	})
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(&singleResult)
	dbHelper.On("Collection", "users").Return(&collectionHelper)

	a := handlers.Auth{DB: databases.NewUserDatabase(&dbHelper)}

	body := []byte(`{"username": "apple", "password": "sweetheart"}`)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.LoginHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, userID.Hex(), resp.User.ID)
	assert.True(t, resp.User.IsAdmin)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuth_LoginHandlerWrongPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("sweetheart"), bcrypt.MinCost)
	require.NoError(t, err)

	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var singleResult mocks.SingleResultHelper

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		**arg = models.User{ID: primitive.NewObjectID(), Username: "apple", Password: string(hashed)}
	})
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(&singleResult)
	dbHelper.On("Collection", "users").Return(&collectionHelper)

	a := handlers.Auth{DB: databases.NewUserDatabase(&dbHelper)}

	body := []byte(`{"username": "apple", "password": "guess"}`)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.LoginHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, `{"response": "invalid credentials, password mismatch"}`, rr.Body.String())
}

func TestAuth_LogoutHandlerClearsCookie(t *testing.T) {
	a := handlers.Auth{}

	req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.LogoutHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
