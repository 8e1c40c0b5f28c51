package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feynman-backend/internal/middleware"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

func TestUserService_CreateAndLogin(t *testing.T) {
	store := repository.NewMemoryStore()
	jwt := middleware.NewJWTAuth("test-secret")
	svc := NewUserService(store, jwt)
	ctx := context.Background()

	user, err := svc.Create(ctx, models.CreateUserRequest{Username: "  ada  ", Password: "lovelace", DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.NotEqual(t, "lovelace", user.PasswordHash)

	tokens, err := svc.Login(ctx, models.LoginRequest{Username: "ada", Password: "lovelace"})
	require.NoError(t, err)
	assert.Equal(t, 86400, tokens.ExpiresIn)
	assert.Equal(t, user.ID, tokens.User.ID)

	id, err := jwt.ParseToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestUserService_DuplicateUsername(t *testing.T) {
	svc := NewUserService(repository.NewMemoryStore(), middleware.NewJWTAuth("s"))
	ctx := context.Background()
	req := models.CreateUserRequest{Username: "ada", Password: "lovelace", DisplayName: "Ada"}

	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Username already taken", conflict.Message)
}

func TestUserService_LoginFailures(t *testing.T) {
	svc := NewUserService(repository.NewMemoryStore(), middleware.NewJWTAuth("s"))
	ctx := context.Background()
	_, err := svc.Create(ctx, models.CreateUserRequest{Username: "ada", Password: "lovelace", DisplayName: "Ada"})
	require.NoError(t, err)

	var unauth *UnauthorizedError
	_, err = svc.Login(ctx, models.LoginRequest{Username: "ada", Password: "wrong"})
	require.ErrorAs(t, err, &unauth)
	_, err = svc.Login(ctx, models.LoginRequest{Username: "nobody", Password: "lovelace"})
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "Invalid username or password", unauth.Message)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := NewUserService(repository.NewMemoryStore(), middleware.NewJWTAuth("s"))
	bad := "not-an-email"

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Username: "ab", Password: "123", Email: &bad})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Must have at least 3 characters", verr.Fields["username"])
	assert.Equal(t, "Must have at least 6 characters", verr.Fields["password"])
	assert.Equal(t, "This field is required", verr.Fields["display_name"])
	assert.Equal(t, "Invalid email format", verr.Fields["email"])
}

func TestSeededDemoUserCanLogIn(t *testing.T) {
	store := repository.NewMemoryStore()
	created, err := repository.Seed(context.Background(), store)
	require.NoError(t, err)
	require.True(t, created)

	svc := NewUserService(store, middleware.NewJWTAuth("s"))
	tokens, err := svc.Login(context.Background(), models.LoginRequest{Username: repository.DemoUsername, Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", tokens.User.DisplayName)
}
