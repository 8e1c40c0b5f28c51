package repository

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"feynman-backend/internal/models"
)

const (
	DemoUsername = "johndoe"
	demoPassword = "password"
)

// Seed inserts the demo user and persona when the demo user is absent.
// It reports whether anything was created.
func Seed(ctx context.Context, store Store) (bool, error) {
	if _, err := store.GetUserByUsername(ctx, DemoUsername); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash demo password: %w", err)
	}

	email := "john@example.com"
	userAvatar := "https://api.dicebear.com/7.x/thumbs/svg?seed=John"
	user := &models.User{
		Username:     DemoUsername,
		PasswordHash: string(hash),
		DisplayName:  "John Doe",
		Email:        &email,
		AvatarURL:    &userAvatar,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return false, fmt.Errorf("failed to create demo user: %w", err)
	}

	personaAvatar := "https://api.dicebear.com/7.x/bottts/svg?seed=Alex"
	persona := &models.AiPersona{
		UserID:             user.ID,
		Name:               "Alex",
		Age:                16,
		Interests:          []string{"Science", "Gaming"},
		CommunicationStyle: models.StyleBalanced,
		AvatarURL:          &personaAvatar,
	}
	if err := store.CreatePersona(ctx, persona); err != nil {
		return false, fmt.Errorf("failed to create demo persona: %w", err)
	}
	return true, nil
}
