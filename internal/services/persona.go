package services

import (
	"context"
	"strings"

	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

type PersonaService struct {
	store repository.Store
}

func NewPersonaService(store repository.Store) *PersonaService {
	return &PersonaService{store: store}
}

func (s *PersonaService) Create(ctx context.Context, req models.CreatePersonaRequest) (*models.AiPersona, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		return nil, storeError(err, "User")
	}

	p := &models.AiPersona{
		UserID:             req.UserID,
		Name:               req.Name,
		Age:                req.Age,
		Interests:          req.Interests,
		CommunicationStyle: req.CommunicationStyle,
		AvatarURL:          req.AvatarURL,
	}
	if err := s.store.CreatePersona(ctx, p); err != nil {
		return nil, storeError(err, "Persona")
	}
	return p, nil
}

func (s *PersonaService) Get(ctx context.Context, id int64) (*models.AiPersona, error) {
	p, err := s.store.GetPersona(ctx, id)
	if err != nil {
		return nil, storeError(err, "Persona")
	}
	return p, nil
}

func (s *PersonaService) ListByUser(ctx context.Context, userID int64) ([]*models.AiPersona, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeError(err, "User")
	}
	return s.store.ListPersonasByUser(ctx, userID)
}

// Update applies a partial edit. An explicit empty name or interest list
// is rejected rather than treated as "unchanged".
func (s *PersonaService) Update(ctx context.Context, id int64, req models.UpdatePersonaRequest) (*models.AiPersona, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if req.Name != nil && *req.Name == "" {
		fields["name"] = "Must have at least 1 character"
	}
	if req.Interests != nil && len(req.Interests) == 0 {
		fields["interests"] = "Must have at least 1 item"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	p, err := s.store.UpdatePersona(ctx, id, repository.PersonaUpdate{
		Name:               req.Name,
		Age:                req.Age,
		Interests:          req.Interests,
		CommunicationStyle: req.CommunicationStyle,
		AvatarURL:          req.AvatarURL,
	})
	if err != nil {
		return nil, storeError(err, "Persona")
	}
	return p, nil
}
