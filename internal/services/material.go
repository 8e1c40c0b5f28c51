package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

// ConceptQueue defers concept extraction to background workers.
type ConceptQueue interface {
	EnqueueConceptExtraction(ctx context.Context, userID, materialID int64) error
}

// UploadedFile is one file from a multipart upload.
type UploadedFile struct {
	Name    string
	Content []byte
}

type MaterialService struct {
	store     repository.Store
	analyzer  ContentAnalyzer
	queue     ConceptQueue
	publisher Publisher
	log       *logger.Logger
}

// NewMaterialService wires the service. A nil queue runs extraction inline.
func NewMaterialService(store repository.Store, analyzer ContentAnalyzer, queue ConceptQueue, publisher Publisher, log *logger.Logger) *MaterialService {
	return &MaterialService{
		store:     store,
		analyzer:  analyzer,
		queue:     queue,
		publisher: publisherOrNop(publisher),
		log:       log,
	}
}

// ClassifyMaterialType maps a file name to a material type by extension.
func ClassifyMaterialType(name string) models.MaterialType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.MaterialPDF
	case ".docx":
		return models.MaterialDocx
	case ".ppt", ".pptx":
		return models.MaterialPPT
	}
	return models.MaterialText
}

func (s *MaterialService) Create(ctx context.Context, req models.CreateMaterialRequest) (*models.Material, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, req.UserID, req.SessionID); err != nil {
		return nil, err
	}

	typ := ClassifyMaterialType(req.Name)
	if req.Type != nil {
		typ = *req.Type
	}
	return s.create(ctx, req.UserID, req.SessionID, req.Name, typ, req.Content)
}

// Upload stores every file as text and triggers concept extraction for each.
func (s *MaterialService) Upload(ctx context.Context, userID int64, sessionID *int64, files []UploadedFile) ([]*models.Material, error) {
	if len(files) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"files": "At least one file is required"}}
	}
	if err := s.checkOwner(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	out := make([]*models.Material, 0, len(files))
	for _, f := range files {
		name := filepath.Base(f.Name)
		m, err := s.create(ctx, userID, sessionID, name, ClassifyMaterialType(name), string(f.Content))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *MaterialService) checkOwner(ctx context.Context, userID int64, sessionID *int64) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return storeError(err, "User")
	}
	if sessionID == nil {
		return nil
	}
	sess, err := s.store.GetSession(ctx, *sessionID)
	if err != nil {
		return storeError(err, "Session")
	}
	if sess.UserID != userID {
		return &ValidationError{Fields: map[string]string{"session_id": "Session does not belong to this user"}}
	}
	return nil
}

func (s *MaterialService) create(ctx context.Context, userID int64, sessionID *int64, name string, typ models.MaterialType, content string) (*models.Material, error) {
	m := &models.Material{
		UserID:    userID,
		SessionID: sessionID,
		Name:      name,
		Type:      typ,
		Content:   storableText(content),
	}
	if err := s.store.CreateMaterial(ctx, m); err != nil {
		return nil, storeError(err, "Material")
	}

	if s.queue != nil {
		err := s.queue.EnqueueConceptExtraction(ctx, userID, m.ID)
		if err == nil {
			return m, nil
		}
		s.log.Warn("Failed to queue concept extraction, running inline", "material_id", m.ID, "error", err)
	}

	analyzed, err := s.ProcessConceptExtraction(ctx, m.ID)
	if err != nil {
		// The material exists without concepts; that state is allowed.
		s.log.Error("Concept extraction failed", "material_id", m.ID, "error", err)
		return m, nil
	}
	return analyzed, nil
}

// ProcessConceptExtraction runs extraction for a stored material, saves the
// result and notifies the owner.
func (s *MaterialService) ProcessConceptExtraction(ctx context.Context, materialID int64) (*models.Material, error) {
	m, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, storeError(err, "Material")
	}

	concepts := s.analyzer.ExtractConcepts(ctx, m.Content)
	if concepts == nil {
		concepts = []string{}
	}

	updated, err := s.store.UpdateMaterialConcepts(ctx, materialID, concepts)
	if err != nil {
		return nil, fmt.Errorf("failed to save concepts: %w", err)
	}

	s.publisher.Publish(ctx, updated.UserID, models.WSMessage{
		Type: models.EventMaterialAnalyzed,
		Payload: models.MaterialAnalyzedEvent{
			MaterialID: updated.ID,
			Concepts:   updated.ExtractedConcepts,
		},
	})
	return updated, nil
}

func (s *MaterialService) Get(ctx context.Context, id int64) (*models.Material, error) {
	m, err := s.store.GetMaterial(ctx, id)
	if err != nil {
		return nil, storeError(err, "Material")
	}
	return m, nil
}

// List returns a session's materials when sessionID is set, otherwise the
// user's.
func (s *MaterialService) List(ctx context.Context, userID int64, sessionID *int64) ([]*models.Material, error) {
	if sessionID != nil {
		if _, err := s.store.GetSession(ctx, *sessionID); err != nil {
			return nil, storeError(err, "Session")
		}
		return s.store.ListMaterialsBySession(ctx, *sessionID)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeError(err, "User")
	}
	return s.store.ListMaterialsByUser(ctx, userID)
}

// storableText makes uploaded bytes safe for a TEXT column: invalid UTF-8
// becomes U+FFFD and NUL bytes, which Postgres rejects, are dropped.
func storableText(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, "\uFFFD"), "\x00", "")
}
