package services

import (
	"context"
	"errors"
	"fmt"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
)

type GapService struct {
	store     repository.Store
	analyzer  ContentAnalyzer
	publisher Publisher
	log       *logger.Logger
}

func NewGapService(store repository.Store, analyzer ContentAnalyzer, publisher Publisher, log *logger.Logger) *GapService {
	return &GapService{
		store:     store,
		analyzer:  analyzer,
		publisher: publisherOrNop(publisher),
		log:       log,
	}
}

// AnalyzeGaps compares the session transcript with the chosen materials
// and appends the verdicts as new gaps. Earlier gaps are left alone, so the
// same concept may appear more than once. Unknown material IDs and materials
// of other users are skipped; an empty list means the session's materials.
func (s *GapService) AnalyzeGaps(ctx context.Context, req models.AnalyzeGapsRequest) ([]*models.Gap, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	sess, err := s.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	messages, err := s.store.ListMessagesBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	var materials []*models.Material
	if len(req.MaterialIDs) == 0 {
		if materials, err = s.store.ListMaterialsBySession(ctx, sess.ID); err != nil {
			return nil, err
		}
	}
	for _, id := range req.MaterialIDs {
		m, err := s.store.GetMaterial(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debug("Skipping missing material in gap analysis", "material_id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if m.UserID != sess.UserID {
			continue
		}
		materials = append(materials, m)
	}

	assessments := s.analyzer.AnalyzeGaps(ctx, messages, materials)
	if len(assessments) > maxGaps {
		assessments = assessments[:maxGaps]
	}

	gaps := make([]*models.Gap, 0, len(assessments))
	for _, a := range assessments {
		g := &models.Gap{
			SessionID:   sess.ID,
			Concept:     a.Concept,
			Description: a.Description,
			Status:      a.Status,
		}
		if err := s.store.CreateGap(ctx, g); err != nil {
			return nil, fmt.Errorf("failed to save gap: %w", storeError(err, "Gap"))
		}
		gaps = append(gaps, g)
	}

	s.log.Info("Gap analysis completed", "session_id", sess.ID, "materials", len(materials), "gaps", len(gaps))
	return gaps, nil
}

func (s *GapService) List(ctx context.Context, sessionID int64) ([]*models.Gap, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, storeError(err, "Session")
	}
	return s.store.ListGapsBySession(ctx, sessionID)
}

// TeachConcept marks every gap named exactly req.Concept as covered and
// asks the client to refocus teaching on it. Already covered gaps are not
// rewritten.
func (s *GapService) TeachConcept(ctx context.Context, req models.TeachConceptRequest) (*models.TeachConceptResult, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	sess, err := s.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	gaps, err := s.store.ListGapsBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	matched := []*models.Gap{}
	for _, g := range gaps {
		if g.Concept != req.Concept {
			continue
		}
		if g.Status != models.GapCovered {
			if g, err = s.store.UpdateGapStatus(ctx, g.ID, models.GapCovered); err != nil {
				return nil, storeError(err, "Gap")
			}
		}
		matched = append(matched, g)
	}
	if len(matched) == 0 {
		return nil, &NotFoundError{Message: fmt.Sprintf("No gap named %q in this session", req.Concept)}
	}

	s.publisher.Publish(ctx, sess.UserID, models.WSMessage{
		Type:    models.EventRefocusConcept,
		Payload: models.RefocusConceptEvent{SessionID: sess.ID, Concept: req.Concept},
	})

	return &models.TeachConceptResult{
		Gaps: matched,
		Notice: &models.Notice{
			Title:       "Concept Selected",
			Description: "Let's teach about: " + req.Concept,
		},
	}, nil
}
