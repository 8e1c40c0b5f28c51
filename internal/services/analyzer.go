package services

import (
	"context"

	"feynman-backend/internal/models"
)

// GapAssessment is one concept's coverage verdict before it is stored.
type GapAssessment struct {
	Concept     string           `json:"concept"`
	Description string           `json:"description"`
	Status      models.GapStatus `json:"status"`
}

// ContentAnalyzer reads materials and transcripts. Implementations never
// fail; when they cannot answer they return empty results.
type ContentAnalyzer interface {
	ExtractConcepts(ctx context.Context, text string) []string
	AnalyzeGaps(ctx context.Context, messages []*models.Message, materials []*models.Material) []GapAssessment
	GenerateQuiz(ctx context.Context, messages []*models.Message, topic string) []models.QuizQuestion
}

// Responder produces the persona's side of the conversation.
type Responder interface {
	Greeting(p *models.AiPersona) string
	Reply(ctx context.Context, p *models.AiPersona, step models.FeynmanStep, history []*models.Message, message string) (string, error)
}

// DelegatedAnalyzer hands every analysis to the AI gateway.
type DelegatedAnalyzer struct {
	gateway *AIGateway
}

func NewDelegatedAnalyzer(gateway *AIGateway) *DelegatedAnalyzer {
	return &DelegatedAnalyzer{gateway: gateway}
}

func (a *DelegatedAnalyzer) ExtractConcepts(ctx context.Context, text string) []string {
	return a.gateway.ExtractConcepts(ctx, text)
}

func (a *DelegatedAnalyzer) AnalyzeGaps(ctx context.Context, messages []*models.Message, materials []*models.Material) []GapAssessment {
	return a.gateway.AnalyzeGaps(ctx, messages, materials)
}

func (a *DelegatedAnalyzer) GenerateQuiz(ctx context.Context, messages []*models.Message, topic string) []models.QuizQuestion {
	return a.gateway.GenerateQuiz(ctx, messages, topic)
}

var (
	_ ContentAnalyzer = (*DelegatedAnalyzer)(nil)
	_ ContentAnalyzer = (*HeuristicAnalyzer)(nil)
	_ Responder       = (*AIGateway)(nil)
	_ Responder       = (*HeuristicResponder)(nil)
)
