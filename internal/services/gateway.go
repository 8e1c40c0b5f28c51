package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"feynman-backend/internal/llm"
	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
)

// AIGateway is the only caller of the LLM provider. Concept, gap and quiz
// calls never fail: provider errors and malformed output become empty
// results. Reply errors are returned so chat can tell the user.
type AIGateway struct {
	provider llm.Provider
	timeout  time.Duration
	log      *logger.Logger
	rateChan chan struct{} // Token bucket
}

func NewAIGateway(provider llm.Provider, concurrentReqs int, timeout time.Duration, log *logger.Logger) *AIGateway {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &AIGateway{
		provider: provider,
		timeout:  timeout,
		log:      log,
		rateChan: rateChan,
	}
}

// acquireRate blocks until a rate slot is available
func (g *AIGateway) acquireRate(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *AIGateway) releaseRate() {
	g.rateChan <- struct{}{}
}

func (g *AIGateway) generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := g.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer g.releaseRate()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	g.log.Debug("LLM call completed",
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (g *AIGateway) Greeting(p *models.AiPersona) string {
	return Greeting(p)
}

// Reply asks the persona to answer message, given earlier turns.
func (g *AIGateway) Reply(ctx context.Context, p *models.AiPersona, step models.FeynmanStep, history []*models.Message, message string) (string, error) {
	if len(history) > replyHistoryLimit {
		history = history[len(history)-replyHistoryLimit:]
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == models.RoleAI {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := g.generate(ctx, llm.Request{
		System:      PersonaPrompt(p, step),
		Messages:    msgs,
		MaxTokens:   800,
		Temperature: 0.7,
	})
	if err != nil {
		g.log.Warn("AI reply failed", "persona_id", p.ID, "step", step, "error", err)
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		text = defaultReplyMessage
	}
	return text, nil
}

// ExtractConcepts returns the key concept names found in text.
func (g *AIGateway) ExtractConcepts(ctx context.Context, text string) []string {
	var out struct {
		Concepts []string `json:"concepts"`
	}
	if !g.generateJSON(ctx, "extract concepts", conceptsPrompt(text), conceptsSchema, &out) {
		return []string{}
	}
	return cleanConcepts(out.Concepts)
}

// AnalyzeGaps judges how well the transcript covers the materials.
func (g *AIGateway) AnalyzeGaps(ctx context.Context, messages []*models.Message, materials []*models.Material) []GapAssessment {
	var out struct {
		Gaps []GapAssessment `json:"gaps"`
	}
	if !g.generateJSON(ctx, "analyze gaps", gapsPrompt(materials, messages), gapsSchema, &out) {
		return []GapAssessment{}
	}
	return sanitizeGaps(out.Gaps)
}

// GenerateQuiz writes multiple-choice questions from the transcript.
func (g *AIGateway) GenerateQuiz(ctx context.Context, messages []*models.Message, topic string) []models.QuizQuestion {
	var out struct {
		Questions []models.QuizQuestion `json:"questions"`
	}
	if !g.generateJSON(ctx, "generate quiz", quizPrompt(messages, topic), quizSchema, &out) {
		return []models.QuizQuestion{}
	}
	return sanitizeQuestions(out.Questions)
}

func (g *AIGateway) generateJSON(ctx context.Context, op, prompt string, schema *llm.Schema, dst interface{}) bool {
	resp, err := g.generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      schema,
		MaxTokens:   2048,
		Temperature: 0.3,
	})
	if err != nil {
		g.log.Warn("AI request failed, returning empty result", "op", op, "error", err)
		return false
	}
	if err := json.Unmarshal(resp.Content, dst); err != nil {
		g.log.Warn("AI returned malformed JSON, returning empty result", "op", op, "error", err)
		return false
	}
	return true
}

func cleanConcepts(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// sanitizeGaps drops entries without a concept or with an unknown status and
// keeps at most maxGaps.
func sanitizeGaps(in []GapAssessment) []GapAssessment {
	out := make([]GapAssessment, 0, len(in))
	for _, g := range in {
		g.Concept = strings.TrimSpace(g.Concept)
		if g.Concept == "" || !g.Status.Valid() {
			continue
		}
		out = append(out, g)
		if len(out) == maxGaps {
			break
		}
	}
	return out
}

// sanitizeQuestions keeps well-formed questions (four options, in-range
// answer), at most maxQuizQuestions, and renumbers their IDs q1, q2, ...
func sanitizeQuestions(in []models.QuizQuestion) []models.QuizQuestion {
	out := make([]models.QuizQuestion, 0, len(in))
	for _, q := range in {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != quizOptionCount {
			continue
		}
		if q.CorrectOption < 0 || q.CorrectOption >= quizOptionCount {
			continue
		}
		q.ID = fmt.Sprintf("q%d", len(out)+1)
		out = append(out, q)
		if len(out) == maxQuizQuestions {
			break
		}
	}
	return out
}
