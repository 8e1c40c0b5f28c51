package services

import (
	"fmt"
	"strings"

	"feynman-backend/internal/llm"
	"feynman-backend/internal/models"
)

const (
	conceptTextLimit    = 8000
	gapTextLimit        = 10000
	maxGaps             = 10
	maxQuizQuestions    = 5
	quizOptionCount     = 4
	replyHistoryLimit   = 20
	defaultReplyMessage = "I'm not sure how to respond to that."
)

var languageStyles = map[models.CommunicationStyle]string{
	models.StyleFormal: "Use proper grammar, avoid slang, and be respectful. Speak like an academically-inclined teenager.",
	models.StyleCasual: "Use casual language with occasional slang and informal expressions. Speak like a laid-back teenager.",
}

const balancedStyle = "Use a mix of proper grammar with occasional casual expressions. Speak like a typical teenager."

var stepInstructions = map[models.FeynmanStep]string{
	models.StepExplain: `You're in the EXPLAIN phase of the Feynman technique.
Try to understand the concept the human is teaching you.
Ask clarifying questions if needed.
Show your understanding by restating the concept in your own words.`,
	models.StepReview: `You're in the REVIEW phase of the Feynman technique.
Identify gaps or confusions in your understanding.
Be honest about parts you don't fully grasp.
Ask specific questions about unclear aspects.`,
	models.StepSimplify: `You're in the SIMPLIFY phase of the Feynman technique.
Restate the concept using simple, plain language.
Avoid jargon and technical terms unless absolutely necessary.
Explain the concept as if you're teaching it to a younger student.`,
	models.StepAnalogize: `You're in the ANALOGIZE phase of the Feynman technique.
Create analogies, metaphors, or examples that relate to everyday experiences.
Draw connections to things you're already familiar with.
Use concrete examples that make the abstract concept more tangible.`,
}

// PersonaPrompt builds the system prompt that keeps the model in character.
func PersonaPrompt(p *models.AiPersona, step models.FeynmanStep) string {
	style, ok := languageStyles[p.CommunicationStyle]
	if !ok {
		style = balancedStyle
	}

	interests := "You have varied interests and are curious about learning new things."
	if len(p.Interests) > 0 {
		interests = fmt.Sprintf("You're particularly interested in %s. Try to relate new concepts to these interests when possible.",
			strings.Join(p.Interests, ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a %d-year-old teenager named %s.\n", p.Age, p.Name)
	b.WriteString(interests + "\n")
	b.WriteString(style + "\n\n")
	b.WriteString("You're participating in a learning exercise where a human is teaching you a concept.\n")
	b.WriteString("Your goal is to understand and retain the information through the Feynman technique.\n\n")
	if instr, ok := stepInstructions[step]; ok {
		b.WriteString(instr + "\n\n")
	}
	b.WriteString("Remember to stay in character as a teenager. You're smart but still learning.\n")
	b.WriteString("Don't pretend to know things you haven't been taught.\n")
	b.WriteString("If something is confusing, say so and ask for clarification.\n\n")
	b.WriteString("Respond in a conversational, engaging manner while maintaining your teenage persona.")
	return b.String()
}

// Greeting is the scripted opener a persona sends when a session starts.
func Greeting(p *models.AiPersona) string {
	return fmt.Sprintf("Hey there! I'm %s, a %d-year-old who's into %s. What do you want to teach me today?",
		p.Name, p.Age, strings.Join(p.Interests, " and "))
}

func conceptsPrompt(text string) string {
	return fmt.Sprintf(`Extract and list the key concepts from the following educational material.
For each concept, provide just the name or title of the concept without explanation.
Respond with a JSON object of the form {"concepts": ["..."]}.

Material Content:
%s`, truncate(text, conceptTextLimit))
}

func gapsPrompt(materials []*models.Material, messages []*models.Message) string {
	contents := make([]string, 0, len(materials))
	for _, m := range materials {
		contents = append(contents, m.Content)
	}

	return fmt.Sprintf(`Analyze the learning materials and the teaching conversation to identify concepts that haven't been fully covered.

MATERIALS CONTENT:
%s

TEACHING CONVERSATION:
%s

For each concept in the materials, determine if it has been:
- "not_covered": Not mentioned at all in the teaching
- "partially_covered": Briefly mentioned but not fully explained
- "covered": Thoroughly explained

Respond with {"gaps": [{"concept": "...", "description": "...", "status": "..."}]}.
Focus on the most important concepts (maximum %d).`,
		truncate(strings.Join(contents, "\n\n"), gapTextLimit),
		truncate(transcript(messages), gapTextLimit),
		maxGaps)
}

func quizPrompt(messages []*models.Message, topic string) string {
	focus := ""
	if topic != "" {
		focus = fmt.Sprintf("Focus on the topic %q.\n", topic)
	}

	return fmt.Sprintf(`Generate a quiz based on the following teaching conversation.
%s
TEACHING CONVERSATION:
%s

Create %d multiple-choice questions that test understanding of the key concepts taught.
Each question should have %d options with only one correct answer.
Respond with {"questions": [{"id": "q1", "question": "...", "options": ["...", "...", "...", "..."], "correct_option": 0}]}
where correct_option is the zero-based index of the correct option.`,
		focus, truncate(transcript(messages), gapTextLimit), maxQuizQuestions, quizOptionCount)
}

// transcript renders messages as "role: content" blocks.
func transcript(messages []*models.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(parts, "\n\n")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func strictObject(properties map[string]any) map[string]any {
	required := make([]any, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

var conceptsSchema = &llm.Schema{
	Name:        "material_concepts",
	Description: "Key concepts extracted from study material",
	Definition: strictObject(map[string]any{
		"concepts": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}),
}

var gapsSchema = &llm.Schema{
	Name:        "teaching_gaps",
	Description: "Coverage of material concepts in a teaching conversation",
	Definition: strictObject(map[string]any{
		"gaps": map[string]any{
			"type": "array",
			"items": strictObject(map[string]any{
				"concept":     map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
				"status":      map[string]any{"type": "string"},
			}),
		},
	}),
}

var quizSchema = &llm.Schema{
	Name:        "teaching_quiz",
	Description: "Multiple-choice questions about a teaching conversation",
	Definition: strictObject(map[string]any{
		"questions": map[string]any{
			"type": "array",
			"items": strictObject(map[string]any{
				"id":             map[string]any{"type": "string"},
				"question":       map[string]any{"type": "string"},
				"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"correct_option": map[string]any{"type": "integer"},
			}),
		},
	}),
}
