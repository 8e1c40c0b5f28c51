package services

import (
	"context"
	"fmt"
	"strings"

	"feynman-backend/internal/models"
)

type canonicalConcept struct {
	name        string
	description string
	primary     []string
	detail      []string
}

type subjectDomain struct {
	name     string
	keywords []string
	concepts []canonicalConcept
	question models.QuizQuestion
}

var subjectDomains = []subjectDomain{
	{
		name:     "physics",
		keywords: []string{"physics", "newton", "force", "motion", "velocity", "acceleration", "gravity", "energy", "f=ma"},
		concepts: []canonicalConcept{
			{
				name:        "Newton's Laws of Motion",
				description: "How forces change the motion of objects, starting with inertia.",
				primary:     []string{"newton"},
				detail:      []string{"inertia", "f=ma", "action and reaction", "equal and opposite"},
			},
			{
				name:        "Newton's Second Law",
				description: "The relationship between force, mass and acceleration: F = ma",
				primary:     []string{"second law", "f=ma", "f = ma"},
				detail:      []string{"acceleration", "mass"},
			},
			{
				name:        "Newton's Third Law",
				description: "For every action, there is an equal and opposite reaction.",
				primary:     []string{"third law", "equal and opposite", "action and reaction"},
				detail:      []string{"reaction force", "pair"},
			},
			{
				name:        "Forces and Balance",
				description: "Balanced forces leave motion unchanged; a net force changes it.",
				primary:     []string{"force"},
				detail:      []string{"balanced", "net force"},
			},
			{
				name:        "Energy Conservation",
				description: "Energy changes form but the total amount stays the same.",
				primary:     []string{"energy"},
				detail:      []string{"conserv", "kinetic", "potential"},
			},
		},
		question: models.QuizQuestion{
			Question: "Which of the following best describes Newton's First Law?",
			Options: []string{
				"Objects in motion stay in motion forever.",
				"Force equals mass times acceleration.",
				"An object will remain at rest or in motion unless acted upon by a force.",
				"For every action, there is an equal and opposite reaction.",
			},
			CorrectOption: 2,
		},
	},
	{
		name:     "math",
		keywords: []string{"math", "equation", "algebra", "calculus", "derivative", "integral"},
		concepts: []canonicalConcept{
			{
				name:        "Equations and Variables",
				description: "Using variables to state relationships and solving for unknowns.",
				primary:     []string{"equation"},
				detail:      []string{"variable", "solve"},
			},
			{
				name:        "Derivatives",
				description: "The instantaneous rate of change of a function.",
				primary:     []string{"derivative"},
				detail:      []string{"rate of change", "slope"},
			},
			{
				name:        "Integrals",
				description: "Accumulating quantities, such as the area under a curve.",
				primary:     []string{"integral"},
				detail:      []string{"area", "accumul"},
			},
		},
		question: models.QuizQuestion{
			Question: "What does the derivative of a function describe?",
			Options: []string{
				"The area under the curve",
				"The instantaneous rate of change",
				"The largest value of the function",
				"Where the graph crosses the y-axis",
			},
			CorrectOption: 1,
		},
	},
	{
		name:     "programming",
		keywords: []string{"programming", "code", "coding", "algorithm", "software", "recursion", "loop", "python", "javascript"},
		concepts: []canonicalConcept{
			{
				name:        "Functions",
				description: "Named blocks of code that take inputs and return results.",
				primary:     []string{"function"},
				detail:      []string{"parameter", "argument", "return"},
			},
			{
				name:        "Loops",
				description: "Repeating a block of code while a condition holds.",
				primary:     []string{"loop"},
				detail:      []string{"iterat", "condition"},
			},
			{
				name:        "Recursion",
				description: "A function solving a problem by calling itself on smaller inputs.",
				primary:     []string{"recursion", "recursive"},
				detail:      []string{"base case"},
			},
		},
		question: models.QuizQuestion{
			Question: "What is recursion?",
			Options: []string{
				"A loop that never ends",
				"A function that calls itself",
				"A variable that changes type",
				"A way to sort arrays",
			},
			CorrectOption: 1,
		},
	},
	{
		name:     "biology",
		keywords: []string{"biology", "cell", "mitochondria", "dna", "gene", "organism", "photosynthesis"},
		concepts: []canonicalConcept{
			{
				name:        "Cell Structure",
				description: "The parts of a cell and what each one does.",
				primary:     []string{"cell"},
				detail:      []string{"membrane", "nucleus", "organelle"},
			},
			{
				name:        "Mitochondria and Energy",
				description: "How mitochondria turn nutrients into usable energy (ATP).",
				primary:     []string{"mitochondria"},
				detail:      []string{"atp", "powerhouse", "respiration"},
			},
			{
				name:        "DNA and Genetics",
				description: "How genetic information is stored and passed on.",
				primary:     []string{"dna", "gene"},
				detail:      []string{"chromosome", "heredit", "base pair"},
			},
		},
		question: models.QuizQuestion{
			Question:      "Which organelle is known as the powerhouse of the cell?",
			Options:       []string{"Nucleus", "Ribosome", "Mitochondria", "Golgi apparatus"},
			CorrectOption: 2,
		},
	},
}

var genericGap = GapAssessment{
	Concept:     "Core Principles",
	Description: "The foundational ideas of the topic you are teaching.",
	Status:      models.GapNotCovered,
}

var genericQuestion = models.QuizQuestion{
	Question: "What is the main idea behind the Feynman technique?",
	Options: []string{
		"Memorizing definitions word for word",
		"Explaining a concept in simple terms to find gaps in your understanding",
		"Reading the material several times",
		"Taking as many practice exams as possible",
	},
	CorrectOption: 1,
}

// HeuristicAnalyzer answers with keyword tables instead of a model.
type HeuristicAnalyzer struct{}

func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// ExtractConcepts lists the canonical concepts of every subject mentioned.
func (HeuristicAnalyzer) ExtractConcepts(_ context.Context, text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, d := range matchDomains(lower) {
		for _, c := range d.concepts {
			out = append(out, c.name)
		}
	}
	return out
}

// AnalyzeGaps detects subjects in the materials and transcript, then rates
// each canonical concept against the transcript alone.
func (HeuristicAnalyzer) AnalyzeGaps(_ context.Context, messages []*models.Message, materials []*models.Material) []GapAssessment {
	said := strings.ToLower(transcript(messages))

	var all strings.Builder
	for _, m := range materials {
		all.WriteString(strings.ToLower(m.Content))
		all.WriteString("\n")
	}
	all.WriteString(said)

	domains := matchDomains(all.String())
	if len(domains) == 0 {
		return []GapAssessment{genericGap}
	}

	out := []GapAssessment{}
	for _, d := range domains {
		for _, c := range d.concepts {
			out = append(out, GapAssessment{
				Concept:     c.name,
				Description: c.description,
				Status:      coverage(said, c),
			})
			if len(out) == maxGaps {
				return out
			}
		}
	}
	return out
}

// GenerateQuiz picks one prepared question per subject found in the
// transcript or topic.
func (HeuristicAnalyzer) GenerateQuiz(_ context.Context, messages []*models.Message, topic string) []models.QuizQuestion {
	text := strings.ToLower(transcript(messages) + "\n" + topic)

	questions := []models.QuizQuestion{}
	for _, d := range matchDomains(text) {
		questions = append(questions, copyQuestion(d.question))
	}
	if len(questions) == 0 {
		questions = append(questions, copyQuestion(genericQuestion))
	}
	for i := range questions {
		questions[i].ID = fmt.Sprintf("q%d", i+1)
	}
	return questions
}

func matchDomains(lower string) []subjectDomain {
	var out []subjectDomain
	for _, d := range subjectDomains {
		if containsAny(lower, d.keywords) {
			out = append(out, d)
		}
	}
	return out
}

func coverage(said string, c canonicalConcept) models.GapStatus {
	switch {
	case !containsAny(said, c.primary):
		return models.GapNotCovered
	case !containsAny(said, c.detail):
		return models.GapPartiallyCovered
	}
	return models.GapCovered
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if containsWord(s, n) {
			return true
		}
	}
	return false
}

// containsWord reports whether kw occurs in s at the start of a word.
// Keywords match as prefixes, so "cell" finds "cells" but not "excellent".
func containsWord(s, kw string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], kw)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 || !isWordByte(s[at-1]) {
			return true
		}
		i = at + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

func copyQuestion(q models.QuizQuestion) models.QuizQuestion {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// HeuristicResponder plays the persona with canned replies when no model is
// configured.
type HeuristicResponder struct{}

func NewHeuristicResponder() *HeuristicResponder {
	return &HeuristicResponder{}
}

func (HeuristicResponder) Greeting(p *models.AiPersona) string {
	return Greeting(p)
}

func (HeuristicResponder) Reply(_ context.Context, _ *models.AiPersona, _ models.FeynmanStep, _ []*models.Message, message string) (string, error) {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "newton") && strings.Contains(lower, "law"):
		return "Oh cool, physics! So Newton's first law of motion is also called the law of inertia. Basically, it means that an object will stay at rest or keep moving at the same speed and direction unless a force acts on it.\n\n" +
			"Like if you have a ball sitting on the ground, it'll just stay there until you kick it or something. And if you're cruising on a skateboard, you'll keep going until you hit a rock or push your foot down to stop.", nil
	case strings.Contains(lower, "forces") && strings.Contains(lower, "balanced"):
		return "Oh, you're right! I totally missed that part. So Newton's first law also talks about balanced forces.\n\n" +
			"When an object is at rest, it means all the forces acting on it are balanced or cancel each other out. Like a book on a table - gravity pulls it down, but the table pushes up with an equal force.\n\n" +
			"And when an object is moving with constant velocity (same speed and direction), the forces are also balanced. That's why if you're in a car moving at constant speed on a straight road, you don't feel like you're being pushed or pulled.", nil
	case strings.Contains(lower, "teach"):
		return "I'd love to learn about that! Can you start by explaining the basic concept? I learn best when people start with the fundamentals and then build up to more complex ideas. I'm all ears!", nil
	}
	return fmt.Sprintf("Thanks for teaching me about that! Let me see if I understand: %s... That's really interesting. Could you explain more about how this works?",
		truncate(message, 30)), nil
}
