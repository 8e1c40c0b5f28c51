package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feynman-backend/internal/models"
)

func (f *fixture) addMaterial(t *testing.T, userID int64, sessionID *int64, content string) *models.Material {
	t.Helper()
	m := &models.Material{UserID: userID, SessionID: sessionID, Name: "notes.txt", Type: models.MaterialText, Content: content}
	require.NoError(t, f.store.CreateMaterial(context.Background(), m))
	return m
}

func gapsByConcept(gaps []*models.Gap) map[string]models.GapStatus {
	out := make(map[string]models.GapStatus, len(gaps))
	for _, g := range gaps {
		out[g.Concept] = g.Status
	}
	return out
}

func TestAnalyzeGaps_HeuristicNewtonCoverage(t *testing.T) {
	f := newFixture(t)
	m := f.addMaterial(t, f.user.ID, &f.session.ID, "Newton's laws of motion cover inertia, F=ma and action and reaction.")
	f.addMessage(t, models.RoleUser, "Newton's first law says an object stays at rest unless a force acts on it.", nil)

	svc := NewGapService(f.store, NewHeuristicAnalyzer(), nil, nop)
	gaps, err := svc.AnalyzeGaps(context.Background(), models.AnalyzeGapsRequest{SessionID: f.session.ID, MaterialIDs: []int64{m.ID}})
	require.NoError(t, err)

	byConcept := gapsByConcept(gaps)
	assert.Equal(t, models.GapPartiallyCovered, byConcept["Newton's Laws of Motion"])
	assert.Equal(t, models.GapNotCovered, byConcept["Newton's Second Law"])
	assert.Equal(t, models.GapNotCovered, byConcept["Energy Conservation"])
	for _, g := range gaps {
		assert.Equal(t, f.session.ID, g.SessionID)
		assert.NotZero(t, g.ID)
	}

	stored, err := svc.List(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Len(t, stored, len(gaps))
}

func TestAnalyzeGaps_DefaultsToSessionMaterials(t *testing.T) {
	f := newFixture(t)
	f.addMaterial(t, f.user.ID, &f.session.ID, "Mitochondria produce ATP for the cell.")

	svc := NewGapService(f.store, NewHeuristicAnalyzer(), nil, nop)
	gaps, err := svc.AnalyzeGaps(context.Background(), models.AnalyzeGapsRequest{SessionID: f.session.ID})
	require.NoError(t, err)

	byConcept := gapsByConcept(gaps)
	assert.Contains(t, byConcept, "Mitochondria and Energy")
	assert.Equal(t, models.GapNotCovered, byConcept["Cell Structure"])
}

func TestAnalyzeGaps_SkipsMissingAndForeignMaterials(t *testing.T) {
	f := newFixture(t)
	other := &models.User{Username: "other", DisplayName: "Other"}
	require.NoError(t, f.store.CreateUser(context.Background(), other))
	foreign := f.addMaterial(t, other.ID, nil, "Recursion and loops in python")

	svc := NewGapService(f.store, NewHeuristicAnalyzer(), nil, nop)
	gaps, err := svc.AnalyzeGaps(context.Background(), models.AnalyzeGapsRequest{
		SessionID:   f.session.ID,
		MaterialIDs: []int64{foreign.ID, 999},
	})
	require.NoError(t, err)

	require.Len(t, gaps, 1)
	assert.Equal(t, "Core Principles", gaps[0].Concept)
}

func TestAnalyzeGaps_AppendsOnRerun(t *testing.T) {
	f := newFixture(t)
	svc := NewGapService(f.store, NewHeuristicAnalyzer(), nil, nop)
	req := models.AnalyzeGapsRequest{SessionID: f.session.ID}

	_, err := svc.AnalyzeGaps(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.AnalyzeGaps(context.Background(), req)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTeachConcept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, c := range []string{"Inertia", "Momentum", "Inertia"} {
		require.NoError(t, f.store.CreateGap(ctx, &models.Gap{SessionID: f.session.ID, Concept: c, Status: models.GapNotCovered}))
	}
	pub := &recordingPublisher{}
	svc := NewGapService(f.store, NewHeuristicAnalyzer(), pub, nop)

	got, err := svc.TeachConcept(ctx, models.TeachConceptRequest{SessionID: f.session.ID, Concept: "Inertia"})
	require.NoError(t, err)

	require.Len(t, got.Gaps, 2)
	for _, g := range got.Gaps {
		assert.Equal(t, models.GapCovered, g.Status)
	}
	assert.Equal(t, "Concept Selected", got.Notice.Title)
	assert.Equal(t, "Let's teach about: Inertia", got.Notice.Description)
	assert.Equal(t, []string{models.EventRefocusConcept}, pub.types())

	all, err := svc.List(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GapCovered, all[0].Status)
	assert.Equal(t, models.GapNotCovered, all[1].Status)
	assert.Equal(t, models.GapCovered, all[2].Status)
}

func TestTeachConcept_CoveredGapIsNotRewritten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gap := &models.Gap{SessionID: f.session.ID, Concept: "Inertia", Status: models.GapCovered}
	require.NoError(t, f.store.CreateGap(ctx, gap))
	svc := NewGapService(f.store, NewHeuristicAnalyzer(), nil, nop)

	got, err := svc.TeachConcept(ctx, models.TeachConceptRequest{SessionID: f.session.ID, Concept: "Inertia"})
	require.NoError(t, err)
	require.Len(t, got.Gaps, 1)
	assert.True(t, got.Gaps[0].UpdatedAt.Equal(gap.UpdatedAt))
}

func TestTeachConcept_UnknownConcept(t *testing.T) {
	f := newFixture(t)
	svc := NewGapService(f.store, NewHeuristicAnalyzer(), nil, nop)

	_, err := svc.TeachConcept(context.Background(), models.TeachConceptRequest{SessionID: f.session.ID, Concept: "Entropy"})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestHeuristicAnalyzer_ExtractConcepts(t *testing.T) {
	a := NewHeuristicAnalyzer()

	got := a.ExtractConcepts(context.Background(), "A function can call itself; that is recursion.")
	assert.Equal(t, []string{"Functions", "Loops", "Recursion"}, got)

	got = a.ExtractConcepts(context.Background(), "A short poem about the sea.")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHeuristicAnalyzer_IgnoresKeywordsInsideWords(t *testing.T) {
	a := NewHeuristicAnalyzer()
	msgs := []*models.Message{{Role: models.RoleUser, Content: "That was an excellent talk and I decoded the aftermath of it."}}

	assert.Empty(t, a.ExtractConcepts(context.Background(), msgs[0].Content))

	gaps := a.AnalyzeGaps(context.Background(), msgs, nil)
	require.Len(t, gaps, 1)
	assert.Equal(t, genericGap.Concept, gaps[0].Concept)

	quiz := a.GenerateQuiz(context.Background(), msgs, "")
	require.Len(t, quiz, 1)
	assert.Equal(t, genericQuestion.Question, quiz[0].Question)
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text string
		kw   string
		want bool
	}{
		{"cells divide", "cell", true},
		{"the cell.", "cell", true},
		{"excellent", "cell", false},
		{"excellent cell", "cell", true},
		{"decoded", "code", false},
		{"(code)", "code", true},
		{"energy is conserved", "conserv", true},
		{"f=ma holds", "f=ma", true},
		{"", "cell", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsWord(tt.text, tt.kw), "%q in %q", tt.kw, tt.text)
	}
}
