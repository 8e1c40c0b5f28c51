package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/middleware"
	"feynman-backend/internal/models"
	"feynman-backend/internal/repository"
	"feynman-backend/internal/services"
)

type testEnv struct {
	store   *repository.MemoryStore
	user    *models.User
	persona *models.AiPersona
	session *models.Session

	sessions  *SessionHandler
	materials *MaterialHandler
	quizzes   *QuizHandler
}

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()
	store := repository.NewMemoryStore()

	user := &models.User{Username: "maria", DisplayName: "Maria"}
	persona := &models.AiPersona{Name: "Alex", Age: 16, Interests: []string{"Science"}, CommunicationStyle: models.StyleCasual}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	persona.UserID = user.ID
	if err := store.CreatePersona(ctx, persona); err != nil {
		t.Fatalf("create persona: %v", err)
	}
	sess := &models.Session{UserID: user.ID, AiPersonaID: persona.ID, Title: "Cells"}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	analyzer := services.NewHeuristicAnalyzer()
	progress := services.NewProgressService(store, nil, log)

	return &testEnv{
		store:     store,
		user:      user,
		persona:   persona,
		session:   sess,
		sessions:  NewSessionHandler(services.NewSessionService(store, nil, log), progress),
		materials: NewMaterialHandler(services.NewMaterialService(store, analyzer, nil, nil, log), maxUpload),
		quizzes:   NewQuizHandler(services.NewQuizService(store, analyzer, services.NewMemoryAttemptStore(), time.Second, log)),
	}
}

func (e *testEnv) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/sessions/{id}/advance", e.sessions.Advance)
	r.Post("/sessions/{id}/feedback", e.sessions.Feedback)
	r.Get("/sessions/{id}/export", e.sessions.Export)
	r.Get("/sessions/{id}/messages", e.sessions.ListMessages)
	r.Get("/messages", e.sessions.ListMessages)
	r.Post("/messages", e.sessions.CreateMessage)
	r.Post("/materials/upload", e.materials.Upload)
	r.Get("/materials", e.materials.List)
	r.Post("/quizzes", e.quizzes.Generate)
	r.Post("/quizzes/{id}/attempts", e.quizzes.StartAttempt)
	r.Post("/quiz-attempts/{id}/answer", e.quizzes.Answer)
	return r
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSessionHandler_AdvanceAndFeedback(t *testing.T) {
	env := newTestEnv(t, 0)
	h := env.router()
	path := "/sessions/" + itoa(env.session.ID)

	rr := do(t, h, http.MethodPost, path+"/feedback", `{"feedback":"good"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("feedback: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var progress models.FeynmanProgress
	if err := json.Unmarshal(rr.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if progress.CurrentStep != models.StepReview || progress.Percent != 25 {
		t.Fatalf("expected review at 25%%, got %s at %d%%", progress.CurrentStep, progress.Percent)
	}

	rr = do(t, h, http.MethodPost, path+"/advance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if progress.CurrentStep != models.StepSimplify {
		t.Fatalf("expected simplify, got %s", progress.CurrentStep)
	}

	rr = do(t, h, http.MethodPost, path+"/feedback", `{"feedback":"great"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid feedback: expected 400, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/sessions/999/advance", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown session: expected 404, got %d", rr.Code)
	}
}

func TestSessionHandler_Messages(t *testing.T) {
	env := newTestEnv(t, 0)
	h := env.router()

	body := `{"session_id":` + itoa(env.session.ID) + `,"role":"user","content":"Cells have a nucleus."}`
	rr := do(t, h, http.MethodPost, "/messages", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	for _, path := range []string{
		"/messages?session_id=" + itoa(env.session.ID),
		"/sessions/" + itoa(env.session.ID) + "/messages",
	} {
		rr = do(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
		var msgs []models.Message
		if err := json.Unmarshal(rr.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(msgs) != 1 || msgs[0].Content != "Cells have a nucleus." {
			t.Fatalf("%s: unexpected messages %+v", path, msgs)
		}
	}

	rr = do(t, h, http.MethodPost, "/messages", `{"session_id":`+itoa(env.session.ID)+`,"role":"robot","content":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad role: expected 400, got %d", rr.Code)
	}
}

func TestSessionHandler_Export(t *testing.T) {
	env := newTestEnv(t, 0)
	h := env.router()
	path := "/sessions/" + itoa(env.session.ID) + "/export"

	rr := do(t, h, http.MethodGet, path+"?format=markdown", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Cells") {
		t.Fatalf("export missing title: %s", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, path+"?format=pdf", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown format: expected 400, got %d", rr.Code)
	}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestMaterialHandler_Upload(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	h := env.router()

	body, ct := multipartBody(t,
		map[string]string{"session_id": itoa(env.session.ID)},
		map[string]string{"notes.txt": "Mitochondria produce energy for the cell."},
	)
	req := httptest.NewRequest(http.MethodPost, "/materials/upload", body)
	req.Header.Set("Content-Type", ct)
	req = req.WithContext(middleware.WithUserID(req.Context(), env.user.ID))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var materials []models.Material
	if err := json.Unmarshal(rr.Body.Bytes(), &materials); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(materials) != 1 || materials[0].Name != "notes.txt" || materials[0].Type != models.MaterialText {
		t.Fatalf("unexpected materials %+v", materials)
	}

	rr = do(t, h, http.MethodGet, "/materials?session_id="+itoa(env.session.ID), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	materials = nil
	json.Unmarshal(rr.Body.Bytes(), &materials)
	if len(materials) != 1 {
		t.Fatalf("expected 1 listed material, got %d", len(materials))
	}
}

func TestMaterialHandler_UploadRequiresUser(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	body, ct := multipartBody(t, nil, map[string]string{"a.txt": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/materials/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	env.router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if f := decodeError(t, rr).Fields["user_id"]; f != "This field is required" {
		t.Fatalf("unexpected field message %q", f)
	}
}

func TestMaterialHandler_UploadTooLarge(t *testing.T) {
	env := newTestEnv(t, 64)

	body, ct := multipartBody(t,
		map[string]string{"user_id": itoa(env.user.ID)},
		map[string]string{"big.txt": strings.Repeat("x", 1024)},
	)
	req := httptest.NewRequest(http.MethodPost, "/materials/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	env.router().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if code := decodeError(t, rr).Code; code != "FILE_TOO_LARGE" {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestQuizHandler_AttemptFlow(t *testing.T) {
	env := newTestEnv(t, 0)
	h := env.router()
	ctx := context.Background()

	step := models.StepExplain
	for _, content := range []string{
		"Mitochondria are the powerhouse of the cell.",
		"Cells divide through mitosis.",
	} {
		m := &models.Message{SessionID: env.session.ID, Role: models.RoleUser, Content: content, FeynmanStep: &step}
		if err := env.store.CreateMessage(ctx, m); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	rr := do(t, h, http.MethodPost, "/quizzes", `{"session_id":`+itoa(env.session.ID)+`}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("generate: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var quiz models.Quiz
	if err := json.Unmarshal(rr.Body.Bytes(), &quiz); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(quiz.Questions) == 0 {
		t.Fatal("expected at least one question")
	}

	rr = do(t, h, http.MethodPost, "/quizzes/"+itoa(quiz.ID)+"/attempts", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("start attempt: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var attempt models.QuizAttempt
	if err := json.Unmarshal(rr.Body.Bytes(), &attempt); err != nil {
		t.Fatalf("decode: %v", err)
	}

	answer := `{"option_index":` + itoa(int64(quiz.Questions[0].CorrectOption)) + `}`
	rr = do(t, h, http.MethodPost, "/quiz-attempts/"+attempt.ID+"/answer", answer)
	if rr.Code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result models.AnswerResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Correct {
		t.Fatalf("expected a correct answer, got %+v", result)
	}

	rr = do(t, h, http.MethodPost, "/quiz-attempts/not-a-uuid/answer", answer)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad attempt id: expected 400, got %d", rr.Code)
	}
}
