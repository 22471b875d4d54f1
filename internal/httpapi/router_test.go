package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimedguru/backend/internal/ai"
	"github.com/aimedguru/backend/internal/auth"
	"github.com/aimedguru/backend/internal/chat"
	"github.com/aimedguru/backend/internal/config"
)

type memUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*auth.User
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byEmail[email], nil
}

func (s *memUserStore) Insert(ctx context.Context, u *auth.User) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return auth.ErrUserExists
	}
	s.byEmail[u.Email] = u
	return nil
}

type memConvStore struct {
	mu       sync.Mutex
	convs    map[string][]chat.Message
	appended chan struct{}
}

func (s *memConvStore) AppendMessage(ctx context.Context, sessionID string, msg chat.Message) error {
	_ = ctx
	s.mu.Lock()
	s.convs[sessionID] = append(s.convs[sessionID], msg)
	s.mu.Unlock()
	s.appended <- struct{}{}
	return nil
}

func (s *memConvStore) GetConversation(ctx context.Context, sessionID string) (*chat.Conversation, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.convs[sessionID]
	if !ok {
		return nil, nil
	}
	return &chat.Conversation{SessionID: sessionID, Messages: append([]chat.Message(nil), msgs...)}, nil
}

type scriptedProvider struct {
	fragments []string
	err       error
}

func (p *scriptedProvider) StreamGenerate(ctx context.Context, req ai.GenerateRequest) (<-chan string, <-chan error) {
	_ = ctx
	_ = req
	chunks := make(chan string, len(p.fragments)+1)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for _, f := range p.fragments {
			chunks <- f
		}
		if p.err != nil {
			errs <- p.err
		}
	}()
	return chunks, errs
}

func newTestRouter(apiKey string, prov ai.StreamProvider) (*gin.Engine, *memConvStore) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		JWTSecret:       "test-secret",
		GeminiAPIKey:    apiKey,
		GeminiModel:     "gemini-2.5-flash",
		MaxOutputTokens: 8192,
	}
	store := &memConvStore{convs: make(map[string][]chat.Message), appended: make(chan struct{}, 16)}
	authSvc := auth.NewService(&memUserStore{byEmail: make(map[string]*auth.User)})
	chatSvc := chat.NewService(store, prov, nil, cfg.MaxOutputTokens)
	return NewRouter(cfg, authSvc, chatSvc), store
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	if w := doJSON(r, http.MethodPost, "/auth/register", "", gin.H{"email": "a@b.c", "password": "secret"}); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"email": "a@b.c", "password": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Data.Token == "" {
		t.Fatalf("login response missing token: %s", w.Body.String())
	}
	return resp.Data.Token
}

func TestRegister_DuplicateAndMissingFields(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{})

	if w := doJSON(r, http.MethodPost, "/auth/register", "", gin.H{"email": "a@b.c", "password": "pw"}); w.Code != http.StatusCreated {
		t.Fatalf("first register: status %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/auth/register", "", gin.H{"email": "a@b.c", "password": "pw"}); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/auth/register", "", gin.H{"email": "a@b.c"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: status %d", w.Code)
	}
}

func TestLogin_UniformRejection(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{})
	registerAndLogin(t, r)

	wrongPw := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"email": "a@b.c", "password": "nope"})
	unknown := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"email": "x@b.c", "password": "secret"})
	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Fatalf("bad-credential responses must not be distinguishable")
	}
}

func TestChat_RequiresToken(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{})
	w := doJSON(r, http.MethodPost, "/chat", "", gin.H{"messages": []gin.H{{"role": "user", "content": "q"}}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestChat_StreamsAndPersists(t *testing.T) {
	prov := &scriptedProvider{fragments: []string{"Mitosis ", "is ", "cell division."}}
	r, store := newTestRouter("test-key", prov)
	token := registerAndLogin(t, r)

	w := doJSON(r, http.MethodPost, "/chat", token, gin.H{
		"messages":  []gin.H{{"role": "user", "content": "What is mitosis?"}},
		"sessionId": "s1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("chat: status %d body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if w.Body.String() != "Mitosis is cell division." {
		t.Fatalf("unexpected streamed body %q", w.Body.String())
	}

	// persistence is detached from the response; wait for both appends
	for i := 0; i < 2; i++ {
		select {
		case <-store.appended:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for persistence")
		}
	}

	hw := doJSON(r, http.MethodGet, "/chat/history?sessionId=s1", token, nil)
	if hw.Code != http.StatusOK {
		t.Fatalf("history: status %d", hw.Code)
	}
	var hist struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(hw.Body.Bytes(), &hist); err != nil {
		t.Fatalf("history decode: %v", err)
	}
	if len(hist.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(hist.Messages))
	}
	if hist.Messages[0].Role != "user" || hist.Messages[0].Content != "What is mitosis?" {
		t.Fatalf("unexpected first message: %+v", hist.Messages[0])
	}
	if hist.Messages[1].Role != "model" || hist.Messages[1].Content != "Mitosis is cell division." {
		t.Fatalf("unexpected second message: %+v", hist.Messages[1])
	}
}

func TestChat_MissingAPIKey(t *testing.T) {
	r, _ := newTestRouter("", &scriptedProvider{fragments: []string{"never"}})
	token := registerAndLogin(t, r)

	w := doJSON(r, http.MethodPost, "/chat", token, gin.H{
		"messages": []gin.H{{"role": "user", "content": "q"}},
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected a JSON error body, got %q", w.Body.String())
	}
	if _, ok := resp["error"]; !ok {
		t.Fatalf("expected an error field, got %v", resp)
	}
}

func TestChat_PreStreamUpstreamError(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{err: errors.New("quota exceeded")})
	token := registerAndLogin(t, r)

	w := doJSON(r, http.MethodPost, "/chat", token, gin.H{
		"messages": []gin.H{{"role": "user", "content": "q"}},
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "quota exceeded") {
		t.Fatalf("expected the upstream error in the body, got %q", w.Body.String())
	}
}

func TestChat_EmptyMessages(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{})
	token := registerAndLogin(t, r)

	w := doJSON(r, http.MethodPost, "/chat", token, gin.H{"messages": []gin.H{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHistory_MissingSessionID(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{})
	token := registerAndLogin(t, r)

	if w := doJSON(r, http.MethodGet, "/chat/history", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHistory_UnknownSessionIsEmpty(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{})
	token := registerAndLogin(t, r)

	w := doJSON(r, http.MethodGet, "/chat/history?sessionId=ghost", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var hist struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hist.Messages == nil || len(hist.Messages) != 0 {
		t.Fatalf("expected an empty array, got %s", w.Body.String())
	}
}

func TestCreateChatSession(t *testing.T) {
	r, _ := newTestRouter("test-key", &scriptedProvider{})
	token := registerAndLogin(t, r)

	w := doJSON(r, http.MethodPost, "/chat/sessions", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Data.SessionID) != 26 {
		t.Fatalf("expected a 26-char session id, got %q", resp.Data.SessionID)
	}
}
