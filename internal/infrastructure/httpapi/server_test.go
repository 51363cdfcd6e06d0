package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"NewsRecommender/internal/config"
	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/infrastructure/storage"
	"NewsRecommender/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticSource struct {
	articles []domain.Article
}

func (s staticSource) FetchLatest(context.Context) ([]domain.Article, error) {
	return s.articles, nil
}

func newTestServer(t *testing.T, fetched ...domain.Article) (*Server, *storage.Repository) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "api.db")
	repo, err := storage.Open(context.Background(), storage.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	services := Services{
		Articles: usecase.NewArticleService(repo, repo),
		Recommendations: usecase.NewRecommendationService(usecase.RecommendationDeps{
			Articles:    repo,
			Preferences: repo,
			History:     repo,
		}),
		Preferences: usecase.NewPreferenceService(repo, nil, nil),
		History:     usecase.NewHistoryService(repo, nil, nil),
		Pipeline:    usecase.NewPipeline(usecase.PipelineDeps{Source: staticSource{articles: fetched}, Repository: repo}),
	}
	return NewServer(config.ServerConfig{Addr: ":0"}, services, nil), repo
}

func do(t *testing.T, srv *Server, method, target, user, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set(usernameHeader, user)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, target, err, rec.Body.String())
		}
	}
	return rec, decoded
}

func fetchedArticle(url, category string, age time.Duration) domain.Article {
	return domain.Article{
		URL:         url,
		Title:       "Title " + url,
		Summary:     "Summary " + url,
		Source:      "Wire",
		Category:    category,
		PublishedAt: time.Now().Add(-age).UTC(),
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	rec, body := do(t, srv, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || body["ok"] != true {
		t.Fatalf("unexpected health response: %d %v", rec.Code, body)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}

	rec, _ = do(t, srv, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_request_duration_seconds") {
		t.Fatalf("unexpected metrics response: %d", rec.Code)
	}
}

func TestPersonalizedFlow(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t,
		fetchedArticle("https://x/tech-1", "technology", time.Hour),
		fetchedArticle("https://x/tech-2", "technology", 2*time.Hour),
		fetchedArticle("https://x/sports", "sports", time.Hour),
	)

	rec, body := do(t, srv, http.MethodPost, "/articles/update", "", "")
	if rec.Code != http.StatusOK || body["status"] != statusSuccess || body["count"] != float64(3) {
		t.Fatalf("unexpected update response: %d %v", rec.Code, body)
	}

	_, body = do(t, srv, http.MethodGet, "/articles/personalized", "alice", "")
	if body["message"] != usecase.MessageNoPreferences || body["count"] != float64(0) {
		t.Fatalf("expected no-preferences message, got %v", body)
	}

	rec, body = do(t, srv, http.MethodPost, "/preferences/update", "alice", `{"categories":["Technology"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update preferences: %d %v", rec.Code, body)
	}

	rec, body = do(t, srv, http.MethodPost, "/articles/track", "alice", `{"article_url":"https://x/tech-1","category":"technology"}`)
	if rec.Code != http.StatusOK || body["status"] != statusSuccess {
		t.Fatalf("track: %d %v", rec.Code, body)
	}

	rec, body = do(t, srv, http.MethodGet, "/articles/personalized?limit=10", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("personalized: %d %v", rec.Code, body)
	}
	if body["mode"] != "personalized" || body["degraded"] != false || body["request_id"] == "" {
		t.Fatalf("unexpected metadata: %v", body)
	}
	if body["count"] != float64(2) || body["reading_history_count"] != float64(1) {
		t.Fatalf("unexpected counts: %v", body)
	}
	first := body["articles"].([]any)[0].(map[string]any)
	if first["url"] != "https://x/tech-2" {
		t.Fatalf("read article must be excluded and tech ranked first: %v", first["url"])
	}
	if _, ok := first["score_breakdown"]; !ok {
		t.Fatalf("missing score breakdown: %v", first)
	}
}

func TestFilteredArticles(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t,
		fetchedArticle("https://x/old", "business", 3*time.Hour),
		fetchedArticle("https://x/new", "business", time.Hour),
		fetchedArticle("https://x/other", "health", time.Hour),
	)
	do(t, srv, http.MethodPost, "/articles/update", "", "")

	_, body := do(t, srv, http.MethodGet, "/articles/filtered", "bob", "")
	if body["message"] != usecase.MessageNoPreferencesSet {
		t.Fatalf("unexpected response without preferences: %v", body)
	}

	do(t, srv, http.MethodPost, "/preferences/update", "bob", `{"categories":[]}`)
	_, body = do(t, srv, http.MethodGet, "/articles/filtered", "bob", "")
	if body["message"] != usecase.MessageNoCategories {
		t.Fatalf("unexpected response for empty preferences: %v", body)
	}

	do(t, srv, http.MethodPost, "/preferences/update", "bob", `{"categories":["business"]}`)
	_, body = do(t, srv, http.MethodGet, "/articles/filtered", "bob", "")
	articles := body["articles"].([]any)
	if len(articles) != 2 || articles[0].(map[string]any)["url"] != "https://x/new" {
		t.Fatalf("expected business articles newest first, got %v", articles)
	}

	_, body = do(t, srv, http.MethodGet, "/articles", "", "")
	if body["count"] != float64(3) {
		t.Fatalf("expected all articles, got %v", body["count"])
	}
}

func TestPreferencesDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	_, body := do(t, srv, http.MethodGet, "/preferences", "carol", "")
	if cats, ok := body["categories"].([]any); !ok || len(cats) != 0 {
		t.Fatalf("expected empty categories, got %v", body)
	}

	rec, body := do(t, srv, http.MethodPost, "/preferences/update", "carol", `{"categories":["gossip"]}`)
	if rec.Code != http.StatusBadRequest || body["status"] != statusError {
		t.Fatalf("expected 400, got %d %v", rec.Code, body)
	}

	rec, _ = do(t, srv, http.MethodPost, "/preferences/update", "carol", `{"categories":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestTrackingRules(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	_, body := do(t, srv, http.MethodPost, "/articles/track", "", `{"article_url":"https://x/a"}`)
	if body["message"] != messageTrackingSkipped {
		t.Fatalf("anonymous tracking must be skipped: %v", body)
	}

	rec, _ := do(t, srv, http.MethodPost, "/articles/track", "dave", `{"category":"sports"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url must be rejected, got %d", rec.Code)
	}

	for i := 0; i < 3; i++ {
		do(t, srv, http.MethodPost, "/articles/track", "dave", `{"article_url":"https://x/a","interaction_type":"read","reading_time":30}`)
	}
	_, body = do(t, srv, http.MethodGet, "/reading-history?limit=2", "dave", "")
	if body["count"] != float64(2) {
		t.Fatalf("expected limited history, got %v", body)
	}

	rec, _ = do(t, srv, http.MethodGet, "/reading-history?limit=abc", "dave", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit must be rejected, got %d", rec.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	srv.cfg.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestUserRoutesRequireUsername(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	routes := []struct{ method, target, body string }{
		{http.MethodGet, "/preferences", ""},
		{http.MethodPost, "/preferences/update", `{"categories":["sports"]}`},
		{http.MethodGet, "/articles/filtered", ""},
		{http.MethodGet, "/articles/personalized", ""},
		{http.MethodGet, "/reading-history", ""},
	}
	for _, r := range routes {
		rec, body := do(t, srv, r.method, r.target, "", r.body)
		if rec.Code != http.StatusUnauthorized || body["status"] != statusError {
			t.Fatalf("%s %s: expected 401, got %d %v", r.method, r.target, rec.Code, body)
		}
	}

	// a rejected write must not leak into anyone's preferences
	_, body := do(t, srv, http.MethodGet, "/preferences", "erin", "")
	if cats := body["categories"].([]any); len(cats) != 0 {
		t.Fatalf("unexpected categories: %v", cats)
	}

	rec, _ := do(t, srv, http.MethodGet, "/articles", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("public listing must stay open, got %d", rec.Code)
	}
}

func TestAnonymousTrackingIsSkipped(t *testing.T) {
	t.Parallel()

	srv, repo := newTestServer(t)

	rec, body := do(t, srv, http.MethodPost, "/articles/track", "", `{"article_url":"https://x/a"}`)
	if rec.Code != http.StatusOK || body["message"] != messageTrackingSkipped {
		t.Fatalf("unexpected response: %d %v", rec.Code, body)
	}
	entries, err := repo.Recent(context.Background(), "", 10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("nothing must be stored, got %d (%v)", len(entries), err)
	}
}
