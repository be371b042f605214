package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sockheadrps/pycourse/internal/domain"
	"github.com/sockheadrps/pycourse/internal/search"
	"github.com/sockheadrps/pycourse/internal/services"
	"github.com/sockheadrps/pycourse/internal/session"
)

// ---------- guide service stub ----------

type stubGuides struct {
	slugs        func(context.Context) ([]string, error)
	list         func(context.Context) ([]services.GuideSummary, error)
	indexPage    func(context.Context) ([]byte, error)
	tutorial     func(context.Context, string, bool) ([]byte, error)
	draft        func(context.Context, string) (domain.Guide, error)
	saveDraft    func(context.Context, string, domain.Guide, bool) (services.SaveResult, error)
	publish      func(context.Context, string, domain.Guide, bool) (services.SaveResult, error)
	publishDraft func(context.Context, string) error
	preview      func(context.Context, string, domain.Guide) error
	previewDraft func(context.Context, string) ([]byte, error)
	clearPreview func(context.Context, string) error
	del          func(context.Context, string) error
	regenAll     func(context.Context) (services.RegenerateReport, error)

	lastQuery string
	lastK     int
}

func (s *stubGuides) Slugs(ctx context.Context) ([]string, error) {
	if s.slugs != nil {
		return s.slugs(ctx)
	}
	return nil, nil
}

func (s *stubGuides) List(ctx context.Context) ([]services.GuideSummary, error) {
	if s.list != nil {
		return s.list(ctx)
	}
	return nil, nil
}

func (s *stubGuides) IndexPage(ctx context.Context) ([]byte, error) {
	if s.indexPage != nil {
		return s.indexPage(ctx)
	}
	return []byte("<html>index</html>"), nil
}

func (s *stubGuides) Tutorial(ctx context.Context, slug string, preview bool) ([]byte, error) {
	if s.tutorial != nil {
		return s.tutorial(ctx, slug, preview)
	}
	return []byte("<html>" + slug + "</html>"), nil
}

func (s *stubGuides) Search(_ context.Context, q string, k int) []search.Result {
	s.lastQuery, s.lastK = q, k
	return []search.Result{{Slug: "intro", Title: "Intro", Snippet: q, Score: 1}}
}

func (s *stubGuides) Draft(ctx context.Context, slug string) (domain.Guide, error) {
	if s.draft != nil {
		return s.draft(ctx, slug)
	}
	return domain.Guide{Tutorial: domain.Tutorial{Title: slug}}, nil
}

func (s *stubGuides) SaveDraft(ctx context.Context, slug string, g domain.Guide, create bool) (services.SaveResult, error) {
	if s.saveDraft != nil {
		return s.saveDraft(ctx, slug, g, create)
	}
	return services.SaveResult{Slug: slug}, nil
}

func (s *stubGuides) Publish(ctx context.Context, slug string, g domain.Guide, create bool) (services.SaveResult, error) {
	if s.publish != nil {
		return s.publish(ctx, slug, g, create)
	}
	return services.SaveResult{Slug: slug}, nil
}

func (s *stubGuides) PublishDraft(ctx context.Context, slug string) error {
	if s.publishDraft != nil {
		return s.publishDraft(ctx, slug)
	}
	return nil
}

func (s *stubGuides) Preview(ctx context.Context, slug string, g domain.Guide) error {
	if s.preview != nil {
		return s.preview(ctx, slug, g)
	}
	return nil
}

func (s *stubGuides) PreviewDraft(ctx context.Context, slug string) ([]byte, error) {
	if s.previewDraft != nil {
		return s.previewDraft(ctx, slug)
	}
	return []byte("<html>preview " + slug + "</html>"), nil
}

func (s *stubGuides) ClearPreview(ctx context.Context, slug string) error {
	if s.clearPreview != nil {
		return s.clearPreview(ctx, slug)
	}
	return nil
}

func (s *stubGuides) Delete(ctx context.Context, slug string) error {
	if s.del != nil {
		return s.del(ctx, slug)
	}
	return nil
}

func (s *stubGuides) RegenerateAll(ctx context.Context) (services.RegenerateReport, error) {
	if s.regenAll != nil {
		return s.regenAll(ctx)
	}
	return services.RegenerateReport{Generated: []string{}}, nil
}

func (s *stubGuides) CheckSlug(_ context.Context, slug string) services.SlugCheck {
	if slug == "taken" {
		return services.SlugCheck{Valid: true, Suggestion: "taken-1"}
	}
	return services.SlugCheck{Valid: true, Available: true}
}

// ---------- view ledger stub ----------

type stubViews struct {
	mu       sync.Mutex
	recorded []services.View
	err      error

	stats   domain.GuideViewStats
	overall domain.OverallViewStats
	top     []domain.GuideRanking
	viewed  []string

	lastLimit int
}

func (s *stubViews) RecordView(_ context.Context, v services.View) (services.RecordOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return services.Failed, s.err
	}
	s.recorded = append(s.recorded, v)
	return services.Recorded, nil
}

func (s *stubViews) GuideStats(context.Context, string) (domain.GuideViewStats, error) {
	if s.err != nil {
		return domain.GuideViewStats{}, s.err
	}
	return s.stats, nil
}

func (s *stubViews) OverallStats(context.Context) (domain.OverallViewStats, error) {
	if s.err != nil {
		return domain.OverallViewStats{}, s.err
	}
	return s.overall, nil
}

func (s *stubViews) TopGuides(_ context.Context, limit int) ([]domain.GuideRanking, error) {
	s.lastLimit = limit
	if s.err != nil {
		return []domain.GuideRanking{}, s.err
	}
	return s.top, nil
}

func (s *stubViews) ViewedGuides(context.Context) ([]string, error) {
	if s.err != nil {
		return []string{}, s.err
	}
	return s.viewed, nil
}

// ---------- auth stub ----------

type stubAuth struct {
	password string
	revoked  []string
}

func (s *stubAuth) Login(_ context.Context, pw string) (session.Session, error) {
	if pw != s.password {
		return session.Session{}, services.ErrInvalidCredentials
	}
	return session.Session{Token: "tok-1", CreatedAt: time.Unix(0, 0).UTC(), ExpiresAt: time.Unix(3600, 0).UTC()}, nil
}

func (s *stubAuth) Verify(token string) bool { return token == "tok-1" }

func (s *stubAuth) Logout(token string) { s.revoked = append(s.revoked, token) }

// ---------- request helpers ----------

func do(t *testing.T, r http.Handler, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Status != "error" || er.Code != code {
		t.Fatalf("envelope = %+v; want code %q", er, code)
	}
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
