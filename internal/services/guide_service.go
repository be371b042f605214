// Package services – GuideService
//
// This file implements guide authoring and serving: listing the catalog,
// saving drafts, publishing, previews, deletion, and rendering tutorial
// pages. Rendered pages are cached on disk next to the guide documents and
// refreshed whenever a guide is published or regenerated.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sockheadrps/pycourse/internal/domain"
	"github.com/sockheadrps/pycourse/internal/guides"
	"github.com/sockheadrps/pycourse/internal/render"
	"github.com/sockheadrps/pycourse/internal/search"
	"github.com/sockheadrps/pycourse/internal/sysutil"
)

// PageRenderer turns guide documents into HTML.
type PageRenderer interface {
	Tutorial(doc domain.TutorialDocument, flow *domain.Flow, preview bool) ([]byte, error)
	Index(entries []render.IndexEntry) ([]byte, error)
}

// GuideSummary is one row of the guide catalog.
type GuideSummary struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	TutorialURL  string `json:"tutorial_url"`
	HasPublished bool   `json:"has_published"`
	HasDraft     bool   `json:"has_draft"`
	HasPreview   bool   `json:"has_preview"`
	TotalPhases  int    `json:"total_phases"`
	TotalSteps   int    `json:"total_steps"`
}

// SaveResult reports where a guide was written.
type SaveResult struct {
	Slug    string
	Created bool
}

// SlugCheck answers whether a slug can be used for a new guide.
type SlugCheck struct {
	Valid      bool   `json:"valid"`
	Available  bool   `json:"available"`
	Suggestion string `json:"suggestion,omitempty"`
}

// RegenerateReport lists the outcome of regenerating every guide page.
type RegenerateReport struct {
	Generated []string          `json:"generated"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// TutorialURL is the public address of a guide's tutorial page.
func TutorialURL(slug string) string { return "/guides/" + slug + "/tutorial" }

// GuideService coordinates the guide store, the renderer and the catalog
// search index.
type GuideService struct {
	// Store holds the guide documents.
	Store *guides.Store
	// Renderer produces tutorial and index pages.
	Renderer PageRenderer
	// DevMode bypasses the rendered page cache.
	DevMode bool

	mu  sync.RWMutex
	idx search.Index
}

// NewGuideService constructs a GuideService with an empty search index.
func NewGuideService(store *guides.Store, r PageRenderer, devMode bool) *GuideService {
	return &GuideService{
		Store:    store,
		Renderer: r,
		DevMode:  devMode,
		idx:      search.NewIndex(nil),
	}
}

// Slugs lists every guide slug.
func (s *GuideService) Slugs(ctx context.Context) ([]string, error) {
	return s.Store.List()
}

// List returns a summary of every guide, published or not.
func (s *GuideService) List(ctx context.Context) ([]GuideSummary, error) {
	slugs, err := s.Store.List()
	if err != nil {
		return nil, err
	}
	out := make([]GuideSummary, 0, len(slugs))
	for _, slug := range slugs {
		sum := GuideSummary{
			Slug:         slug,
			Title:        slug,
			TutorialURL:  TutorialURL(slug),
			HasPublished: s.Store.Has(slug, guides.TutorialFile),
			HasDraft:     s.Store.Has(slug, guides.DraftFile),
			HasPreview:   s.Store.Has(slug, guides.PreviewTutorialFile),
		}
		if sum.HasPublished {
			doc, err := s.Store.ReadTutorial(slug)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("slug", slug).Msg("read tutorial for listing")
			} else {
				sum.Title = sysutil.FirstNonEmpty(doc.Tutorial.Title, slug)
				sum.Description = doc.Tutorial.Description
				sum.TotalPhases = len(doc.Tutorial.Phases)
				sum.TotalSteps = doc.Tutorial.TotalSteps()
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

// IndexPage renders the public index of published guides.
func (s *GuideService) IndexPage(ctx context.Context) ([]byte, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]render.IndexEntry, 0, len(all))
	for _, g := range all {
		if !g.HasPublished {
			continue
		}
		entries = append(entries, render.IndexEntry{
			Slug:        g.Slug,
			Title:       g.Title,
			Description: g.Description,
			URL:         g.TutorialURL,
		})
	}
	return s.Renderer.Index(entries)
}

// Tutorial returns the HTML page of a guide. Published pages come from the
// on-disk cache when present; preview pages are always rendered.
func (s *GuideService) Tutorial(ctx context.Context, slug string, preview bool) ([]byte, error) {
	ctx, span := otel.Tracer("services/GuideService").Start(ctx, "Tutorial",
		trace.WithAttributes(attribute.String("guide.slug", slug), attribute.Bool("preview", preview)),
	)
	defer span.End()

	if err := s.requireGuide(slug); err != nil {
		return nil, err
	}
	if preview {
		doc, flow, err := s.Store.ReadPreview(slug)
		if err != nil {
			return nil, mapStoreErr(err, ErrPreviewNotFound)
		}
		return s.Renderer.Tutorial(doc, flow, true)
	}

	if !s.Store.Has(slug, guides.TutorialFile) {
		return nil, fmt.Errorf("%s: %w", slug, ErrTutorialNotFound)
	}
	if !s.DevMode {
		if html, err := s.Store.ReadHTML(slug); err == nil {
			return html, nil
		}
	}
	return s.renderPublished(ctx, slug)
}

// Regenerate renders the published page of slug and refreshes its cache.
func (s *GuideService) Regenerate(ctx context.Context, slug string) error {
	if err := s.requireGuide(slug); err != nil {
		return err
	}
	if !s.Store.Has(slug, guides.TutorialFile) {
		return fmt.Errorf("%s: %w", slug, ErrTutorialNotFound)
	}
	_, err := s.renderPublished(ctx, slug)
	return err
}

// RegenerateAll refreshes the page cache of every published guide and
// rebuilds the search index. Failures are collected, not fatal.
func (s *GuideService) RegenerateAll(ctx context.Context) (RegenerateReport, error) {
	slugs, err := s.Store.List()
	if err != nil {
		return RegenerateReport{}, err
	}
	rep := RegenerateReport{Generated: []string{}}
	for _, slug := range slugs {
		if !s.Store.Has(slug, guides.TutorialFile) {
			continue
		}
		if _, err := s.renderPublished(ctx, slug); err != nil {
			if rep.Failed == nil {
				rep.Failed = make(map[string]string)
			}
			rep.Failed[slug] = err.Error()
			zerolog.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("regenerate guide")
			continue
		}
		rep.Generated = append(rep.Generated, slug)
	}
	s.RebuildIndex(ctx)
	zerolog.Ctx(ctx).Info().Int("generated", len(rep.Generated)).Int("failed", len(rep.Failed)).Msg("guides regenerated")
	return rep, nil
}

// Draft returns the working copy of a guide, falling back to the published
// documents when no draft was ever saved.
func (s *GuideService) Draft(ctx context.Context, slug string) (domain.Guide, error) {
	if err := s.requireGuide(slug); err != nil {
		return domain.Guide{}, err
	}
	g, err := s.Store.ReadDraft(slug)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, guides.ErrNotFound) {
		return domain.Guide{}, err
	}
	doc, err := s.Store.ReadTutorial(slug)
	if err != nil {
		return domain.Guide{}, mapStoreErr(err, ErrDraftNotFound)
	}
	flow, err := s.Store.ReadFlow(slug)
	if err != nil {
		return domain.Guide{}, err
	}
	return doc.Guide(flow), nil
}

// SaveDraft stores g as the working copy. An empty slug derives a fresh one
// from the tutorial title. With create set, an existing slug is rejected.
func (s *GuideService) SaveDraft(ctx context.Context, slug string, g domain.Guide, create bool) (SaveResult, error) {
	res, err := s.resolveSlug(slug, g, create)
	if err != nil {
		return SaveResult{}, err
	}
	if err := s.Store.WriteDraft(res.Slug, g); err != nil {
		return SaveResult{}, err
	}
	zerolog.Ctx(ctx).Info().Str("slug", res.Slug).Bool("created", res.Created).Msg("draft saved")
	return res, nil
}

// Publish validates g, stores it as both draft and published documents,
// and refreshes the rendered page.
func (s *GuideService) Publish(ctx context.Context, slug string, g domain.Guide, create bool) (SaveResult, error) {
	ctx, span := otel.Tracer("services/GuideService").Start(ctx, "Publish",
		trace.WithAttributes(attribute.String("guide.slug", slug)),
	)
	defer span.End()

	if msg := g.Validate(); msg != "" {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrInvalidGuide, msg)
	}
	res, err := s.resolveSlug(slug, g, create)
	if err != nil {
		return SaveResult{}, err
	}
	if err := s.Store.WriteDraft(res.Slug, g); err != nil {
		return SaveResult{}, err
	}
	if err := s.Store.Publish(res.Slug, g); err != nil {
		return SaveResult{}, err
	}
	if _, err := s.renderPublished(ctx, res.Slug); err != nil {
		return SaveResult{}, err
	}
	s.RebuildIndex(ctx)
	zerolog.Ctx(ctx).Info().Str("slug", res.Slug).Bool("created", res.Created).Msg("guide published")
	return res, nil
}

// PublishDraft publishes the saved draft of an existing guide.
func (s *GuideService) PublishDraft(ctx context.Context, slug string) error {
	if err := s.requireGuide(slug); err != nil {
		return err
	}
	g, err := s.Store.ReadDraft(slug)
	if err != nil {
		return mapStoreErr(err, ErrDraftNotFound)
	}
	_, err = s.Publish(ctx, slug, g, false)
	return err
}

// Preview writes g to the preview documents of an existing guide without
// touching what is published.
func (s *GuideService) Preview(ctx context.Context, slug string, g domain.Guide) error {
	if err := s.requireGuide(slug); err != nil {
		return err
	}
	if msg := g.Validate(); msg != "" {
		return fmt.Errorf("%w: %s", ErrInvalidGuide, msg)
	}
	return s.Store.WritePreview(slug, g)
}

// PreviewDraft writes the saved draft to the preview documents and returns
// the rendered preview page.
func (s *GuideService) PreviewDraft(ctx context.Context, slug string) ([]byte, error) {
	g, err := s.Draft(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.Preview(ctx, slug, g); err != nil {
		return nil, err
	}
	return s.Renderer.Tutorial(g.Document(), g.Flow, true)
}

// ClearPreview removes the preview documents of a guide.
func (s *GuideService) ClearPreview(ctx context.Context, slug string) error {
	if err := s.requireGuide(slug); err != nil {
		return err
	}
	return s.Store.ClearPreview(slug)
}

// Delete removes a guide with all of its documents.
func (s *GuideService) Delete(ctx context.Context, slug string) error {
	if err := s.requireGuide(slug); err != nil {
		return err
	}
	if err := s.Store.Delete(slug); err != nil {
		return mapStoreErr(err, ErrGuideNotFound)
	}
	s.RebuildIndex(ctx)
	zerolog.Ctx(ctx).Info().Str("slug", slug).Msg("guide deleted")
	return nil
}

// CheckSlug reports whether slug is valid and free. When it is not, a free
// alternative derived from it is suggested.
func (s *GuideService) CheckSlug(ctx context.Context, slug string) SlugCheck {
	chk := SlugCheck{Valid: guides.ValidateSlug(slug) == nil}
	if chk.Valid {
		chk.Available = !s.Store.Taken(slug)
		if chk.Available {
			return chk
		}
		chk.Suggestion = guides.UniqueSlug(slug, s.Store.Taken)
		return chk
	}
	chk.Suggestion = guides.UniqueSlug(guides.Slugify(slug), s.Store.Taken)
	return chk
}

// Search ranks published guides against q.
func (s *GuideService) Search(ctx context.Context, q string, k int) []search.Result {
	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()
	res := idx.TopK(q, k)
	if res == nil {
		return []search.Result{}
	}
	return res
}

// RebuildIndex re-reads every published tutorial into the search index.
func (s *GuideService) RebuildIndex(ctx context.Context) {
	slugs, err := s.Store.List()
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list guides for search index")
		return
	}
	docs := make([]search.Document, 0, len(slugs))
	for _, slug := range slugs {
		if !s.Store.Has(slug, guides.TutorialFile) {
			continue
		}
		doc, err := s.Store.ReadTutorial(slug)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("slug", slug).Msg("skip guide in search index")
			continue
		}
		docs = append(docs, search.FromTutorial(slug, doc.Tutorial))
	}
	idx := search.NewIndex(docs)

	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
}

// ---- helpers ----

func (s *GuideService) requireGuide(slug string) error {
	if err := guides.ValidateSlug(slug); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlug, err)
	}
	if !s.Store.Exists(slug) {
		return fmt.Errorf("%s: %w", slug, ErrGuideNotFound)
	}
	return nil
}

// resolveSlug picks the directory g is written to, creating it if needed.
func (s *GuideService) resolveSlug(slug string, g domain.Guide, create bool) (SaveResult, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		title := strings.TrimSpace(g.Tutorial.Title)
		if title == "" {
			return SaveResult{}, fmt.Errorf("%w: a slug or a tutorial title is required", ErrInvalidGuide)
		}
		// Another request may claim the slug between UniqueSlug and Create.
		// A name Create refused is never offered again, so the loop advances.
		refused := map[string]bool{}
		taken := func(c string) bool { return refused[c] || s.Store.Taken(c) }
		for {
			slug = guides.UniqueSlug(guides.Slugify(title), taken)
			err := s.Store.Create(slug)
			if err == nil {
				return SaveResult{Slug: slug, Created: true}, nil
			}
			if !errors.Is(err, guides.ErrExists) {
				return SaveResult{}, err
			}
			refused[slug] = true
		}
	}

	if err := guides.ValidateSlug(slug); err != nil {
		return SaveResult{}, fmt.Errorf("%w: %v", ErrInvalidSlug, err)
	}
	err := s.Store.Create(slug)
	switch {
	case err == nil:
		return SaveResult{Slug: slug, Created: true}, nil
	case errors.Is(err, guides.ErrExists):
		if create {
			return SaveResult{}, fmt.Errorf("%s: %w", slug, ErrSlugTaken)
		}
		return SaveResult{Slug: slug}, nil
	default:
		return SaveResult{}, err
	}
}

// renderPublished renders the published documents of slug and writes the
// page cache. A failed cache write is logged; the page is still returned.
func (s *GuideService) renderPublished(ctx context.Context, slug string) ([]byte, error) {
	doc, err := s.Store.ReadTutorial(slug)
	if err != nil {
		return nil, mapStoreErr(err, ErrTutorialNotFound)
	}
	flow, err := s.Store.ReadFlow(slug)
	if err != nil {
		return nil, err
	}
	html, err := s.Renderer.Tutorial(doc, flow, false)
	if err != nil {
		return nil, err
	}
	if err := s.Store.WriteHTML(slug, html); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("slug", slug).Msg("write page cache")
	}
	return html, nil
}

// mapStoreErr converts guides.ErrNotFound into the given service error.
func mapStoreErr(err, notFound error) error {
	if errors.Is(err, guides.ErrNotFound) {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	if errors.Is(err, guides.ErrInvalidSlug) {
		return fmt.Errorf("%w: %v", ErrInvalidSlug, err)
	}
	return err
}
