// Package handlers implements the HTTP endpoints of the guide server.
//
// Handlers are transport-thin: they bind and validate input, call the
// application services through the interfaces below, and translate results
// and sentinel errors into HTTP responses.
package handlers

import (
	"context"

	"github.com/sockheadrps/pycourse/internal/domain"
	"github.com/sockheadrps/pycourse/internal/search"
	"github.com/sockheadrps/pycourse/internal/services"
	"github.com/sockheadrps/pycourse/internal/session"
)

//
// Service contracts (context-aware)
//

// GuideService covers guide serving and authoring.
//
// Implementations must be safe for concurrent use.
type GuideService interface {
	Slugs(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]services.GuideSummary, error)
	IndexPage(ctx context.Context) ([]byte, error)
	Tutorial(ctx context.Context, slug string, preview bool) ([]byte, error)
	Search(ctx context.Context, q string, k int) []search.Result

	Draft(ctx context.Context, slug string) (domain.Guide, error)
	SaveDraft(ctx context.Context, slug string, g domain.Guide, create bool) (services.SaveResult, error)
	Publish(ctx context.Context, slug string, g domain.Guide, create bool) (services.SaveResult, error)
	PublishDraft(ctx context.Context, slug string) error
	Preview(ctx context.Context, slug string, g domain.Guide) error
	PreviewDraft(ctx context.Context, slug string) ([]byte, error)
	ClearPreview(ctx context.Context, slug string) error
	Delete(ctx context.Context, slug string) error
	RegenerateAll(ctx context.Context) (services.RegenerateReport, error)
	CheckSlug(ctx context.Context, slug string) services.SlugCheck
}

// ViewLedger records guide views and answers view statistics. Storage
// failures come back as zero values alongside the error.
type ViewLedger interface {
	RecordView(ctx context.Context, v services.View) (services.RecordOutcome, error)
	GuideStats(ctx context.Context, slug string) (domain.GuideViewStats, error)
	OverallStats(ctx context.Context) (domain.OverallViewStats, error)
	TopGuides(ctx context.Context, limit int) ([]domain.GuideRanking, error)
	ViewedGuides(ctx context.Context) ([]string, error)
}

// AuthService authenticates the administrator.
type AuthService interface {
	Login(ctx context.Context, password string) (session.Session, error)
	Verify(token string) bool
	Logout(token string)
}

//
// Handler wiring
//

// Handlers groups every endpoint of the guide server.
type Handlers struct {
	guides GuideService
	views  ViewLedger
	auth   AuthService

	topLimit int
}

// New binds the handlers to their services. topLimit is the default size of
// the top-guides ranking on the admin stats endpoint.
func New(g GuideService, v ViewLedger, a AuthService, topLimit int) *Handlers {
	if topLimit < 1 {
		topLimit = 10
	}
	return &Handlers{guides: g, views: v, auth: a, topLimit: topLimit}
}
