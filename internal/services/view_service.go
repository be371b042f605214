// Package services – ViewLedger
//
// This file implements the view ledger: it records at most one view per
// (guide, client) pair, skips excluded client addresses, and answers the
// aggregate queries behind the stats endpoints.
//
// Storage failures never propagate as faults. Every method wraps them in
// ErrStorageUnavailable, logs them through the context logger, and returns a
// zeroed or empty result alongside the error so callers can ignore it.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/sockheadrps/pycourse/internal/domain"
	"github.com/sockheadrps/pycourse/internal/repo"
)

// RecordOutcome tells the caller what RecordView did.
type RecordOutcome int

const (
	// Recorded means a new (guide, client) row was stored.
	Recorded RecordOutcome = iota
	// Duplicate means the pair was already stored; nothing changed.
	Duplicate
	// Excluded means the client address is excluded from tracking.
	Excluded
	// Failed means the store could not be reached.
	Failed
)

// String returns the metric label of o.
func (o RecordOutcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case Duplicate:
		return "duplicate"
	case Excluded:
		return "excluded"
	default:
		return "error"
	}
}

// Counted reports whether the view is reflected in the ledger.
func (o RecordOutcome) Counted() bool { return o == Recorded || o == Duplicate }

// ViewsTotal counts RecordView calls by outcome.
var ViewsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "guideserver",
		Name:      "guide_views_total",
		Help:      "Guide view recordings, partitioned by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(ViewsTotal)
}

// View describes a single page view to record.
type View struct {
	Slug      string
	ClientIP  string
	UserAgent string
}

// ClientFingerprint derives the client identity of a view from its address
// and user agent.
func ClientFingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// ViewLedger records guide views and reports statistics about them.
type ViewLedger struct {
	// DB is the GORM handle of the view store.
	DB *gorm.DB

	excludedAddrs    map[netip.Addr]struct{}
	excludedPrefixes []netip.Prefix
	excludedRaw      map[string]struct{}
}

// NewViewLedger builds a ledger that never records views from the given
// addresses. Entries may be single addresses or CIDR prefixes.
func NewViewLedger(db *gorm.DB, excluded []string) *ViewLedger {
	l := &ViewLedger{
		DB:            db,
		excludedAddrs: make(map[netip.Addr]struct{}),
		excludedRaw:   make(map[string]struct{}),
	}
	for _, e := range excluded {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			l.excludedPrefixes = append(l.excludedPrefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			l.excludedAddrs[a.Unmap()] = struct{}{}
			continue
		}
		l.excludedRaw[e] = struct{}{}
	}
	return l
}

// IsExcluded reports whether views from ip are skipped.
func (l *ViewLedger) IsExcluded(ip string) bool {
	if _, ok := l.excludedRaw[ip]; ok {
		return true
	}
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	if _, ok := l.excludedAddrs[a]; ok {
		return true
	}
	for _, p := range l.excludedPrefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// RecordView stores v unless its address is excluded or the client already
// viewed the guide.
func (l *ViewLedger) RecordView(ctx context.Context, v View) (RecordOutcome, error) {
	ctx, span := otel.Tracer("services/ViewLedger").Start(ctx, "RecordView",
		trace.WithAttributes(attribute.String("guide.slug", v.Slug)),
	)
	defer span.End()

	outcome, err := l.recordView(ctx, v)
	span.SetAttributes(attribute.String("view.outcome", outcome.String()))
	ViewsTotal.WithLabelValues(outcome.String()).Inc()
	return outcome, err
}

func (l *ViewLedger) recordView(ctx context.Context, v View) (RecordOutcome, error) {
	if l.IsExcluded(v.ClientIP) {
		zerolog.Ctx(ctx).Debug().Str("slug", v.Slug).Str("ip", v.ClientIP).Msg("view from excluded address skipped")
		return Excluded, nil
	}
	ev := &domain.ViewEvent{
		GuideSlug: v.Slug,
		ClientID:  ClientFingerprint(v.ClientIP, v.UserAgent),
		IPAddress: v.ClientIP,
		UserAgent: v.UserAgent,
	}
	inserted, err := repo.InsertView(ctx, l.DB, ev)
	if err != nil {
		return Failed, l.fail(ctx, "record view", err)
	}
	if !inserted {
		return Duplicate, nil
	}
	return Recorded, nil
}

// GuideStats returns the view counts of one guide.
func (l *ViewLedger) GuideStats(ctx context.Context, slug string) (domain.GuideViewStats, error) {
	st, err := repo.GuideStats(ctx, l.DB, slug)
	if err != nil {
		return domain.GuideViewStats{}, l.fail(ctx, "guide stats", err)
	}
	return st, nil
}

// OverallStats returns the counts across every guide.
func (l *ViewLedger) OverallStats(ctx context.Context) (domain.OverallViewStats, error) {
	st, err := repo.OverallStats(ctx, l.DB)
	if err != nil {
		return domain.OverallViewStats{}, l.fail(ctx, "overall stats", err)
	}
	return st, nil
}

// TopGuides returns at most limit guides ranked by unique viewers, then
// total views, then slug.
func (l *ViewLedger) TopGuides(ctx context.Context, limit int) ([]domain.GuideRanking, error) {
	rows, err := repo.TopGuides(ctx, l.DB, limit)
	if err != nil {
		return []domain.GuideRanking{}, l.fail(ctx, "top guides", err)
	}
	return rows, nil
}

// ViewedGuides lists the slugs that have at least one recorded view.
func (l *ViewLedger) ViewedGuides(ctx context.Context) ([]string, error) {
	slugs, err := repo.ViewedGuides(ctx, l.DB)
	if err != nil {
		return []string{}, l.fail(ctx, "viewed guides", err)
	}
	return slugs, nil
}

// legacyGuideViews is one entry of the JSON file that predates the SQLite
// store: {"<slug>": {"unique_viewers": ["<client id>", ...]}}.
type legacyGuideViews struct {
	UniqueViewers []string `json:"unique_viewers"`
}

// ImportLegacy loads view records from the legacy JSON format. Pairs that
// already exist are skipped; imported counts the rows actually inserted.
func (l *ViewLedger) ImportLegacy(ctx context.Context, r io.Reader) (imported int, err error) {
	var data map[string]legacyGuideViews
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode legacy views: %w", err)
	}
	now := time.Now().UTC()
	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for slug, st := range data {
			for _, client := range st.UniqueViewers {
				ok, err := repo.InsertView(ctx, tx, &domain.ViewEvent{
					GuideSlug: slug,
					ClientID:  client,
					IPAddress: "migrated",
					UserAgent: "migrated",
					ViewedAt:  now,
				})
				if err != nil {
					return err
				}
				if ok {
					imported++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, l.fail(ctx, "import legacy views", err)
	}
	return imported, nil
}

func (l *ViewLedger) fail(ctx context.Context, op string, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("view ledger")
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
