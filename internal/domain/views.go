// Package domain defines the persistence models and document types of the
// guide server: view events stored in SQLite through GORM, and the JSON
// documents that describe guides on disk.
package domain

import "time"

// ViewEvent records that a client viewed a published guide. At most one row
// exists per (guide, client) pair; the unique index is what enforces it, so
// concurrent writers for the same pair end up with exactly one row.
//
// Fields:
//   - ID: surrogate autoincrement key.
//   - GuideSlug: slug of the viewed guide (indexed).
//   - ClientID: client fingerprint, a hash of address and agent.
//   - IPAddress: source address as seen by the server (indexed).
//   - UserAgent: raw User-Agent header.
//   - ViewedAt: time of the first recorded view for the pair (indexed).
type ViewEvent struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	GuideSlug string    `json:"guide_slug" gorm:"type:TEXT NOT NULL;index:idx_guide_views_slug;uniqueIndex:ux_guide_views_slug_client,priority:1"`
	ClientID  string    `json:"client_id"  gorm:"type:TEXT NOT NULL;uniqueIndex:ux_guide_views_slug_client,priority:2"`
	IPAddress string    `json:"ip_address" gorm:"type:TEXT;index:idx_guide_views_ip"`
	UserAgent string    `json:"user_agent" gorm:"type:TEXT"`
	ViewedAt  time.Time `json:"viewed_at"  gorm:"not null;index:idx_guide_views_date"`
}

// TableName returns the database table name for ViewEvent.
func (ViewEvent) TableName() string { return "guide_views" }

// GuideViewStats summarizes the views of a single guide.
type GuideViewStats struct {
	TotalViews    int64 `json:"total_views"`
	UniqueViewers int64 `json:"unique_viewers"`
}

// OverallViewStats summarizes views across every guide.
type OverallViewStats struct {
	TotalViews           int64 `json:"total_views"`
	TotalUniqueViewers   int64 `json:"total_unique_viewers"`
	TotalGuidesWithViews int64 `json:"total_guides"`
}

// GuideRanking is one row of the top-guides report.
type GuideRanking struct {
	Slug          string `json:"slug"`
	TotalViews    int64  `json:"total_views"`
	UniqueViewers int64  `json:"unique_viewers"`
}
