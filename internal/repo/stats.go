// Package repo implements the persistence layer for view events, backed by
// GORM. This file provides the aggregate queries behind per-guide stats,
// overall stats and the top-guides report. Each function is context-aware
// and returns raw DB errors.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/sockheadrps/pycourse/internal/domain"
)

// GuideStats returns the row count and distinct client count for slug.
func GuideStats(ctx context.Context, db *gorm.DB, slug string) (domain.GuideViewStats, error) {
	var st domain.GuideViewStats
	q := db.WithContext(ctx).Model(&domain.ViewEvent{}).Where("guide_slug = ?", slug)

	if err := q.Count(&st.TotalViews).Error; err != nil {
		return domain.GuideViewStats{}, err
	}
	if st.TotalViews == 0 {
		return st, nil
	}
	if err := db.WithContext(ctx).Model(&domain.ViewEvent{}).
		Where("guide_slug = ?", slug).
		Distinct("client_id").
		Count(&st.UniqueViewers).Error; err != nil {
		return domain.GuideViewStats{}, err
	}
	return st, nil
}

// OverallStats aggregates across every guide.
func OverallStats(ctx context.Context, db *gorm.DB) (domain.OverallViewStats, error) {
	var st domain.OverallViewStats
	base := func() *gorm.DB { return db.WithContext(ctx).Model(&domain.ViewEvent{}) }

	if err := base().Count(&st.TotalViews).Error; err != nil {
		return domain.OverallViewStats{}, err
	}
	if st.TotalViews == 0 {
		return st, nil
	}
	if err := base().Distinct("client_id").Count(&st.TotalUniqueViewers).Error; err != nil {
		return domain.OverallViewStats{}, err
	}
	if err := base().Distinct("guide_slug").Count(&st.TotalGuidesWithViews).Error; err != nil {
		return domain.OverallViewStats{}, err
	}
	return st, nil
}

// TopGuides ranks guides by unique viewers, then total views, then slug so
// exact ties come back in a stable order. limit <= 0 yields an empty result.
func TopGuides(ctx context.Context, db *gorm.DB, limit int) ([]domain.GuideRanking, error) {
	out := []domain.GuideRanking{}
	if limit <= 0 {
		return out, nil
	}
	err := db.WithContext(ctx).
		Model(&domain.ViewEvent{}).
		Select("guide_slug AS slug, COUNT(*) AS total_views, COUNT(DISTINCT client_id) AS unique_viewers").
		Group("guide_slug").
		Order("unique_viewers DESC, total_views DESC, guide_slug ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ViewedGuides lists the slugs that have at least one view, sorted.
func ViewedGuides(ctx context.Context, db *gorm.DB) ([]string, error) {
	slugs := []string{}
	err := db.WithContext(ctx).
		Model(&domain.ViewEvent{}).
		Distinct("guide_slug").
		Order("guide_slug ASC").
		Pluck("guide_slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	return slugs, nil
}
