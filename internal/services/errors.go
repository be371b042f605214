// Package services defines the business logic of the guide server: the view
// ledger, guide authoring and publishing, and admin authentication.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Guide-related errors.
var (
	// ErrGuideNotFound indicates that no guide directory exists for the slug.
	ErrGuideNotFound = errors.New("guide not found")

	// ErrTutorialNotFound is returned when a guide exists but has never been
	// published.
	ErrTutorialNotFound = errors.New("tutorial not found")

	// ErrDraftNotFound is returned when a guide has no saved draft.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrPreviewNotFound is returned when a guide has no preview documents.
	ErrPreviewNotFound = errors.New("preview not found")

	// ErrInvalidSlug is returned for slugs outside [A-Za-z0-9_-]{3,50}.
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrSlugTaken is returned when creating a guide under a slug in use.
	ErrSlugTaken = errors.New("slug already taken")

	// ErrInvalidGuide is returned when a guide fails structural validation.
	ErrInvalidGuide = errors.New("invalid guide")
)

// View ledger errors.
var (
	// ErrStorageUnavailable wraps any database failure of the view ledger.
	// Callers treat it as "no data", never as a request failure.
	ErrStorageUnavailable = errors.New("view storage unavailable")
)

// Authentication errors.
var (
	// ErrInvalidCredentials is returned when the admin password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
