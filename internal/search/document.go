package search

import (
	"strings"

	"github.com/sockheadrps/pycourse/internal/domain"
)

// FromTutorial splits a published tutorial into searchable passages: the
// title with the description, then every phase and every step.
func FromTutorial(slug string, t domain.Tutorial) Document {
	d := Document{Slug: slug, Title: t.Title}
	d.Passages = append(d.Passages, join(t.Title, t.Description))
	for _, p := range t.Phases {
		d.Passages = append(d.Passages, join(p.Title, p.Description))
		for _, s := range p.Steps {
			d.Passages = append(d.Passages, join(s.Title, s.Description))
		}
	}
	return d
}

func join(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ". ")
}
