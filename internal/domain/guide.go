package domain

import (
	"fmt"
	"strings"
)

// TutorialSchemaVersion is the version written into every published
// tutorial.json. Documents without a version predate it and are migrated
// by Normalize when read.
const TutorialSchemaVersion = 2

// Step is a single instruction inside a tutorial phase.
type Step struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	File        string `json:"file,omitempty"`
	CodeSnippet string `json:"code_snippet,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Phase groups consecutive steps under a numbered heading.
type Phase struct {
	Phase       int    `json:"phase"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps"`
}

// Assets lists extra stylesheets and scripts linked from the rendered page.
type Assets struct {
	CSS []string `json:"css,omitempty"`
	JS  []string `json:"js,omitempty"`
}

// Tutorial is the content of a guide.
//
// Assets is only populated by legacy documents that nested the asset lists
// inside the tutorial object; Normalize lifts it to the document level.
type Tutorial struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Phases      []Phase `json:"phases"`
	Assets      *Assets `json:"assets,omitempty"`
}

// TotalSteps counts the steps across all phases.
func (t Tutorial) TotalSteps() int {
	n := 0
	for _, p := range t.Phases {
		n += len(p.Steps)
	}
	return n
}

// FlowStep is a node in the flow diagram.
type FlowStep struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// FlowPhase groups flow diagram nodes.
type FlowPhase struct {
	Phase int        `json:"phase"`
	Title string     `json:"title"`
	Steps []FlowStep `json:"steps"`
}

// Flow is the optional diagram rendered next to a tutorial. It is embedded
// in the page as JSON and drawn client-side.
type Flow struct {
	Title  string      `json:"title,omitempty"`
	Phases []FlowPhase `json:"phases"`
}

// TotalSteps counts the nodes across all flow phases.
func (f *Flow) TotalSteps() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, p := range f.Phases {
		n += len(p.Steps)
	}
	return n
}

// Guide is the structured object edited in the admin UI. Drafts are stored
// as-is; publishing splits it into a TutorialDocument and a Flow.
type Guide struct {
	Tutorial Tutorial `json:"tutorial"`
	Flow     *Flow    `json:"flow,omitempty"`
	Assets   Assets   `json:"assets"`
}

// Validate reports the first structural problem with g, or "" when the
// guide can be published.
func (g Guide) Validate() string {
	if strings.TrimSpace(g.Tutorial.Title) == "" {
		return "tutorial title is required"
	}
	for i, p := range g.Tutorial.Phases {
		for j, s := range p.Steps {
			if strings.TrimSpace(s.Description) == "" && strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.CodeSnippet) == "" {
				return fmt.Sprintf("phase %d step %d is empty", i+1, j+1)
			}
		}
	}
	return ""
}

// Document returns the published tutorial document for g.
func (g Guide) Document() TutorialDocument {
	doc := TutorialDocument{
		SchemaVersion: TutorialSchemaVersion,
		Tutorial:      g.Tutorial,
		Assets:        g.Assets,
	}
	doc.Normalize()
	return doc
}

// TutorialDocument is the on-disk shape of tutorial.json.
type TutorialDocument struct {
	SchemaVersion int      `json:"schema_version"`
	Tutorial      Tutorial `json:"tutorial"`
	Assets        Assets   `json:"assets"`
}

// Normalize migrates d to the current schema in place and reports whether
// anything changed. Legacy documents carry no schema version and may nest
// their assets under the tutorial object.
func (d *TutorialDocument) Normalize() bool {
	changed := false
	if nested := d.Tutorial.Assets; nested != nil {
		d.Assets.CSS = appendMissing(d.Assets.CSS, nested.CSS)
		d.Assets.JS = appendMissing(d.Assets.JS, nested.JS)
		d.Tutorial.Assets = nil
		changed = true
	}
	if d.Tutorial.Phases == nil {
		d.Tutorial.Phases = []Phase{}
		changed = true
	}
	for i := range d.Tutorial.Phases {
		if d.Tutorial.Phases[i].Steps == nil {
			d.Tutorial.Phases[i].Steps = []Step{}
			changed = true
		}
	}
	if d.SchemaVersion != TutorialSchemaVersion {
		d.SchemaVersion = TutorialSchemaVersion
		changed = true
	}
	return changed
}

// Guide rebuilds the editor object from a published document and its flow.
func (d TutorialDocument) Guide(flow *Flow) Guide {
	return Guide{Tutorial: d.Tutorial, Flow: flow, Assets: d.Assets}
}

func appendMissing(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
