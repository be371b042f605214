// Package render turns guide documents into HTML pages.
//
// Rendering is a pure function of its inputs: the same tutorial, flow and
// asset lists always produce the same bytes. The tutorial page template is
// embedded in the binary; a file on disk can replace it, and in reload mode
// that file is parsed again on every render so template edits show up
// without a restart.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"sync"

	"github.com/sockheadrps/pycourse/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	tutorialTemplate = "tutorial"
	indexTemplate    = "index"
)

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// Renderer executes the page templates. Safe for concurrent use.
type Renderer struct {
	path   string
	reload bool

	mu       sync.RWMutex
	tutorial *template.Template
	index    *template.Template
}

// New parses the templates. When path is non-empty it replaces the embedded
// tutorial template; reload re-reads it on every Tutorial call.
func New(path string, reload bool) (*Renderer, error) {
	index, err := template.New(indexTemplate).Funcs(funcs).ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	r := &Renderer{path: path, reload: reload && path != "", index: index}
	tpl, err := r.parseTutorial()
	if err != nil {
		return nil, err
	}
	r.tutorial = tpl
	return r, nil
}

func (r *Renderer) parseTutorial() (*template.Template, error) {
	var (
		t   *template.Template
		err error
	)
	if r.path == "" {
		t, err = template.New(tutorialTemplate).Funcs(funcs).ParseFS(templatesFS, "templates/tutorial.html")
	} else {
		t, err = template.New(filepath.Base(r.path)).Funcs(funcs).ParseFiles(r.path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse tutorial template: %w", err)
	}
	// A file may either define "tutorial" or be the page itself.
	if named := t.Lookup(tutorialTemplate); named != nil {
		return named, nil
	}
	return t, nil
}

// Page is the data handed to the tutorial template.
type Page struct {
	Title        string
	Description  string
	CSS          []string
	JS           []string
	Tutorial     domain.Tutorial
	TotalSteps   int
	Flow         *domain.Flow
	FlowJSON     string
	TutorialJSON string
	Preview      bool
}

// NewPage assembles the template data for a tutorial document and its
// optional flow.
func NewPage(doc domain.TutorialDocument, flow *domain.Flow, preview bool) (Page, error) {
	tj, err := json.Marshal(doc.Tutorial)
	if err != nil {
		return Page{}, fmt.Errorf("encode tutorial: %w", err)
	}
	p := Page{
		Title:        doc.Tutorial.Title,
		Description:  doc.Tutorial.Description,
		CSS:          doc.Assets.CSS,
		JS:           doc.Assets.JS,
		Tutorial:     doc.Tutorial,
		TotalSteps:   doc.Tutorial.TotalSteps(),
		Flow:         flow,
		TutorialJSON: string(tj),
		Preview:      preview,
	}
	if flow != nil {
		fj, err := json.Marshal(flow)
		if err != nil {
			return Page{}, fmt.Errorf("encode flow: %w", err)
		}
		p.FlowJSON = string(fj)
	}
	return p, nil
}

// Tutorial renders the tutorial page for doc. flow may be nil.
func (r *Renderer) Tutorial(doc domain.TutorialDocument, flow *domain.Flow, preview bool) ([]byte, error) {
	page, err := NewPage(doc, flow, preview)
	if err != nil {
		return nil, err
	}

	tpl, err := r.tutorialTemplate()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render tutorial: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) tutorialTemplate() (*template.Template, error) {
	if r.reload {
		tpl, err := r.parseTutorial()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.tutorial = tpl
		r.mu.Unlock()
		return tpl, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tutorial, nil
}

// IndexEntry is one guide on the index page.
type IndexEntry struct {
	Slug        string
	Title       string
	Description string
	URL         string
}

// Index renders the guide index page.
func (r *Renderer) Index(entries []IndexEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.index.ExecuteTemplate(&buf, indexTemplate, entries); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}
