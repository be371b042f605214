// Package guides stores guide documents on disk. Every guide is a directory
// named after its slug under a single root; the directory existing is what
// makes the guide exist.
//
// Layout of a guide directory:
//
//	draft.json          working copy edited in the admin UI (domain.Guide)
//	tutorial.json       published tutorial (domain.TutorialDocument)
//	flow.json           published flow diagram, optional (domain.Flow)
//	temp_tutorial.json  preview tutorial, removed by ClearPreview
//	temp_flow.json      preview flow, removed by ClearPreview
//	tutorial.html       rendered page cache
//
// JSON documents are written to a temporary file and renamed into place, so
// readers never observe a partially written document.
package guides

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sockheadrps/pycourse/internal/domain"
)

// File names inside a guide directory.
const (
	DraftFile           = "draft.json"
	TutorialFile        = "tutorial.json"
	FlowFile            = "flow.json"
	PreviewTutorialFile = "temp_tutorial.json"
	PreviewFlowFile     = "temp_flow.json"
	HTMLFile            = "tutorial.html"
)

var (
	// ErrNotFound is returned when a guide or one of its documents is missing.
	ErrNotFound = errors.New("guide document not found")
	// ErrExists is returned by Create for a slug that is already in use.
	ErrExists = errors.New("guide already exists")
)

// Store reads and writes guide documents below Root.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create guides dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the directory holding all guides.
func (s *Store) Root() string { return s.root }

// Dir returns the directory of slug. The slug is validated first so that
// no caller can escape Root.
func (s *Store) Dir(slug string) (string, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	return filepath.Join(s.root, slug), nil
}

func (s *Store) path(slug, name string) (string, error) {
	dir, err := s.Dir(slug)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// List returns the slugs of all guides in lexical order. Directories whose
// names are not valid slugs are skipped.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || ValidateSlug(e.Name()) != nil {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether a guide directory exists for slug. A plain file
// or symlink with the slug's name is not a guide, so Exists is false for it
// even though Create would fail; use Taken when allocating a new slug.
func (s *Store) Exists(slug string) bool {
	dir, err := s.Dir(slug)
	if err != nil {
		return false
	}
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}

// Taken reports whether Create(slug) would collide with an entry already in
// the root, whatever its kind. Invalid slugs are never taken.
func (s *Store) Taken(slug string) bool {
	dir, err := s.Dir(slug)
	if err != nil {
		return false
	}
	_, err = os.Lstat(dir)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// Has reports whether the guide holds the named file.
func (s *Store) Has(slug, name string) bool {
	p, err := s.path(slug, name)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// Create makes the directory for a new guide.
func (s *Store) Create(slug string) error {
	dir, err := s.Dir(slug)
	if err != nil {
		return err
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", slug, ErrExists)
		}
		return err
	}
	return nil
}

// Delete removes the guide and every document in it.
func (s *Store) Delete(slug string) error {
	if !s.Exists(slug) {
		return fmt.Errorf("%s: %w", slug, ErrNotFound)
	}
	dir, _ := s.Dir(slug)
	return os.RemoveAll(dir)
}

// ReadTutorial loads the published tutorial, migrated to the current schema.
func (s *Store) ReadTutorial(slug string) (domain.TutorialDocument, error) {
	return s.readDocument(slug, TutorialFile)
}

// ReadFlow loads the published flow. A guide without flow.json yields nil.
func (s *Store) ReadFlow(slug string) (*domain.Flow, error) {
	return s.readFlow(slug, FlowFile)
}

// Publish writes tutorial.json and flow.json for g, overwriting whatever was
// published before. A guide without a flow loses any stale flow.json.
func (s *Store) Publish(slug string, g domain.Guide) error {
	return s.writePair(slug, TutorialFile, FlowFile, g)
}

// ReadDraft loads the working copy of a guide.
func (s *Store) ReadDraft(slug string) (domain.Guide, error) {
	var g domain.Guide
	if err := s.readJSON(slug, DraftFile, &g); err != nil {
		return domain.Guide{}, err
	}
	return g, nil
}

// WriteDraft replaces the working copy of a guide.
func (s *Store) WriteDraft(slug string, g domain.Guide) error {
	return s.writeJSON(slug, DraftFile, g)
}

// ReadPreview loads the preview documents written by WritePreview.
func (s *Store) ReadPreview(slug string) (domain.TutorialDocument, *domain.Flow, error) {
	doc, err := s.readDocument(slug, PreviewTutorialFile)
	if err != nil {
		return domain.TutorialDocument{}, nil, err
	}
	flow, err := s.readFlow(slug, PreviewFlowFile)
	if err != nil {
		return domain.TutorialDocument{}, nil, err
	}
	return doc, flow, nil
}

// WritePreview writes g to the preview files without touching the
// published documents.
func (s *Store) WritePreview(slug string, g domain.Guide) error {
	return s.writePair(slug, PreviewTutorialFile, PreviewFlowFile, g)
}

// ClearPreview removes the preview files. Missing files are not an error.
func (s *Store) ClearPreview(slug string) error {
	if !s.Exists(slug) {
		return fmt.Errorf("%s: %w", slug, ErrNotFound)
	}
	for _, name := range []string{PreviewTutorialFile, PreviewFlowFile} {
		if err := s.remove(slug, name); err != nil {
			return err
		}
	}
	return nil
}

// ReadHTML returns the cached rendered page.
func (s *Store) ReadHTML(slug string) ([]byte, error) {
	p, err := s.path(slug, HTMLFile)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", slug, HTMLFile, ErrNotFound)
	}
	return b, err
}

// WriteHTML replaces the cached rendered page.
func (s *Store) WriteHTML(slug string, html []byte) error {
	return s.writeFile(slug, HTMLFile, html)
}

// RemoveHTML drops the cached rendered page so the next read renders again.
func (s *Store) RemoveHTML(slug string) error {
	return s.remove(slug, HTMLFile)
}

// ---- helpers ----

func (s *Store) readDocument(slug, name string) (domain.TutorialDocument, error) {
	var doc domain.TutorialDocument
	if err := s.readJSON(slug, name, &doc); err != nil {
		return domain.TutorialDocument{}, err
	}
	doc.Normalize()
	return doc, nil
}

func (s *Store) readFlow(slug, name string) (*domain.Flow, error) {
	var f domain.Flow
	err := s.readJSON(slug, name, &f)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) writePair(slug, tutorialName, flowName string, g domain.Guide) error {
	if err := s.writeJSON(slug, tutorialName, g.Document()); err != nil {
		return err
	}
	if g.Flow == nil {
		return s.remove(slug, flowName)
	}
	return s.writeJSON(slug, flowName, g.Flow)
}

func (s *Store) readJSON(slug, name string, v any) error {
	p, err := s.path(slug, name)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", slug, name, ErrNotFound)
		}
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", slug, name, err)
	}
	return nil
}

func (s *Store) writeJSON(slug, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", slug, name, err)
	}
	return s.writeFile(slug, name, append(b, '\n'))
}

// writeFile writes data next to its destination and renames it into place.
func (s *Store) writeFile(slug, name string, data []byte) error {
	p, err := s.path(slug, name)
	if err != nil {
		return err
	}
	if !s.Exists(slug) {
		return fmt.Errorf("%s: %w", slug, ErrNotFound)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (s *Store) remove(slug, name string) error {
	p, err := s.path(slug, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
