// Package search provides a deterministic, concurrency-safe in-memory index
// over guide text. Each guide contributes several passages (its title and
// description, every phase, every step); a query is matched against the
// passages and the best passage of each guide becomes that guide's snippet.
//
// Scoring uses Jaccard similarity between the query token set and each
// passage's token set: score = |Q ∩ P| / |Q ∪ P|. The index is immutable
// after construction, so it can be shared between goroutines freely.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is the searchable text of one guide.
type Document struct {
	Slug     string
	Title    string
	Passages []string
}

// Result is a ranked guide with the passage that matched best.
type Result struct {
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// DefaultK is used when TopK is called with k <= 0.
const DefaultK = 5

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minPassageRunes int
	stopwords       map[string]struct{}
	maxPassages     int
}

func defaultConfig() config {
	return config{
		minPassageRunes: 3,
		stopwords:       nil,
		maxPassages:     0,
	}
}

// WithMinPassageRunes drops passages shorter than n runes.
func WithMinPassageRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minPassageRunes = n
		}
	}
}

// WithStopwords excludes the given words from tokenization.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxPassages caps the number of passages indexed per guide.
func WithMaxPassages(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPassages = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type passage struct {
	guide  int
	text   string
	tokens map[string]struct{}
}

type guideRef struct {
	slug  string
	title string
}

type index struct {
	cfg      config
	guides   []guideRef
	passages []passage
}

// NewIndex builds an Index over docs.
func NewIndex(docs []Document, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	idx := &index{cfg: cfg, guides: make([]guideRef, 0, len(docs))}
	for _, d := range docs {
		gi := len(idx.guides)
		idx.guides = append(idx.guides, guideRef{slug: d.Slug, title: d.Title})
		count := 0
		for _, raw := range d.Passages {
			t := strings.TrimSpace(normalizeWhitespace(raw))
			if t == "" {
				continue
			}
			if cfg.minPassageRunes > 0 && utf8.RuneCountInString(t) < cfg.minPassageRunes {
				continue
			}
			toks := tokenize(t, cfg.stopwords)
			if len(toks) == 0 {
				continue
			}
			idx.passages = append(idx.passages, passage{guide: gi, text: t, tokens: toks})
			count++
			if cfg.maxPassages > 0 && count >= cfg.maxPassages {
				break
			}
		}
	}
	return idx
}

// TopK returns up to k guides ordered by their best passage score. Ties are
// broken by shorter snippet, then by slug.
func (i *index) TopK(q string, k int) []Result {
	if len(i.passages) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		passage  *passage
		score    float64
		lenRunes int
	}

	best := make(map[int]scored)
	for n := range i.passages {
		p := &i.passages[n]
		over := overlap(qTokens, p.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(p.tokens) - over)
		if union <= 0 {
			continue
		}
		cand := scored{passage: p, score: float64(over) / union, lenRunes: utf8.RuneCountInString(p.text)}
		if cur, ok := best[p.guide]; !ok || better(cand.score, cand.lenRunes, cand.passage.text, cur.score, cur.lenRunes, cur.passage.text) {
			best[p.guide] = cand
		}
	}
	if len(best) == 0 {
		return nil
	}

	buf := make([]scored, 0, len(best))
	for _, s := range best {
		buf = append(buf, s)
	}
	sort.Slice(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return i.guides[buf[a].passage.guide].slug < i.guides[buf[b].passage.guide].slug
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		g := i.guides[buf[n].passage.guide]
		out[n] = Result{Slug: g.slug, Title: g.title, Snippet: buf[n].passage.text, Score: buf[n].score}
	}
	return out
}

func better(score float64, runes int, text string, curScore float64, curRunes int, curText string) bool {
	if score != curScore {
		return score > curScore
	}
	if runes != curRunes {
		return runes < curRunes
	}
	return text < curText
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
