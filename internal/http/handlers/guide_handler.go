// Public guide endpoints:
//   - GET /                           (HTML index)
//   - GET /guides                     (slugs)
//   - GET /guides/api/guides          (catalog, ETag support)
//   - GET /guides/search              (ranked catalog search)
//   - GET /guides/{slug}/tutorial     (HTML page, records a view)
//   - GET /guides/{slug}/stats        (view counts)
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sockheadrps/pycourse/internal/domain"
	"github.com/sockheadrps/pycourse/internal/guides"
	"github.com/sockheadrps/pycourse/internal/search"
	"github.com/sockheadrps/pycourse/internal/services"
	"github.com/sockheadrps/pycourse/internal/sysutil"
	"github.com/sockheadrps/pycourse/internal/utils"
)

const maxSearchResults = 50

//
// DTOs
//

// SlugListResponse lists guide slugs.
type SlugListResponse struct {
	Guides []string `json:"guides"`
}

// GuideListResponse is the guide catalog.
type GuideListResponse struct {
	Guides []services.GuideSummary `json:"guides"`
	Total  int                     `json:"total"`
}

// SearchResponse carries ranked search hits.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

//
// Handlers
//

// Index godoc
// @ID          guideIndex
// @Summary     Guide index page
// @Tags        Guides
// @Produce     html
// @Success     200  {string}  string  "HTML page"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      / [get]
func (h *Handlers) Index(c *gin.Context) {
	page, err := h.guides.IndexPage(c.Request.Context())
	if err != nil {
		failService(c, err, "render index failed")
		return
	}
	html(c, page)
}

// ListGuideSlugs godoc
// @ID          listGuideSlugs
// @Summary     List guide slugs
// @Tags        Guides
// @Produce     json
// @Success     200  {object}  handlers.SlugListResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /guides [get]
func (h *Handlers) ListGuideSlugs(c *gin.Context) {
	slugs, err := h.guides.Slugs(c.Request.Context())
	if err != nil {
		failService(c, err, "list guides failed")
		return
	}
	if slugs == nil {
		slugs = []string{}
	}
	ok(c, http.StatusOK, SlugListResponse{Guides: slugs})
}

// ListGuides godoc
// @ID          listGuides
// @Summary     Guide catalog
// @Description Returns every guide with its publication state. Supports a weak ETag via If-None-Match.
// @Tags        Guides
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.GuideListResponse
// @Header      200  {string}  ETag  "Weak ETag for current catalog"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /guides/api/guides [get]
func (h *Handlers) ListGuides(c *gin.Context) {
	list, err := h.guides.List(c.Request.Context())
	if err != nil {
		failService(c, err, "list guides failed")
		return
	}
	if list == nil {
		list = []services.GuideSummary{}
	}
	resp := GuideListResponse{Guides: list, Total: len(list)}

	body, err := json.Marshal(resp)
	if err != nil {
		failService(c, err, "encode catalog failed")
		return
	}
	sum := sha256.Sum256(body)
	etag := `W/"guides:` + hex.EncodeToString(sum[:8]) + `"`
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// SearchGuides godoc
// @ID          searchGuides
// @Summary     Search published guides
// @Tags        Guides
// @Produce     json
// @Param       q  query  string  true   "Search text"
// @Param       k  query  int     false  "Maximum results"  minimum(1) maximum(50) default(5)
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /guides/search [get]
func (h *Handlers) SearchGuides(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	k := utils.BoundedAtoi(c.Query("k"), search.DefaultK, 1, maxSearchResults)
	ok(c, http.StatusOK, SearchResponse{Query: q, Results: h.guides.Search(c.Request.Context(), q, k)})
}

// Tutorial godoc
// @ID          guideTutorial
// @Summary     Tutorial page
// @Description Serves the rendered tutorial. Published reads count as a view of the guide; previews do not.
// @Tags        Guides
// @Produce     html
// @Param       slug     path   string  true   "Guide slug"
// @Param       preview  query  bool    false  "Serve the unpublished preview"
// @Success     200  {string}  string  "HTML page"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /guides/{slug}/tutorial [get]
func (h *Handlers) Tutorial(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")
	preview := sysutil.IsTruthy(c.Query("preview"))

	page, err := h.guides.Tutorial(ctx, slug, preview)
	if err != nil {
		failService(c, err, "render tutorial failed")
		return
	}
	if !preview {
		// Errors are logged by the ledger; a lost view never fails the page.
		_, _ = h.views.RecordView(ctx, services.View{
			Slug:      slug,
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}
	html(c, page)
}

// GuideStats godoc
// @ID          guideStats
// @Summary     View counts of a guide
// @Description Zero counts are returned when the view store is unavailable.
// @Tags        Guides
// @Produce     json
// @Param       slug  path  string  true  "Guide slug"
// @Success     200  {object}  domain.GuideViewStats
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /guides/{slug}/stats [get]
func (h *Handlers) GuideStats(c *gin.Context) {
	slug := c.Param("slug")
	if err := guides.ValidateSlug(slug); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidSlug, err.Error())
		return
	}
	st, err := h.views.GuideStats(c.Request.Context(), slug)
	if err != nil {
		st = domain.GuideViewStats{}
	}
	ok(c, http.StatusOK, st)
}
