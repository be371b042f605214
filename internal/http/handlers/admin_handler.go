// Admin endpoints. All of them sit behind middleware.RequireSession.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sockheadrps/pycourse/internal/domain"
	"github.com/sockheadrps/pycourse/internal/services"
	"github.com/sockheadrps/pycourse/internal/utils"
)

const maxTopGuides = 100

//
// DTOs
//

// SaveGuideRequest is the payload of save-draft and publish-guide. An empty
// slug derives one from the tutorial title. Create rejects an existing slug
// instead of overwriting it.
type SaveGuideRequest struct {
	Slug   string        `json:"slug" example:"python-basics"`
	Create bool          `json:"create"`
	Guide  *domain.Guide `json:"guide"`
}

// PreviewRequest is the payload of the preview endpoint.
type PreviewRequest struct {
	Slug  string        `json:"slug" example:"python-basics"`
	Guide *domain.Guide `json:"guide"`
}

// SaveGuideResponse reports where a guide was written.
type SaveGuideResponse struct {
	Status      string `json:"status" example:"success"`
	Message     string `json:"message" example:"draft saved"`
	Slug        string `json:"slug" example:"python-basics"`
	Created     bool   `json:"created"`
	TutorialURL string `json:"tutorial_url,omitempty" example:"/guides/python-basics/tutorial"`
}

// DraftResponse carries the working copy of a guide.
type DraftResponse struct {
	Slug  string       `json:"slug"`
	Guide domain.Guide `json:"guide"`
}

// PreviewResponse points at the rendered preview.
type PreviewResponse struct {
	Status     string `json:"status" example:"success"`
	Slug       string `json:"slug"`
	PreviewURL string `json:"preview_url" example:"/guides/python-basics/tutorial?preview=true"`
}

// AdminStatsResponse is the admin analytics summary.
type AdminStatsResponse struct {
	Overall      domain.OverallViewStats `json:"overall"`
	TopGuides    []domain.GuideRanking   `json:"top_guides"`
	ViewedGuides []string                `json:"viewed_guides"`
}

func previewURL(slug string) string { return services.TutorialURL(slug) + "?preview=true" }

//
// Handlers
//

// GetDraft godoc
// @ID          getDraft
// @Summary     Load a guide for editing
// @Description Returns the saved draft, or the published documents when no draft exists.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       slug  path  string  true  "Guide slug"
// @Success     200  {object}  handlers.DraftResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/guides/{slug}/draft [get]
func (h *Handlers) GetDraft(c *gin.Context) {
	slug := c.Param("slug")
	g, err := h.guides.Draft(c.Request.Context(), slug)
	if err != nil {
		failService(c, err, "load draft failed")
		return
	}
	ok(c, http.StatusOK, DraftResponse{Slug: slug, Guide: g})
}

// SaveDraft godoc
// @ID          saveDraft
// @Summary     Save a draft
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.SaveGuideRequest  true  "Draft"
// @Success     200  {object}  handlers.SaveGuideResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /admin/save-draft [post]
func (h *Handlers) SaveDraft(c *gin.Context) {
	req, good := bindSave(c)
	if !good {
		return
	}
	res, err := h.guides.SaveDraft(c.Request.Context(), req.Slug, *req.Guide, req.Create)
	if err != nil {
		failService(c, err, "save draft failed")
		return
	}
	ok(c, http.StatusOK, SaveGuideResponse{Status: "success", Message: "draft saved", Slug: res.Slug, Created: res.Created})
}

// PublishGuide godoc
// @ID          publishGuide
// @Summary     Publish a guide
// @Description Validates the guide, stores it as draft and published documents and renders its page.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.SaveGuideRequest  true  "Guide"
// @Success     200  {object}  handlers.SaveGuideResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/publish-guide [post]
func (h *Handlers) PublishGuide(c *gin.Context) {
	req, good := bindSave(c)
	if !good {
		return
	}
	res, err := h.guides.Publish(c.Request.Context(), req.Slug, *req.Guide, req.Create)
	if err != nil {
		failService(c, err, "publish failed")
		return
	}
	ok(c, http.StatusOK, SaveGuideResponse{
		Status:      "success",
		Message:     "guide published",
		Slug:        res.Slug,
		Created:     res.Created,
		TutorialURL: services.TutorialURL(res.Slug),
	})
}

// RegenerateGuide godoc
// @ID          regenerateGuide
// @Summary     Publish the saved draft
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       slug  path  string  true  "Guide slug"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/regenerate-guide/{slug} [post]
func (h *Handlers) RegenerateGuide(c *gin.Context) {
	if err := h.guides.PublishDraft(c.Request.Context(), c.Param("slug")); err != nil {
		failService(c, err, "regenerate failed")
		return
	}
	success(c, "guide regenerated from draft")
}

// PreviewDraft godoc
// @ID          previewDraft
// @Summary     Preview the saved draft
// @Description Copies the draft to the preview documents and returns the rendered page.
// @Tags        Admin
// @Produce     html
// @Security    BearerAuth
// @Param       slug  path  string  true  "Guide slug"
// @Success     200  {string}  string  "HTML page"
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/preview-guide/{slug} [get]
func (h *Handlers) PreviewDraft(c *gin.Context) {
	page, err := h.guides.PreviewDraft(c.Request.Context(), c.Param("slug"))
	if err != nil {
		failService(c, err, "preview failed")
		return
	}
	html(c, page)
}

// PreviewGuide godoc
// @ID          previewGuide
// @Summary     Store a preview
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.PreviewRequest  true  "Guide to preview"
// @Success     200  {object}  handlers.PreviewResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/preview-guide [post]
func (h *Handlers) PreviewGuide(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Guide == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: slug and guide are required")
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if err := h.guides.Preview(c.Request.Context(), slug, *req.Guide); err != nil {
		failService(c, err, "preview failed")
		return
	}
	ok(c, http.StatusOK, PreviewResponse{Status: "success", Slug: slug, PreviewURL: previewURL(slug)})
}

// ClearPreview godoc
// @ID          clearPreview
// @Summary     Remove a preview
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       slug  path  string  true  "Guide slug"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/preview-guide/{slug} [delete]
func (h *Handlers) ClearPreview(c *gin.Context) {
	if err := h.guides.ClearPreview(c.Request.Context(), c.Param("slug")); err != nil {
		failService(c, err, "clear preview failed")
		return
	}
	success(c, "preview cleared")
}

// DeleteGuide godoc
// @ID          deleteGuide
// @Summary     Delete a guide
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       slug  path  string  true  "Guide slug"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/delete-guide/{slug} [delete]
func (h *Handlers) DeleteGuide(c *gin.Context) {
	if err := h.guides.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		failService(c, err, "delete failed")
		return
	}
	success(c, "guide deleted")
}

// RegenerateAll godoc
// @ID          regenerateAll
// @Summary     Re-render every published guide
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.RegenerateReport
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/regenerate [post]
func (h *Handlers) RegenerateAll(c *gin.Context) {
	rep, err := h.guides.RegenerateAll(c.Request.Context())
	if err != nil {
		failService(c, err, "regenerate failed")
		return
	}
	ok(c, http.StatusOK, rep)
}

// CheckSlug godoc
// @ID          checkSlug
// @Summary     Check slug availability
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       slug  query  string  true  "Candidate slug"
// @Success     200  {object}  services.SlugCheck
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /admin/check-slug [get]
func (h *Handlers) CheckSlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Query("slug"))
	if slug == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter slug is required")
		return
	}
	ok(c, http.StatusOK, h.guides.CheckSlug(c.Request.Context(), slug))
}

// AdminStats godoc
// @ID          adminStats
// @Summary     View analytics
// @Description Overall counts, the top guides and every viewed slug. Zero values are returned when the view store is unavailable.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query  int  false  "Size of the top-guides ranking"  minimum(1) maximum(100)
// @Success     200  {object}  handlers.AdminStatsResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /admin/stats [get]
func (h *Handlers) AdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	limit := utils.BoundedAtoi(c.Query("limit"), h.topLimit, 1, maxTopGuides)

	// The ledger already degrades to zero values on storage errors.
	overall, _ := h.views.OverallStats(ctx)
	top, _ := h.views.TopGuides(ctx, limit)
	viewed, _ := h.views.ViewedGuides(ctx)
	if top == nil {
		top = []domain.GuideRanking{}
	}
	if viewed == nil {
		viewed = []string{}
	}
	ok(c, http.StatusOK, AdminStatsResponse{Overall: overall, TopGuides: top, ViewedGuides: viewed})
}

//
// Helpers
//

// bindSave decodes a SaveGuideRequest, answering 400 itself on failure.
func bindSave(c *gin.Context) (SaveGuideRequest, bool) {
	var req SaveGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return req, false
	}
	if req.Guide == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "guide is required")
		return req, false
	}
	req.Slug = strings.TrimSpace(req.Slug)
	return req, true
}
