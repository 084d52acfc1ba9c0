package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/middleware"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type catalogService interface {
	Modalities(ctx context.Context) ([]models.Modality, error)
	ResearchLines(ctx context.Context) ([]models.ResearchLine, error)
	Areas(ctx context.Context) ([]models.ResearchArea, error)
	LinesByArea(ctx context.Context, areaID int64) ([]models.ResearchLine, error)
	StatusChangeEvents(ctx context.Context) ([]models.StatusChangeEvent, error)
	Statuses(ctx context.Context) ([]models.StatusInfo, error)
	Invalidate(ctx context.Context) error
	CacheEnabled() bool
}

// CatalogHandler serves the backend reference catalogs.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Modalities godoc
// @Summary Project modalities
// @Tags Catalogs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /catalogs/modalities [get]
func (h *CatalogHandler) Modalities(c *gin.Context) {
	items, err := h.service.Modalities(c.Request.Context())
	h.respond(c, items, err)
}

// ResearchLines godoc
// @Summary Research lines
// @Tags Catalogs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /catalogs/research-lines [get]
func (h *CatalogHandler) ResearchLines(c *gin.Context) {
	items, err := h.service.ResearchLines(c.Request.Context())
	h.respond(c, items, err)
}

// Areas godoc
// @Summary Research areas
// @Tags Catalogs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /catalogs/areas [get]
func (h *CatalogHandler) Areas(c *gin.Context) {
	items, err := h.service.Areas(c.Request.Context())
	h.respond(c, items, err)
}

// LinesByArea godoc
// @Summary Research lines of one area
// @Tags Catalogs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Area ID"
// @Success 200 {object} response.Envelope
// @Router /catalogs/areas/{id}/research-lines [get]
func (h *CatalogHandler) LinesByArea(c *gin.Context) {
	areaID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.LinesByArea(c.Request.Context(), areaID)
	h.respond(c, items, err)
}

// StatusEvents godoc
// @Summary Status-change events
// @Tags Catalogs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /catalogs/status-events [get]
func (h *CatalogHandler) StatusEvents(c *gin.Context) {
	items, err := h.service.StatusChangeEvents(c.Request.Context())
	h.respond(c, items, err)
}

// Statuses godoc
// @Summary Project statuses
// @Tags Catalogs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /catalogs/statuses [get]
func (h *CatalogHandler) Statuses(c *gin.Context) {
	items, err := h.service.Statuses(c.Request.Context())
	h.respond(c, items, err)
}

// Invalidate godoc
// @Summary Drop cached catalogs
// @Tags Catalogs
// @Security BearerAuth
// @Success 204
// @Router /catalogs/cache [delete]
func (h *CatalogHandler) Invalidate(c *gin.Context) {
	if err := h.service.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogHandler) respond(c *gin.Context, items interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "cache_enabled", h.service.CacheEnabled())
	response.JSON(c, http.StatusOK, items, nil, meta(c))
}
