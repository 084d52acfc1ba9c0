package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type exportJobService interface {
	CreateJob(ctx context.Context, identity *models.Identity, req dto.ExportRequest) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, identity *models.Identity, id string) (*dto.ExportStatusResponse, error)
	ListJobs(ctx context.Context, identity *models.Identity, limit int) ([]dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

const defaultExportListLimit = 20

var exportMimeTypes = map[models.ExportFormat]string{
	models.ExportFormatCSV: "text/csv; charset=utf-8",
	models.ExportFormatPDF: "application/pdf",
}

// ExportHandler exposes the admin project table exports.
type ExportHandler struct {
	service exportJobService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportJobService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Create godoc
// @Summary Queue an export of the admin project table
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil, meta(c))
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil, meta(c))
}

// List godoc
// @Summary Recent export jobs of the current admin
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum jobs" default(20)
// @Success 200 {object} response.Envelope
// @Router /exports [get]
func (h *ExportHandler) List(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit := defaultExportListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit inválido"))
			return
		}
		limit = parsed
	}
	jobs, err := h.service.ListJobs(c.Request.Context(), identity, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, &response.Pagination{Limit: limit, Count: len(jobs)}, meta(c))
}

// Download godoc
// @Summary Download a finished export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	mime, ok := exportMimeTypes[result.Format]
	if !ok {
		mime = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mime, result.File, nil)
}
