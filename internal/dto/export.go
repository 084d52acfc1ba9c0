package dto

import (
	"time"

	"github.com/noah-isme/thesis-portal/internal/models"
)

// ExportRequest captures POST /exports.
type ExportRequest struct {
	Format  models.ExportFormat    `json:"formato" validate:"required,oneof=csv pdf"`
	Estados []models.ProjectStatus `json:"estados" validate:"omitempty,max=11,dive,required"`
	Titulo  string                 `json:"titulo" validate:"max=200"`
}

// ExportJobResponse acknowledges an enqueued export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse reports an export job.
type ExportStatusResponse struct {
	ID         string              `json:"id"`
	Format     models.ExportFormat `json:"formato"`
	Status     models.ExportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}
