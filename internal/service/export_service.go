package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/pkg/export"
	"github.com/noah-isme/thesis-portal/pkg/storage"
)

type adminProjectSource interface {
	ProjectsByAdmin(ctx context.Context, cedula string) ([]models.Project, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
	Rows         int
}

// exportHeaders are the admin table columns without the action buttons.
var exportHeaders = []string{"ID", "Título", "Estudiantes", "Programa", "Director", "Fase", "Estado", "Fecha Inicio", "Progreso"}

// ExportService renders the admin project table and persists the file.
type ExportService struct {
	projects adminProjectSource
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(projects adminProjectSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(map[string]float64{"ID": 0.4, "Título": 3, "Estudiantes": 2.2, "Progreso": 0.6})
	}
	return &ExportService{
		projects: projects,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate fetches the admin's projects, renders them and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	projects, err := s.projects.ProjectsByAdmin(ctx, job.Params.AdminCedula)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	dataset := BuildExportDataset(FilterProjects(projects, job.Params), s.now())

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("export generated",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
		Rows:         len(dataset.Rows),
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("proyectos_%s_%s_%s.%s", sanitizeFilename(job.Params.AdminCedula), timestamp, shortID(job.ID), job.Format)
}

// FilterProjects applies the status and title filters of an export.
func FilterProjects(projects []models.Project, params models.ExportJobParams) []models.Project {
	if len(params.Estados) == 0 && params.Titulo == "" {
		return projects
	}
	wanted := make(map[models.ProjectStatus]bool, len(params.Estados))
	for _, st := range params.Estados {
		wanted[st] = true
	}
	needle := strings.ToLower(strings.TrimSpace(params.Titulo))
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if len(wanted) > 0 && !wanted[p.Estado] {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Titulo), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BuildExportDataset renders projects as the admin table.
func BuildExportDataset(projects []models.Project, generatedAt time.Time) export.Dataset {
	rows := BuildRows(projects, nil, true)
	data := export.Dataset{
		Title:   fmt.Sprintf("Proyectos de grado - %s", FormatDateLong(generatedAt.Format("2006-01-02"))),
		Headers: exportHeaders,
		Rows:    make([][]string, 0, len(rows)),
	}
	for i, row := range rows {
		data.Rows = append(data.Rows, []string{
			fmt.Sprintf("%d", row.ID),
			row.Titulo,
			row.Estudiantes,
			row.Programa,
			row.Director,
			row.Fase.Label,
			StatusLabel(projects[i].Estado),
			row.Fecha,
			fmt.Sprintf("%.0f%%", projects[i].PorcentajeAvance),
		})
	}
	return data
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func shortID(id string) string {
	id = sanitizeFilename(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
