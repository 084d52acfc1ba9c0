package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// Steps of the two-call meeting details registration.
const (
	StepMeetingDetails    = "registrar_detalles"
	StepMeetingAttendance = "marcar_asistencia"
)

// PartialUpdateError reports a multi-call update that stopped midway. Calls
// before Step were applied and are not rolled back.
type PartialUpdateError struct {
	Step string
	Err  error
}

func (e *PartialUpdateError) Error() string {
	return fmt.Sprintf("partial update failed at %s: %v", e.Step, e.Err)
}

func (e *PartialUpdateError) Unwrap() error { return e.Err }

// Is matches appErrors.ErrPartialUpdate.
func (e *PartialUpdateError) Is(target error) bool {
	t, ok := target.(*appErrors.Error)
	return ok && t.Code == appErrors.ErrPartialUpdate.Code
}

// AppError exposes the failure as ErrPartialUpdate carrying the step and the
// backend message.
func (e *PartialUpdateError) AppError() *appErrors.Error {
	appErr := appErrors.Clone(appErrors.ErrPartialUpdate, appErrors.FromError(e.Err).Message)
	appErr.Step = e.Step
	appErr.Err = e.Err
	return appErr
}

type meetingBackend interface {
	RequestMeeting(ctx context.Context, input models.MeetingRequestInput) (*models.Meeting, error)
	MeetingsByDirector(ctx context.Context, cedula string) ([]models.Meeting, error)
	MeetingsByStudent(ctx context.Context, cedula string) ([]models.Meeting, error)
	RegisterMeetingDetails(ctx context.Context, input models.MeetingDetailsInput) error
	MarkAttendance(ctx context.Context, meetingID int64, input models.AttendanceInput) error
}

// MeetingServiceParams groups meeting dependencies.
type MeetingServiceParams struct {
	Backend     meetingBackend
	Dashboard   dashboardReloader
	Permissions permissionChecker
	Auditor     auditRecorder
	Validator   *validator.Validate
	Location    *time.Location
	Logger      *zap.Logger
	Now         func() time.Time
}

// MeetingService runs the meeting lifecycle between students and directors.
type MeetingService struct {
	backend     meetingBackend
	dashboard   dashboardReloader
	permissions permissionChecker
	auditor     auditRecorder
	validator   *validator.Validate
	loc         *time.Location
	logger      *zap.Logger
	now         func() time.Time
	guard       *mutationGuard
}

// MeetingView is a meeting annotated for display.
type MeetingView struct {
	models.Meeting
	EsPasada               bool `json:"esPasada"`
	PuedeRegistrarDetalles bool `json:"puedeRegistrarDetalles"`
}

// NewMeetingService constructs the service. Meeting times are interpreted
// in Location, which defaults to time.Local.
func NewMeetingService(params MeetingServiceParams) *MeetingService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Location == nil {
		params.Location = time.Local
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &MeetingService{
		backend:     params.Backend,
		dashboard:   params.Dashboard,
		permissions: params.Permissions,
		auditor:     params.Auditor,
		validator:   params.Validator,
		loc:         params.Location,
		logger:      params.Logger,
		now:         params.Now,
		guard:       newMutationGuard(),
	}
}

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM time into the
// backend meeting timestamp.
func CombineDateTime(fecha, hora string) string {
	return fmt.Sprintf("%sT%s:00", strings.TrimSpace(fecha), strings.TrimSpace(hora))
}

// IsPast reports whether the meeting time is before now. Unparseable times
// are never past.
func IsPast(meeting models.Meeting, now time.Time) bool {
	at, ok := meeting.ScheduledAt(now.Location())
	if !ok {
		return false
	}
	return at.Before(now)
}

// RequestMeeting asks the other party of a project for a meeting. Student
// requests go to the project director and director requests to the lead
// student.
func (s *MeetingService) RequestMeeting(ctx context.Context, sessionID string, identity *models.Identity, projectID int64, req dto.MeetingRequest) (*models.Meeting, error) {
	if !s.permissions.HasPermission(identity, PermScheduleMeeting) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "fecha u hora inválida")
	}
	if strings.TrimSpace(req.TemasPropuestos) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "indique los temas propuestos")
	}

	now := s.now().In(s.loc)
	day, err := time.ParseInLocation("2006-01-02", req.Fecha, s.loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "fecha inválida")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "la fecha de la reunión no puede ser anterior a hoy")
	}

	project, err := s.projectFor(sessionID, projectID)
	if err != nil {
		return nil, err
	}
	receptor, err := counterpart(identity, project)
	if err != nil {
		return nil, err
	}

	input := models.MeetingRequestInput{
		ProyectoID:        projectID,
		SolicitanteCedula: identity.Cedula,
		ReceptorCedula:    receptor,
		FechaReunion:      CombineDateTime(req.Fecha, req.Hora),
		DuracionMinutos:   req.DuracionMinutos,
		Tipo:              req.Tipo,
		TemasPropuestos:   strings.TrimSpace(req.TemasPropuestos),
		Observaciones:     optional(req.Observaciones),
	}
	if input.DuracionMinutos == 0 {
		input.DuracionMinutos = 60
	}
	if input.Tipo == "" {
		input.Tipo = models.MeetingVirtual
	}

	release, err := s.guard.acquire(sessionID + ":meeting:" + input.FechaReunion)
	if err != nil {
		return nil, err
	}
	defer release()

	meeting, err := s.backend.RequestMeeting(ctx, input)
	s.audit(ctx, identity, models.AuditActionRequestMeeting, &projectID, err)
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// List returns the caller's meetings, newest first, flagged with whether
// they already took place.
func (s *MeetingService) List(ctx context.Context, identity *models.Identity) ([]MeetingView, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var (
		meetings []models.Meeting
		err      error
	)
	switch identity.Rol {
	case models.RoleDirector:
		meetings, err = s.backend.MeetingsByDirector(ctx, identity.Cedula)
	case models.RoleStudent:
		meetings, err = s.backend.MeetingsByStudent(ctx, identity.Cedula)
	default:
		return nil, appErrors.ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	views := make([]MeetingView, 0, len(meetings))
	for _, m := range meetings {
		past := IsPast(m, now)
		views = append(views, MeetingView{
			Meeting:                m,
			EsPasada:               past,
			PuedeRegistrarDetalles: past && identity.Rol == models.RoleDirector && m.TemasTratados == "",
		})
	}
	return views, nil
}

// RegisterMeetingDetails records what happened in a past meeting: first
// the details, then the attendance. A failure returns a
// *PartialUpdateError naming the failed step.
func (s *MeetingService) RegisterMeetingDetails(ctx context.Context, sessionID string, identity *models.Identity, meeting models.Meeting, req dto.MeetingDetailsRequest) error {
	if identity == nil || identity.Rol != models.RoleDirector {
		return appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "indique los temas tratados")
	}
	if !IsPast(meeting, s.now().In(s.loc)) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "solo se pueden registrar detalles de reuniones pasadas")
	}

	release, err := s.guard.acquire(fmt.Sprintf("%s:meeting-details:%d", sessionID, meeting.ID))
	if err != nil {
		return err
	}
	defer release()

	projectID := meeting.ProyectoID
	err = s.backend.RegisterMeetingDetails(ctx, models.MeetingDetailsInput{
		ReunionID:      meeting.ID,
		TemasTratados:  strings.TrimSpace(req.TemasTratados),
		Acuerdos:       optional(req.Acuerdos),
		ProximaReunion: optional(req.ProximaReunion),
		Observaciones:  optional(req.Observaciones),
	})
	if err != nil {
		err = &PartialUpdateError{Step: StepMeetingDetails, Err: err}
		s.audit(ctx, identity, models.AuditActionRegisterMeeting, &projectID, err)
		return err
	}

	attended := req.AsistioEstudiante != nil && *req.AsistioEstudiante
	if err := s.backend.MarkAttendance(ctx, meeting.ID, models.AttendanceInput{
		AsistioEstudiante: attended,
		Observaciones:     optional(req.Observaciones),
	}); err != nil {
		s.logger.Warn("meeting details saved but attendance failed", zap.Int64("meeting_id", meeting.ID), zap.Error(err))
		err = &PartialUpdateError{Step: StepMeetingAttendance, Err: err}
		s.audit(ctx, identity, models.AuditActionRegisterMeeting, &projectID, err)
		return err
	}
	s.audit(ctx, identity, models.AuditActionRegisterMeeting, &projectID, nil)
	return nil
}

// FindMeeting looks a meeting up among the caller's meetings.
func (s *MeetingService) FindMeeting(ctx context.Context, identity *models.Identity, meetingID int64) (models.Meeting, error) {
	views, err := s.List(ctx, identity)
	if err != nil {
		return models.Meeting{}, err
	}
	for _, v := range views {
		if v.ID == meetingID {
			return v.Meeting, nil
		}
	}
	return models.Meeting{}, appErrors.Clone(appErrors.ErrNotFound, "reunión no encontrada")
}

func (s *MeetingService) projectFor(sessionID string, projectID int64) (*models.Project, error) {
	state, ok := s.dashboard.State(sessionID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "dashboard not loaded")
	}
	for i := range state.Projects {
		if state.Projects[i].ID == projectID {
			return &state.Projects[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "proyecto no encontrado")
}

func counterpart(identity *models.Identity, project *models.Project) (string, error) {
	switch identity.Rol {
	case models.RoleStudent:
		if project.DirectorCedula == nil || *project.DirectorCedula == "" {
			return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "el proyecto aún no tiene director")
		}
		return *project.DirectorCedula, nil
	case models.RoleDirector:
		lead, ok := project.LeadStudent()
		if !ok {
			return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "el proyecto no tiene estudiantes")
		}
		return lead.Cedula, nil
	default:
		return "", appErrors.ErrForbidden
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *MeetingService) audit(ctx context.Context, identity *models.Identity, action string, projectID *int64, cause error) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, identity, action, projectID, cause)
}
