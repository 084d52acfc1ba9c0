package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type invitationBackend interface {
	InviteDirector(ctx context.Context, input models.DirectorInviteInput) (json.RawMessage, error)
	CancelDirectorInvitation(ctx context.Context, invitationID int64) error
	RespondDirectorInvitation(ctx context.Context, notificationID int64, answer models.InvitationAnswer) (json.RawMessage, error)
	InvitePeer(ctx context.Context, input models.PeerInviteInput) (json.RawMessage, error)
	RespondInvitation(ctx context.Context, notificationID int64, answer models.InvitationAnswer) (json.RawMessage, error)
	MarkRead(ctx context.Context, notificationID int64) error
	FindStudent(ctx context.Context, cedula string) (*models.StudentSummary, error)
	FindStudentByCode(ctx context.Context, code string) (*models.StudentSummary, error)
	SearchDirectors(ctx context.Context, term string) ([]models.Professor, error)
}

// InvitationServiceParams groups invitation dependencies.
type InvitationServiceParams struct {
	Backend   invitationBackend
	Dashboard dashboardReloader
	Auditor   auditRecorder
	Validator *validator.Validate
	Logger    *zap.Logger
	NewKey    func() string
}

// InvitationService runs director and peer invitations plus notification
// answers for students and directors.
type InvitationService struct {
	backend   invitationBackend
	dashboard dashboardReloader
	auditor   auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	newKey    func() string
	guard     *mutationGuard
}

// NewInvitationService constructs the service.
func NewInvitationService(params InvitationServiceParams) *InvitationService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.NewKey == nil {
		params.NewKey = uuid.NewString
	}
	return &InvitationService{
		backend:   params.Backend,
		dashboard: params.Dashboard,
		auditor:   params.Auditor,
		validator: params.Validator,
		logger:    params.Logger,
		newKey:    params.NewKey,
		guard:     newMutationGuard(),
	}
}

// CanInviteDirector is true only for a project without director and
// without a pending director invitation.
func CanInviteDirector(project *models.Project, pending *models.Invitation) bool {
	return project != nil && !project.HasDirector() && pending == nil
}

// EmptySlots is the number of teammate placeholders shown for a project.
// A project with no students still counts its owner.
func EmptySlots(project *models.Project) int {
	count := 0
	if project != nil {
		count = len(project.Estudiantes)
	}
	if count < 1 {
		count = 1
	}
	slots := models.MaxProjectStudents - count
	if slots < 0 {
		return 0
	}
	return slots
}

// CanInvitePeer is true while the project has room for another student.
func CanInvitePeer(project *models.Project) bool {
	return project != nil && len(project.Estudiantes) < models.MaxProjectStudents
}

// InviteDirector invites a director to the student's project.
func (s *InvitationService) InviteDirector(ctx context.Context, sessionID string, identity *models.Identity, req dto.DirectorInviteRequest) (DashboardState, error) {
	if err := s.validator.Struct(req); err != nil {
		return DashboardState{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "seleccione un director")
	}
	if err := requireStudent(identity); err != nil {
		return DashboardState{}, err
	}
	release, err := s.guard.acquire(sessionID + ":director-invite")
	if err != nil {
		return DashboardState{}, err
	}
	defer release()

	// Checked under the guard so a concurrent invite's reload is visible.
	state, err := s.studentState(sessionID, identity)
	if err != nil {
		return DashboardState{}, err
	}
	project := state.StudentProject
	if !CanInviteDirector(project, state.PendingInvitation) {
		return DashboardState{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "el proyecto ya tiene director o una invitación pendiente")
	}

	_, err = s.backend.InviteDirector(ctx, models.DirectorInviteInput{
		ProyectoID:       project.ID,
		DirectorCedula:   req.DirectorCedula,
		TipoDirector:     req.TipoDirector,
		CedulaEstudiante: identity.Cedula,
		IdempotencyKey:   s.newKey(),
	})
	s.audit(ctx, identity, models.AuditActionInviteDirector, &project.ID, err)
	if err != nil {
		return DashboardState{}, err
	}
	return s.reload(ctx, sessionID, identity), nil
}

// CancelDirectorInvite withdraws the pending director invitation. The
// caller must pass the pending invitation id and an explicit confirmation.
func (s *InvitationService) CancelDirectorInvite(ctx context.Context, sessionID string, identity *models.Identity, req dto.CancelDirectorInviteRequest) (DashboardState, error) {
	if !req.Confirm {
		return DashboardState{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "confirme la cancelación de la invitación")
	}
	state, err := s.studentState(sessionID, identity)
	if err != nil {
		return DashboardState{}, err
	}
	if state.PendingInvitation == nil || state.PendingInvitation.ID != req.InvitationID {
		return DashboardState{}, appErrors.Clone(appErrors.ErrNotFound, "no hay una invitación pendiente con ese identificador")
	}

	release, err := s.guard.acquire(sessionID + ":director-invite")
	if err != nil {
		return DashboardState{}, err
	}
	defer release()

	projectID := state.StudentProject.ID
	err = s.backend.CancelDirectorInvitation(ctx, req.InvitationID)
	s.audit(ctx, identity, models.AuditActionCancelDirectorInvite, &projectID, err)
	if err != nil {
		return DashboardState{}, err
	}
	return s.reload(ctx, sessionID, identity), nil
}

// RespondDirectorInvite answers an INVITACION_DIRECCION notification as the
// invited director. Accepting reloads the dashboard.
func (s *InvitationService) RespondDirectorInvite(ctx context.Context, sessionID string, identity *models.Identity, notificationID int64, answer models.InvitationAnswer) (DashboardState, error) {
	return s.respond(ctx, sessionID, identity, notificationID, answer, s.backend.RespondDirectorInvitation)
}

// RespondInvitation answers an INVITACION_PROYECTO notification as the
// invited student. Accepting reloads the dashboard.
func (s *InvitationService) RespondInvitation(ctx context.Context, sessionID string, identity *models.Identity, notificationID int64, answer models.InvitationAnswer) (DashboardState, error) {
	return s.respond(ctx, sessionID, identity, notificationID, answer, s.backend.RespondInvitation)
}

func (s *InvitationService) respond(ctx context.Context, sessionID string, identity *models.Identity, notificationID int64, answer models.InvitationAnswer,
	call func(context.Context, int64, models.InvitationAnswer) (json.RawMessage, error)) (DashboardState, error) {
	if !answer.Valid() {
		return DashboardState{}, appErrors.Clone(appErrors.ErrValidation, "respuesta inválida")
	}
	release, err := s.guard.acquire(sessionID + ":respond:" + strconv.FormatInt(notificationID, 10))
	if err != nil {
		return DashboardState{}, err
	}
	defer release()

	_, err = call(ctx, notificationID, answer)
	s.audit(ctx, identity, models.AuditActionRespondInvitation, nil, err)
	if err != nil {
		return DashboardState{}, err
	}
	if answer != models.AnswerAccept {
		state, _ := s.dashboard.State(sessionID)
		return state, nil
	}
	return s.reload(ctx, sessionID, identity), nil
}

// MarkRead marks a notification as read. Repeating it is harmless.
func (s *InvitationService) MarkRead(ctx context.Context, notificationID int64) error {
	return s.backend.MarkRead(ctx, notificationID)
}

// LookupStudent finds a student by exact cedula or enrollment code.
func (s *InvitationService) LookupStudent(ctx context.Context, req dto.StudentLookupRequest) (*models.StudentSummary, error) {
	req.Cedula = strings.TrimSpace(req.Cedula)
	req.Codigo = strings.TrimSpace(req.Codigo)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "ingrese cédula o código de estudiante")
	}

	var (
		student *models.StudentSummary
		err     error
	)
	if req.Cedula != "" {
		student, err = s.backend.FindStudent(ctx, req.Cedula)
	} else {
		student, err = s.backend.FindStudentByCode(ctx, req.Codigo)
	}
	if err != nil {
		return nil, err
	}
	if student == nil || student.Cedula == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Estudiante no encontrado")
	}
	return student, nil
}

// InvitePeer invites another student into the caller's project. The invitee
// must be the result of an exact lookup done with the same criteria.
func (s *InvitationService) InvitePeer(ctx context.Context, sessionID string, identity *models.Identity, req dto.PeerInviteRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "seleccione un estudiante")
	}
	if err := requireStudent(identity); err != nil {
		return err
	}
	if req.InviteeCedula == identity.Cedula {
		return appErrors.Clone(appErrors.ErrValidation, "no puedes invitarte a ti mismo")
	}
	release, err := s.guard.acquire(sessionID + ":peer-invite:" + req.InviteeCedula)
	if err != nil {
		return err
	}
	defer release()

	state, err := s.studentState(sessionID, identity)
	if err != nil {
		return err
	}
	project := state.StudentProject
	if !CanInvitePeer(project) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "el proyecto ya tiene el máximo de estudiantes")
	}
	for _, member := range project.Estudiantes {
		if member.Cedula == req.InviteeCedula {
			return appErrors.Clone(appErrors.ErrConflict, "el estudiante ya pertenece al proyecto")
		}
	}

	found, err := s.LookupStudent(ctx, dto.StudentLookupRequest{Cedula: req.LookupCedula, Codigo: req.LookupCodigo})
	if err != nil {
		return err
	}
	if found.Cedula != req.InviteeCedula {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "el estudiante invitado no coincide con la búsqueda")
	}

	_, err = s.backend.InvitePeer(ctx, models.PeerInviteInput{
		ProyectoID:               project.ID,
		EstudianteInvitadoCedula: found.Cedula,
		InvitanteCedula:          identity.Cedula,
		InvitanteNombre:          identity.Nombre,
		TituloProyecto:           project.Titulo,
		IdempotencyKey:           s.newKey(),
	})
	s.audit(ctx, identity, models.AuditActionInvitePeer, &project.ID, err)
	return err
}

// SearchDirectors feeds the director picker; an empty term lists everyone.
func (s *InvitationService) SearchDirectors(ctx context.Context, term string) ([]models.Professor, error) {
	directors, err := s.backend.SearchDirectors(ctx, term)
	if err != nil {
		return nil, err
	}
	return orEmpty(directors), nil
}

func requireStudent(identity *models.Identity) error {
	if identity == nil || identity.Rol != models.RoleStudent {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *InvitationService) studentState(sessionID string, identity *models.Identity) (DashboardState, error) {
	if err := requireStudent(identity); err != nil {
		return DashboardState{}, err
	}
	state, ok := s.dashboard.State(sessionID)
	if !ok || state.Status != LoadReady {
		return DashboardState{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "dashboard not loaded")
	}
	if state.StudentProject == nil {
		return DashboardState{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "no tienes un proyecto registrado")
	}
	return state, nil
}

// reload refreshes the dashboard after a successful mutation. A failed
// reload is visible in the returned state and does not undo the mutation.
func (s *InvitationService) reload(ctx context.Context, sessionID string, identity *models.Identity) DashboardState {
	state, err := s.dashboard.LoadInitialData(ctx, sessionID, identity)
	if err != nil {
		s.logger.Warn("dashboard reload failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return state
}

func (s *InvitationService) audit(ctx context.Context, identity *models.Identity, action string, projectID *int64, cause error) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, identity, action, projectID, cause)
}
