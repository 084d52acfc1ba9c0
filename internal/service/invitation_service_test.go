package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type fakeInvitationBackend struct {
	students        map[string]models.StudentSummary
	directorInvites []models.DirectorInviteInput
	peerInvites     []models.PeerInviteInput
	cancelled       []int64
	answers         []models.InvitationAnswer
	read            []int64
	inviteErr       error
}

func (f *fakeInvitationBackend) InviteDirector(_ context.Context, input models.DirectorInviteInput) (json.RawMessage, error) {
	if f.inviteErr != nil {
		return nil, f.inviteErr
	}
	f.directorInvites = append(f.directorInvites, input)
	return nil, nil
}

func (f *fakeInvitationBackend) CancelDirectorInvitation(_ context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeInvitationBackend) RespondDirectorInvitation(_ context.Context, _ int64, answer models.InvitationAnswer) (json.RawMessage, error) {
	f.answers = append(f.answers, answer)
	return nil, nil
}

func (f *fakeInvitationBackend) InvitePeer(_ context.Context, input models.PeerInviteInput) (json.RawMessage, error) {
	f.peerInvites = append(f.peerInvites, input)
	return nil, nil
}

func (f *fakeInvitationBackend) RespondInvitation(_ context.Context, _ int64, answer models.InvitationAnswer) (json.RawMessage, error) {
	f.answers = append(f.answers, answer)
	return nil, nil
}

func (f *fakeInvitationBackend) MarkRead(_ context.Context, id int64) error {
	f.read = append(f.read, id)
	return nil
}

func (f *fakeInvitationBackend) FindStudent(_ context.Context, cedula string) (*models.StudentSummary, error) {
	if s, ok := f.students[cedula]; ok {
		return &s, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Estudiante no encontrado")
}

func (f *fakeInvitationBackend) FindStudentByCode(_ context.Context, code string) (*models.StudentSummary, error) {
	for _, s := range f.students {
		if s.CodigoEstudiante == code {
			s := s
			return &s, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Estudiante no encontrado")
}

func (f *fakeInvitationBackend) SearchDirectors(context.Context, string) ([]models.Professor, error) {
	return nil, nil
}

var studentIdentity = &models.Identity{Cedula: "1000033333", Nombre: "David Báez", Rol: models.RoleStudent}

func newInvitationFixture(t *testing.T, dash *fakeDashboardBackend) (*InvitationService, *fakeInvitationBackend, *DashboardRouter) {
	t.Helper()
	router := newTestRouter(dash, nil)
	_, err := router.LoadInitialData(context.Background(), "sid", studentIdentity)
	require.NoError(t, err)

	backend := &fakeInvitationBackend{students: map[string]models.StudentSummary{
		"1000044444": {Cedula: "1000044444", Nombre: "Laura Gómez", CodigoEstudiante: "1151234"},
	}}
	svc := NewInvitationService(InvitationServiceParams{
		Backend:   backend,
		Dashboard: router,
		NewKey:    func() string { return "key-1" },
	})
	return svc, backend, router
}

func soloProject() *models.Project {
	return &models.Project{ID: 9, Titulo: "Sistema de riego", Estudiantes: []models.ProjectStudent{{Cedula: "1000033333"}}}
}

func TestCanInviteDirector(t *testing.T) {
	project := soloProject()
	assert.True(t, CanInviteDirector(project, nil))
	assert.False(t, CanInviteDirector(project, &models.Invitation{ID: 1}))
	assert.False(t, CanInviteDirector(nil, nil))

	project.DirectorNombre = strPtr("Marco Adarme")
	assert.False(t, CanInviteDirector(project, nil))
}

func TestEmptySlots(t *testing.T) {
	assert.Equal(t, 2, EmptySlots(&models.Project{}))
	assert.Equal(t, 2, EmptySlots(soloProject()))
	assert.Equal(t, 1, EmptySlots(&models.Project{Estudiantes: make([]models.ProjectStudent, 2)}))
	assert.Equal(t, 0, EmptySlots(&models.Project{Estudiantes: make([]models.ProjectStudent, 3)}))
	assert.Equal(t, 0, EmptySlots(&models.Project{Estudiantes: make([]models.ProjectStudent, 5)}))
}

func TestInviteDirectorSendsIdempotencyKey(t *testing.T) {
	dash := &fakeDashboardBackend{studentProject: soloProject()}
	svc, backend, _ := newInvitationFixture(t, dash)

	dash.pending = &models.Invitation{ID: 5, Estado: models.InvitationPending}
	state, err := svc.InviteDirector(context.Background(), "sid", studentIdentity, dto.DirectorInviteRequest{DirectorCedula: "2000000760", TipoDirector: models.DirectorProfessor})
	require.NoError(t, err)
	require.Len(t, backend.directorInvites, 1)
	assert.Equal(t, models.DirectorInviteInput{
		ProyectoID:       9,
		DirectorCedula:   "2000000760",
		TipoDirector:     models.DirectorProfessor,
		CedulaEstudiante: "1000033333",
		IdempotencyKey:   "key-1",
	}, backend.directorInvites[0])
	require.NotNil(t, state.PendingInvitation)

	_, err = svc.InviteDirector(context.Background(), "sid", studentIdentity, dto.DirectorInviteRequest{DirectorCedula: "2000000761", TipoDirector: models.DirectorProfessor})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestInviteDirectorRequiresStudent(t *testing.T) {
	svc, _, _ := newInvitationFixture(t, &fakeDashboardBackend{studentProject: soloProject()})

	_, err := svc.InviteDirector(context.Background(), "sid", &models.Identity{Rol: models.RoleDirector}, dto.DirectorInviteRequest{DirectorCedula: "1", TipoDirector: models.DirectorExternal})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestCancelDirectorInviteNeedsConfirmation(t *testing.T) {
	dash := &fakeDashboardBackend{studentProject: soloProject(), pending: &models.Invitation{ID: 5}}
	svc, backend, _ := newInvitationFixture(t, dash)

	_, err := svc.CancelDirectorInvite(context.Background(), "sid", studentIdentity, dto.CancelDirectorInviteRequest{InvitationID: 5})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Empty(t, backend.cancelled)

	_, err = svc.CancelDirectorInvite(context.Background(), "sid", studentIdentity, dto.CancelDirectorInviteRequest{InvitationID: 6, Confirm: true})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	dash.pending = nil
	state, err := svc.CancelDirectorInvite(context.Background(), "sid", studentIdentity, dto.CancelDirectorInviteRequest{InvitationID: 5, Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, backend.cancelled)
	assert.Nil(t, state.PendingInvitation)
}

func TestInvitePeerRequiresExactLookup(t *testing.T) {
	svc, backend, _ := newInvitationFixture(t, &fakeDashboardBackend{studentProject: soloProject()})

	err := svc.InvitePeer(context.Background(), "sid", studentIdentity, dto.PeerInviteRequest{InviteeCedula: "1000044444", LookupCodigo: "999"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	err = svc.InvitePeer(context.Background(), "sid", studentIdentity, dto.PeerInviteRequest{InviteeCedula: "1000055555", LookupCedula: "1000044444"})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))

	err = svc.InvitePeer(context.Background(), "sid", studentIdentity, dto.PeerInviteRequest{InviteeCedula: "1000044444", LookupCodigo: "1151234"})
	require.NoError(t, err)
	require.Len(t, backend.peerInvites, 1)
	assert.Equal(t, models.PeerInviteInput{
		ProyectoID:               9,
		EstudianteInvitadoCedula: "1000044444",
		InvitanteCedula:          "1000033333",
		InvitanteNombre:          "David Báez",
		TituloProyecto:           "Sistema de riego",
		IdempotencyKey:           "key-1",
	}, backend.peerInvites[0])
}

func TestInvitePeerRejectsFullProject(t *testing.T) {
	full := soloProject()
	full.Estudiantes = append(full.Estudiantes, models.ProjectStudent{Cedula: "2"}, models.ProjectStudent{Cedula: "3"})
	svc, backend, _ := newInvitationFixture(t, &fakeDashboardBackend{studentProject: full})

	err := svc.InvitePeer(context.Background(), "sid", studentIdentity, dto.PeerInviteRequest{InviteeCedula: "1000044444", LookupCedula: "1000044444"})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Empty(t, backend.peerInvites)
}

func TestRespondInvitationReloadsOnlyOnAccept(t *testing.T) {
	dash := &fakeDashboardBackend{studentProject: soloProject()}
	svc, backend, _ := newInvitationFixture(t, dash)

	state, err := svc.RespondInvitation(context.Background(), "sid", studentIdentity, 3, models.AnswerReject)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.Generation)

	state, err = svc.RespondInvitation(context.Background(), "sid", studentIdentity, 4, models.AnswerAccept)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), state.Generation)
	assert.Equal(t, []models.InvitationAnswer{models.AnswerReject, models.AnswerAccept}, backend.answers)

	_, err = svc.RespondDirectorInvite(context.Background(), "sid", studentIdentity, 4, "QUIZAS")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestMarkReadDelegates(t *testing.T) {
	svc, backend, _ := newInvitationFixture(t, &fakeDashboardBackend{})

	require.NoError(t, svc.MarkRead(context.Background(), 8))
	require.NoError(t, svc.MarkRead(context.Background(), 8))
	assert.Equal(t, []int64{8, 8}, backend.read)
}

func TestInvitesCheckStateOnlyOnceTheGuardIsHeld(t *testing.T) {
	dash := &fakeDashboardBackend{studentProject: soloProject(), pending: &models.Invitation{ID: 5, Estado: models.InvitationPending}}
	svc, backend, _ := newInvitationFixture(t, dash)

	release, err := svc.guard.acquire("sid:director-invite")
	require.NoError(t, err)
	_, err = svc.InviteDirector(context.Background(), "sid", studentIdentity, dto.DirectorInviteRequest{DirectorCedula: "2000000760", TipoDirector: models.DirectorProfessor})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	release()

	_, err = svc.InviteDirector(context.Background(), "sid", studentIdentity, dto.DirectorInviteRequest{DirectorCedula: "2000000760", TipoDirector: models.DirectorProfessor})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Empty(t, backend.directorInvites)
}

func TestInvitePeerChecksCapacityUnderGuard(t *testing.T) {
	full := soloProject()
	full.Estudiantes = append(full.Estudiantes, models.ProjectStudent{Cedula: "2"}, models.ProjectStudent{Cedula: "3"})
	svc, backend, _ := newInvitationFixture(t, &fakeDashboardBackend{studentProject: full})
	req := dto.PeerInviteRequest{InviteeCedula: "1000044444", LookupCedula: "1000044444"}

	release, err := svc.guard.acquire("sid:peer-invite:1000044444")
	require.NoError(t, err)
	err = svc.InvitePeer(context.Background(), "sid", studentIdentity, req)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	release()

	err = svc.InvitePeer(context.Background(), "sid", studentIdentity, req)
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Empty(t, backend.peerInvites)
}
