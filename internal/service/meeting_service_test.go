package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type fakeMeetingBackend struct {
	requests      []models.MeetingRequestInput
	details       []models.MeetingDetailsInput
	attendance    []models.AttendanceInput
	meetings      []models.Meeting
	detailsErr    error
	attendanceErr error
}

func (f *fakeMeetingBackend) RequestMeeting(_ context.Context, input models.MeetingRequestInput) (*models.Meeting, error) {
	f.requests = append(f.requests, input)
	return &models.Meeting{ID: 1, ProyectoID: input.ProyectoID, FechaReunion: input.FechaReunion}, nil
}

func (f *fakeMeetingBackend) MeetingsByDirector(context.Context, string) ([]models.Meeting, error) {
	return f.meetings, nil
}

func (f *fakeMeetingBackend) MeetingsByStudent(context.Context, string) ([]models.Meeting, error) {
	return f.meetings, nil
}

func (f *fakeMeetingBackend) RegisterMeetingDetails(_ context.Context, input models.MeetingDetailsInput) error {
	if f.detailsErr != nil {
		return f.detailsErr
	}
	f.details = append(f.details, input)
	return nil
}

func (f *fakeMeetingBackend) MarkAttendance(_ context.Context, _ int64, input models.AttendanceInput) error {
	if f.attendanceErr != nil {
		return f.attendanceErr
	}
	f.attendance = append(f.attendance, input)
	return nil
}

var (
	cot              = time.FixedZone("COT", -5*3600)
	meetingNow       = time.Date(2026, 3, 10, 12, 0, 0, 0, cot)
	directorIdentity = &models.Identity{Cedula: "2000000760", Nombre: "Marco Adarme", Rol: models.RoleDirector}
)

func newMeetingFixture(t *testing.T, backend *fakeMeetingBackend, identity *models.Identity, project models.Project) *MeetingService {
	t.Helper()
	dash := &fakeDashboardBackend{directorProjects: []models.Project{project}, studentProject: &project}
	router := newTestRouter(dash, nil)
	_, err := router.LoadInitialData(context.Background(), "sid", identity)
	require.NoError(t, err)
	return NewMeetingService(MeetingServiceParams{
		Backend:     backend,
		Dashboard:   router,
		Permissions: DefaultPermissionTable(),
		Location:    cot,
		Now:         func() time.Time { return meetingNow },
	})
}

func directedProject() models.Project {
	return models.Project{
		ID:             9,
		DirectorCedula: strPtr("2000000760"),
		Estudiantes:    []models.ProjectStudent{{Cedula: "1000033333"}},
	}
}

func TestCombineDateTime(t *testing.T) {
	assert.Equal(t, "2026-03-12T14:30:00", CombineDateTime("2026-03-12", "14:30"))
}

func TestIsPast(t *testing.T) {
	assert.True(t, IsPast(models.Meeting{FechaReunion: "2026-03-10T11:59:00"}, meetingNow))
	assert.False(t, IsPast(models.Meeting{FechaReunion: "2026-03-10T12:30:00"}, meetingNow))
	assert.False(t, IsPast(models.Meeting{FechaReunion: "pronto"}, meetingNow))
}

func TestRequestMeetingFromStudentTargetsDirector(t *testing.T) {
	backend := &fakeMeetingBackend{}
	svc := newMeetingFixture(t, backend, studentIdentity, directedProject())

	_, err := svc.RequestMeeting(context.Background(), "sid", studentIdentity, 9, dto.MeetingRequest{
		Fecha:           "2026-03-10",
		Hora:            "16:00",
		TemasPropuestos: " Avance capítulo 2 ",
	})
	require.NoError(t, err)
	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.Equal(t, "2026-03-10T16:00:00", req.FechaReunion)
	assert.Equal(t, "2000000760", req.ReceptorCedula)
	assert.Equal(t, "1000033333", req.SolicitanteCedula)
	assert.Equal(t, "Avance capítulo 2", req.TemasPropuestos)
	assert.Equal(t, 60, req.DuracionMinutos)
	assert.Equal(t, models.MeetingVirtual, req.Tipo)
	assert.Nil(t, req.Observaciones)
}

func TestRequestMeetingValidation(t *testing.T) {
	backend := &fakeMeetingBackend{}
	svc := newMeetingFixture(t, backend, directorIdentity, directedProject())

	_, err := svc.RequestMeeting(context.Background(), "sid", directorIdentity, 9, dto.MeetingRequest{Fecha: "2026-03-09", Hora: "10:00", TemasPropuestos: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.RequestMeeting(context.Background(), "sid", directorIdentity, 9, dto.MeetingRequest{Fecha: "2026-03-11", Hora: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.RequestMeeting(context.Background(), "sid", directorIdentity, 9, dto.MeetingRequest{Fecha: "11/03/2026", Hora: "10:00", TemasPropuestos: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.RequestMeeting(context.Background(), "sid", adminIdentity, 9, dto.MeetingRequest{Fecha: "2026-03-11", Hora: "10:00", TemasPropuestos: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.RequestMeeting(context.Background(), "sid", directorIdentity, 9, dto.MeetingRequest{Fecha: "2026-03-11", Hora: "10:00", TemasPropuestos: "x"})
	require.NoError(t, err)
	assert.Equal(t, "1000033333", backend.requests[0].ReceptorCedula)
}

func TestRequestMeetingWithoutDirector(t *testing.T) {
	project := directedProject()
	project.DirectorCedula = nil
	svc := newMeetingFixture(t, &fakeMeetingBackend{}, studentIdentity, project)

	_, err := svc.RequestMeeting(context.Background(), "sid", studentIdentity, 9, dto.MeetingRequest{Fecha: "2026-03-11", Hora: "10:00", TemasPropuestos: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestListFlagsPastMeetings(t *testing.T) {
	backend := &fakeMeetingBackend{meetings: []models.Meeting{
		{ID: 1, FechaReunion: "2026-03-01T10:00:00"},
		{ID: 2, FechaReunion: "2026-03-20T10:00:00"},
		{ID: 3, FechaReunion: "2026-03-02T10:00:00", TemasTratados: "ya registrado"},
	}}
	svc := newMeetingFixture(t, backend, directorIdentity, directedProject())

	views, err := svc.List(context.Background(), directorIdentity)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.True(t, views[0].EsPasada)
	assert.True(t, views[0].PuedeRegistrarDetalles)
	assert.False(t, views[1].EsPasada)
	assert.False(t, views[2].PuedeRegistrarDetalles)

	_, err = svc.List(context.Background(), adminIdentity)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestRegisterMeetingDetailsRunsBothSteps(t *testing.T) {
	backend := &fakeMeetingBackend{}
	svc := newMeetingFixture(t, backend, directorIdentity, directedProject())
	attended := true

	err := svc.RegisterMeetingDetails(context.Background(), "sid", directorIdentity,
		models.Meeting{ID: 4, ProyectoID: 9, FechaReunion: "2026-03-09T10:00:00"},
		dto.MeetingDetailsRequest{TemasTratados: "Revisión", Acuerdos: "Entregar cap. 3", AsistioEstudiante: &attended})
	require.NoError(t, err)
	require.Len(t, backend.details, 1)
	require.Len(t, backend.attendance, 1)
	assert.Equal(t, int64(4), backend.details[0].ReunionID)
	assert.True(t, backend.attendance[0].AsistioEstudiante)
}

func TestRegisterMeetingDetailsRejectsFutureMeeting(t *testing.T) {
	backend := &fakeMeetingBackend{}
	svc := newMeetingFixture(t, backend, directorIdentity, directedProject())

	err := svc.RegisterMeetingDetails(context.Background(), "sid", directorIdentity,
		models.Meeting{ID: 4, FechaReunion: "2026-03-11T10:00:00"},
		dto.MeetingDetailsRequest{TemasTratados: "Revisión"})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Empty(t, backend.details)
}

func TestRegisterMeetingDetailsReportsFailedStep(t *testing.T) {
	past := models.Meeting{ID: 4, FechaReunion: "2026-03-09T10:00:00"}

	backend := &fakeMeetingBackend{detailsErr: appErrors.Clone(appErrors.ErrBackend, "Error al registrar detalles")}
	svc := newMeetingFixture(t, backend, directorIdentity, directedProject())
	err := svc.RegisterMeetingDetails(context.Background(), "sid", directorIdentity, past, dto.MeetingDetailsRequest{TemasTratados: "x"})
	var partial *PartialUpdateError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, StepMeetingDetails, partial.Step)
	assert.Empty(t, backend.attendance)

	backend = &fakeMeetingBackend{attendanceErr: appErrors.Clone(appErrors.ErrBackend, "Error al marcar asistencia")}
	svc = newMeetingFixture(t, backend, directorIdentity, directedProject())
	err = svc.RegisterMeetingDetails(context.Background(), "sid", directorIdentity, past, dto.MeetingDetailsRequest{TemasTratados: "x"})
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, StepMeetingAttendance, partial.Step)
	assert.Len(t, backend.details, 1)
	assert.True(t, errors.Is(err, appErrors.ErrPartialUpdate))

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPartialUpdate.Code, appErr.Code)
	assert.Equal(t, StepMeetingAttendance, appErr.Step)
	assert.Equal(t, "Error al marcar asistencia", appErr.Message)
}
