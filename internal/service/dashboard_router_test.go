package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type fakeDashboardBackend struct {
	mu sync.Mutex

	adminProjects    []models.Project
	adminInfo        *models.AdminInfo
	directorProjects []models.Project
	studentProject   *models.Project
	pending          *models.Invitation

	adminErr    error
	infoErr     error
	directorErr error
	studentErr  error
	pendingErr  error

	// directorGate, when set, blocks ProjectsByDirector until a value arrives.
	directorGate chan []models.Project
	calls        []string
}

func (f *fakeDashboardBackend) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeDashboardBackend) ProjectsByAdmin(context.Context, string) ([]models.Project, error) {
	f.record("admin")
	return f.adminProjects, f.adminErr
}

func (f *fakeDashboardBackend) AdminInfo(context.Context, string) (*models.AdminInfo, error) {
	f.record("info")
	return f.adminInfo, f.infoErr
}

func (f *fakeDashboardBackend) ProjectsByDirector(context.Context, string) ([]models.Project, error) {
	f.record("director")
	if f.directorGate != nil {
		return <-f.directorGate, nil
	}
	return f.directorProjects, f.directorErr
}

func (f *fakeDashboardBackend) ProjectByStudent(context.Context, string) (*models.Project, error) {
	f.record("student")
	return f.studentProject, f.studentErr
}

func (f *fakeDashboardBackend) PendingDirectorInvitation(context.Context, int64) (*models.Invitation, error) {
	f.record("pending")
	return f.pending, f.pendingErr
}

type fakeEventCatalog struct {
	events []models.StatusChangeEvent
	err    error
}

func (f *fakeEventCatalog) StatusChangeEvents(context.Context) ([]models.StatusChangeEvent, error) {
	return f.events, f.err
}

func newTestRouter(backend *fakeDashboardBackend, events *fakeEventCatalog) *DashboardRouter {
	if events == nil {
		events = &fakeEventCatalog{}
	}
	return NewDashboardRouter(DashboardRouterParams{Backend: backend, Events: events, Now: func() time.Time { return fixedNow }})
}

func TestResolveVariant(t *testing.T) {
	assert.Equal(t, VariantAdmin, ResolveVariant(&models.Identity{Rol: models.RoleAdmin}))
	assert.Equal(t, VariantDirector, ResolveVariant(&models.Identity{Rol: models.RoleDirector}))
	assert.Equal(t, VariantStudent, ResolveVariant(&models.Identity{Rol: models.RoleStudent}))
	assert.Equal(t, VariantUnrecognized, ResolveVariant(&models.Identity{Rol: "SECRETARIA"}))
	assert.Equal(t, VariantUnrecognized, ResolveVariant(nil))
}

func TestLoadAdminFetchesAllSources(t *testing.T) {
	backend := &fakeDashboardBackend{
		adminProjects: []models.Project{
			{ID: 1, Estado: models.StatusInDevelopment},
			{ID: 2, Estado: models.StatusInFormatReview},
			{ID: 3, Estado: models.StatusFinalized},
			{ID: 4, Estado: models.StatusRegistered},
		},
		adminInfo: &models.AdminInfo{Cedula: "4000000002", ComiteNombre: strPtr("COM-SIST")},
	}
	events := &fakeEventCatalog{events: []models.StatusChangeEvent{{ID: 7, Nombre: "Aprobar formato"}}}
	router := newTestRouter(backend, events)

	state, err := router.LoadInitialData(context.Background(), "sid", &models.Identity{Cedula: "4000000002", Rol: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, LoadReady, state.Status)
	assert.Equal(t, VariantAdmin, state.Variant)
	assert.Len(t, state.Projects, 4)
	assert.Equal(t, "COM-SIST", *state.AdminInfo.ComiteNombre)
	assert.Len(t, state.StatusEvents, 1)
	assert.Equal(t, DashboardStats{Total: 4, EnDesarrollo: 1, EnRevision: 1, Completados: 1}, state.Stats)
	assert.ElementsMatch(t, []string{"admin", "info"}, backend.calls)
}

func TestLoadAdminFailsWholeLoadOnAnyError(t *testing.T) {
	backend := &fakeDashboardBackend{
		adminProjects: []models.Project{{ID: 1}},
		infoErr:       appErrors.Clone(appErrors.ErrBackend, "Error al obtener información del administrador"),
	}
	router := newTestRouter(backend, nil)

	state, err := router.LoadInitialData(context.Background(), "sid", &models.Identity{Cedula: "4000000002", Rol: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, LoadFailed, state.Status)
	assert.Equal(t, "Error al obtener información del administrador", state.Error)
	assert.Empty(t, state.Projects)
	assert.Nil(t, state.AdminInfo)
}

func TestLoadStudentWithoutProject(t *testing.T) {
	backend := &fakeDashboardBackend{}
	router := newTestRouter(backend, nil)

	state, err := router.LoadInitialData(context.Background(), "sid", &models.Identity{Cedula: "1000033333", Rol: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, LoadReady, state.Status)
	assert.Nil(t, state.StudentProject)
	assert.Empty(t, state.Projects)
	assert.Equal(t, []string{"student"}, backend.calls)
}

func TestLoadStudentWithPendingInvitation(t *testing.T) {
	backend := &fakeDashboardBackend{
		studentProject: &models.Project{ID: 9, Titulo: "Sistema de riego"},
		pending:        &models.Invitation{ID: 5, Estado: models.InvitationPending},
	}
	router := newTestRouter(backend, nil)

	state, err := router.LoadInitialData(context.Background(), "sid", &models.Identity{Cedula: "1000033333", Rol: models.RoleStudent})
	require.NoError(t, err)
	require.NotNil(t, state.StudentProject)
	require.NotNil(t, state.PendingInvitation)
	assert.Equal(t, int64(5), state.PendingInvitation.ID)
}

func TestLoadStudentPendingInvitationFailureFailsLoad(t *testing.T) {
	backend := &fakeDashboardBackend{
		studentProject: &models.Project{ID: 9},
		pendingErr:     errors.New("boom"),
	}
	router := newTestRouter(backend, nil)

	state, err := router.LoadInitialData(context.Background(), "sid", &models.Identity{Cedula: "1000033333", Rol: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, LoadFailed, state.Status)
	assert.Nil(t, state.StudentProject)
}

func TestUnrecognizedRoleDoesNotLoad(t *testing.T) {
	backend := &fakeDashboardBackend{}
	router := newTestRouter(backend, nil)

	state, err := router.LoadInitialData(context.Background(), "sid", &models.Identity{Rol: "SECRETARIA"})
	require.NoError(t, err)
	assert.Equal(t, VariantUnrecognized, state.Variant)
	assert.Empty(t, backend.calls)
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	gate := make(chan []models.Project)
	backend := &fakeDashboardBackend{directorGate: gate}
	router := newTestRouter(backend, nil)
	identity := &models.Identity{Cedula: "2000000760", Rol: models.RoleDirector}

	firstDone := make(chan DashboardState)
	go func() {
		state, _ := router.LoadInitialData(context.Background(), "sid", identity)
		firstDone <- state
	}()
	waitForCalls(t, backend, 1)

	secondDone := make(chan DashboardState)
	go func() {
		state, _ := router.LoadInitialData(context.Background(), "sid", identity)
		secondDone <- state
	}()
	waitForCalls(t, backend, 2)

	// Whichever call receives first, the load that started first must lose.
	gate <- []models.Project{{ID: 1}}
	gate <- []models.Project{{ID: 1}, {ID: 2}}
	<-firstDone
	<-secondDone

	state, ok := router.State("sid")
	require.True(t, ok)
	assert.Equal(t, uint64(2), state.Generation)
	assert.Equal(t, LoadReady, state.Status)
}

func waitForCalls(t *testing.T, backend *fakeDashboardBackend, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.calls) >= n
	}, time.Second, 5*time.Millisecond)
}

func TestReloadUsesLastIdentityAndKeepsModal(t *testing.T) {
	backend := &fakeDashboardBackend{directorProjects: []models.Project{{ID: 1}}}
	router := newTestRouter(backend, nil)

	_, err := router.Reload(context.Background(), "sid")
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))

	_, err = router.LoadInitialData(context.Background(), "sid", &models.Identity{Cedula: "2000000760", Rol: models.RoleDirector})
	require.NoError(t, err)
	_, err = router.OpenModal("sid", ModalHistory, 1)
	require.NoError(t, err)

	backend.directorProjects = []models.Project{{ID: 1}, {ID: 2}}
	state, err := router.Reload(context.Background(), "sid")
	require.NoError(t, err)
	assert.Len(t, state.Projects, 2)
	assert.Equal(t, ModalState{Kind: ModalHistory, ProjectID: 1}, state.Modal)
}

func TestModalStateAndIdentityReset(t *testing.T) {
	backend := &fakeDashboardBackend{}
	router := newTestRouter(backend, nil)

	_, err := router.OpenModal("sid", ModalChangeStatus, 3)
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))

	_, err = router.LoadInitialData(context.Background(), "sid", &models.Identity{Cedula: "2000000760", Rol: models.RoleDirector})
	require.NoError(t, err)

	_, err = router.OpenModal("sid", "desconocido", 3)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	modal, err := router.OpenModal("sid", ModalDetail, 3)
	require.NoError(t, err)
	assert.True(t, modal.Kind.Placeholder())

	router.CloseModal("sid")
	assert.Equal(t, ModalState{}, router.Modal("sid"))

	router.IdentityChanged("sid")
	_, ok := router.State("sid")
	assert.False(t, ok)
}
