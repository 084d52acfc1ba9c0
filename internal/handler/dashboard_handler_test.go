package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/middleware"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

var (
	testStudent  = &models.Identity{Cedula: "1000033333", Nombre: "Laura Gómez", Rol: models.RoleStudent}
	testDirector = &models.Identity{Cedula: "3000000001", Nombre: "Marco Adarme", Rol: models.RoleDirector}
	testAdmin    = &models.Identity{Cedula: "4000000002", Nombre: "Ana Ruiz", Rol: models.RoleAdmin, EsAdminGeneral: true}
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newTestContext builds a gin context as the session middleware leaves it.
func newTestContext(method, target, body string, identity *models.Identity) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		c.Set(middleware.ContextIdentityKey, identity)
		c.Set(middleware.ContextSessionKey, "sid-1")
	}
	return rec, c
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

type fakeDashboardRouter struct {
	state     service.DashboardState
	cached    bool
	loadState service.DashboardState
	loadErr   error
	reloadErr error
	modalErr  error
	loads     int
	closed    bool
	opened    service.ModalState
}

func (f *fakeDashboardRouter) LoadInitialData(context.Context, string, *models.Identity) (service.DashboardState, error) {
	f.loads++
	f.state, f.cached = f.loadState, true
	return f.loadState, f.loadErr
}

func (f *fakeDashboardRouter) Reload(context.Context, string) (service.DashboardState, error) {
	if f.reloadErr != nil {
		return service.DashboardState{}, f.reloadErr
	}
	f.loads++
	return f.loadState, nil
}

func (f *fakeDashboardRouter) State(string) (service.DashboardState, bool) {
	return f.state, f.cached
}

func (f *fakeDashboardRouter) OpenModal(_ string, kind service.ModalKind, projectID int64) (service.ModalState, error) {
	if f.modalErr != nil {
		return service.ModalState{}, f.modalErr
	}
	f.opened = service.ModalState{Kind: kind, ProjectID: projectID}
	f.state.Modal = f.opened
	return f.opened, nil
}

func (f *fakeDashboardRouter) CloseModal(string) {
	f.closed = true
	f.state.Modal = service.ModalState{}
}

func readyDirectorState() service.DashboardState {
	return service.DashboardState{
		Variant:  service.VariantDirector,
		Status:   service.LoadReady,
		Projects: []models.Project{{ID: 7, Titulo: "Plataforma de tutorías", Estado: models.StatusInDevelopment}},
		Stats:    service.DashboardStats{Total: 1, EnDesarrollo: 1},
	}
}

func newDashboardHandlerForTest(router *fakeDashboardRouter) *DashboardHandler {
	return NewDashboardHandler(router, service.NewViewService(nil, "", nil))
}

func TestDashboardHandlerGetRequiresSession(t *testing.T) {
	handler := newDashboardHandlerForTest(&fakeDashboardRouter{})
	rec, c := newTestContext(http.MethodGet, "/dashboard", "", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerGetLoadsOnFirstAccess(t *testing.T) {
	router := &fakeDashboardRouter{loadState: readyDirectorState()}
	handler := newDashboardHandlerForTest(router)
	rec, c := newTestContext(http.MethodGet, "/dashboard", "", testDirector)

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, router.loads)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "DIRECTOR", envelope.Data["variant"])
	assert.Equal(t, "READY", envelope.Data["status"])
	assert.Len(t, envelope.Data["cards"], 1)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestDashboardHandlerGetUsesLoadedState(t *testing.T) {
	router := &fakeDashboardRouter{state: readyDirectorState(), cached: true}
	handler := newDashboardHandlerForTest(router)
	rec, c := newTestContext(http.MethodGet, "/dashboard", "", testDirector)

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, router.loads)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cached"])

	rec, c = newTestContext(http.MethodGet, "/dashboard?refresh=true", "", testDirector)
	router.loadState = readyDirectorState()
	handler.Get(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, router.loads)
}

func TestDashboardHandlerGetRendersFailedLoad(t *testing.T) {
	router := &fakeDashboardRouter{
		loadState: service.DashboardState{Variant: service.VariantStudent, Status: service.LoadFailed, Error: "Error en la petición"},
		loadErr:   appErrors.ErrBackend,
	}
	handler := newDashboardHandlerForTest(router)
	rec, c := newTestContext(http.MethodGet, "/dashboard", "", testStudent)

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "FAILED", envelope.Data["status"])
	assert.Equal(t, "Error en la petición", envelope.Data["error"])
	assert.Nil(t, envelope.Data["student"])
}

func TestDashboardHandlerReload(t *testing.T) {
	router := &fakeDashboardRouter{reloadErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "dashboard not loaded")}
	handler := newDashboardHandlerForTest(router)
	rec, c := newTestContext(http.MethodPost, "/dashboard/reload", "", testDirector)

	handler.Reload(c)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	router.reloadErr = nil
	router.loadState = readyDirectorState()
	rec, c = newTestContext(http.MethodPost, "/dashboard/reload", "", testDirector)
	handler.Reload(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardHandlerModal(t *testing.T) {
	router := &fakeDashboardRouter{state: readyDirectorState(), cached: true}
	handler := newDashboardHandlerForTest(router)

	rec, c := newTestContext(http.MethodPost, "/dashboard/modal", `{"tipo":"reunion","proyectoId":7,"abierto":true}`, testDirector)
	handler.Modal(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ModalMeeting, router.opened.Kind)
	modal, ok := decodeEnvelope(t, rec).Data["modal"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, modal["proximamente"])

	rec, c = newTestContext(http.MethodPost, "/dashboard/modal", `{"tipo":"reunion","abierto":false}`, testDirector)
	handler.Modal(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, router.closed)
	assert.Nil(t, decodeEnvelope(t, rec).Data["modal"])

	router.modalErr = errors.New("boom")
	rec, c = newTestContext(http.MethodPost, "/dashboard/modal", `{"tipo":"historial","proyectoId":7,"abierto":true}`, testDirector)
	handler.Modal(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, c = newTestContext(http.MethodPost, "/dashboard/modal", `not-json`, testDirector)
	handler.Modal(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
