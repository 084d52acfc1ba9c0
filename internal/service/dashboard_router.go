package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// Variant is the dashboard rendered for a role.
type Variant string

const (
	VariantAdmin        Variant = "ADMIN"
	VariantDirector     Variant = "DIRECTOR"
	VariantStudent      Variant = "STUDENT"
	VariantUnrecognized Variant = "UNRECOGNIZED"
)

// LoadStatus tracks the dashboard data load.
type LoadStatus string

const (
	LoadIdle    LoadStatus = "IDLE"
	LoadLoading LoadStatus = "LOADING"
	LoadReady   LoadStatus = "READY"
	LoadFailed  LoadStatus = "FAILED"
)

// ModalKind names the modal shared by a dashboard.
type ModalKind string

const (
	ModalNone         ModalKind = ""
	ModalChangeStatus ModalKind = "cambio_estado"
	ModalHistory      ModalKind = "historial"
	ModalMeeting      ModalKind = "reunion"
	ModalDetail       ModalKind = "detalle"
)

// Placeholder reports whether the modal only announces an upcoming feature.
func (k ModalKind) Placeholder() bool {
	return k == ModalMeeting || k == ModalDetail
}

// ModalState is the open modal of a dashboard, if any.
type ModalState struct {
	Kind      ModalKind `json:"kind"`
	ProjectID int64     `json:"projectId,omitempty"`
}

// DashboardStats summarises a project list.
type DashboardStats struct {
	Total        int `json:"total"`
	EnDesarrollo int `json:"enDesarrollo"`
	EnRevision   int `json:"enRevision"`
	Completados  int `json:"completados"`
}

// DashboardState is the loaded data behind one session's dashboard.
type DashboardState struct {
	Variant           Variant                    `json:"variant"`
	Status            LoadStatus                 `json:"status"`
	Error             string                     `json:"error,omitempty"`
	Projects          []models.Project           `json:"projects"`
	StudentProject    *models.Project            `json:"studentProject,omitempty"`
	PendingInvitation *models.Invitation         `json:"pendingInvitation,omitempty"`
	AdminInfo         *models.AdminInfo          `json:"adminInfo,omitempty"`
	StatusEvents      []models.StatusChangeEvent `json:"statusEvents,omitempty"`
	Stats             DashboardStats             `json:"stats"`
	Modal             ModalState                 `json:"modal"`
	Generation        uint64                     `json:"generation"`
	LoadedAt          *time.Time                 `json:"loadedAt,omitempty"`
}

type dashboardBackend interface {
	ProjectsByAdmin(ctx context.Context, cedula string) ([]models.Project, error)
	AdminInfo(ctx context.Context, cedula string) (*models.AdminInfo, error)
	ProjectsByDirector(ctx context.Context, cedula string) ([]models.Project, error)
	ProjectByStudent(ctx context.Context, cedula string) (*models.Project, error)
	PendingDirectorInvitation(ctx context.Context, projectID int64) (*models.Invitation, error)
}

type statusEventCatalog interface {
	StatusChangeEvents(ctx context.Context) ([]models.StatusChangeEvent, error)
}

// DashboardRouterParams groups router dependencies.
type DashboardRouterParams struct {
	Backend dashboardBackend
	Events  statusEventCatalog
	Metrics *MetricsService
	Logger  *zap.Logger
	Now     func() time.Time
}

type sessionDashboard struct {
	identity   models.Identity
	generation uint64
	state      DashboardState
}

// DashboardRouter resolves the dashboard variant of each session and owns
// its data load and modal state.
type DashboardRouter struct {
	backend dashboardBackend
	events  statusEventCatalog
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionDashboard
}

// NewDashboardRouter constructs the router.
func NewDashboardRouter(params DashboardRouterParams) *DashboardRouter {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &DashboardRouter{
		backend:  params.Backend,
		events:   params.Events,
		metrics:  params.Metrics,
		logger:   params.Logger,
		now:      params.Now,
		sessions: make(map[string]*sessionDashboard),
	}
}

// ResolveVariant maps an identity to its dashboard. Missing identities and
// unknown roles resolve to VariantUnrecognized.
func ResolveVariant(identity *models.Identity) Variant {
	if identity == nil {
		return VariantUnrecognized
	}
	switch identity.Rol {
	case models.RoleAdmin:
		return VariantAdmin
	case models.RoleDirector:
		return VariantDirector
	case models.RoleStudent:
		return VariantStudent
	default:
		return VariantUnrecognized
	}
}

// LoadInitialData fetches the data of the identity's dashboard. Any failed
// fetch fails the whole load. A load superseded by a newer one for the same
// session is discarded and the newer state is returned instead.
func (r *DashboardRouter) LoadInitialData(ctx context.Context, sessionID string, identity *models.Identity) (DashboardState, error) {
	variant := ResolveVariant(identity)
	if variant == VariantUnrecognized {
		return DashboardState{Variant: variant, Status: LoadIdle, Projects: []models.Project{}}, nil
	}

	generation := r.begin(sessionID, *identity, variant)

	loaded := DashboardState{Variant: variant, Projects: []models.Project{}}
	var err error
	switch variant {
	case VariantAdmin:
		err = r.loadAdmin(ctx, identity, &loaded)
	case VariantDirector:
		err = r.loadDirector(ctx, identity, &loaded)
	case VariantStudent:
		err = r.loadStudent(ctx, identity, &loaded)
	}

	state, current := r.commit(sessionID, generation, loaded, err)
	if !current {
		r.metrics.RecordStaleLoad()
		r.logger.Debug("discarded stale dashboard load", zap.String("session_id", sessionID), zap.Uint64("generation", generation))
	}
	if current && err != nil {
		r.logger.Warn("dashboard load failed", zap.String("session_id", sessionID), zap.String("variant", string(variant)), zap.Error(err))
		return state, err
	}
	return state, nil
}

// Reload repeats the load for the identity the session last loaded with.
func (r *DashboardRouter) Reload(ctx context.Context, sessionID string) (DashboardState, error) {
	r.mu.Lock()
	entry, ok := r.sessions[sessionID]
	var identity models.Identity
	if ok {
		identity = entry.identity
	}
	r.mu.Unlock()
	if !ok {
		return DashboardState{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "dashboard not loaded")
	}
	return r.LoadInitialData(ctx, sessionID, &identity)
}

// State returns the last committed dashboard state of a session.
func (r *DashboardRouter) State(sessionID string) (DashboardState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return DashboardState{}, false
	}
	return entry.state, true
}

// OpenModal opens one of the shared dashboard modals for a project.
func (r *DashboardRouter) OpenModal(sessionID string, kind ModalKind, projectID int64) (ModalState, error) {
	switch kind {
	case ModalChangeStatus, ModalHistory, ModalMeeting, ModalDetail:
	default:
		return ModalState{}, appErrors.Clone(appErrors.ErrValidation, "modal desconocido")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return ModalState{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "dashboard not loaded")
	}
	entry.state.Modal = ModalState{Kind: kind, ProjectID: projectID}
	return entry.state.Modal, nil
}

// CloseModal closes whichever modal is open.
func (r *DashboardRouter) CloseModal(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sessionID]; ok {
		entry.state.Modal = ModalState{}
	}
}

// Modal returns the open modal of a session.
func (r *DashboardRouter) Modal(sessionID string) ModalState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sessionID]; ok {
		return entry.state.Modal
	}
	return ModalState{}
}

// IdentityChanged drops the dashboard of a session whose identity was
// replaced or logged out.
func (r *DashboardRouter) IdentityChanged(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *DashboardRouter) begin(sessionID string, identity models.Identity, variant Variant) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok || entry.identity.Cedula != identity.Cedula || entry.identity.Rol != identity.Rol {
		entry = &sessionDashboard{identity: identity, state: DashboardState{Projects: []models.Project{}}}
		r.sessions[sessionID] = entry
	}
	entry.generation++
	entry.state.Variant = variant
	entry.state.Status = LoadLoading
	entry.state.Error = ""
	entry.state.Generation = entry.generation
	return entry.generation
}

func (r *DashboardRouter) commit(sessionID string, generation uint64, loaded DashboardState, loadErr error) (DashboardState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok || entry.generation != generation {
		if ok {
			return entry.state, false
		}
		return loaded, false
	}

	modal := entry.state.Modal
	if loadErr != nil {
		entry.state = DashboardState{
			Variant:    loaded.Variant,
			Status:     LoadFailed,
			Error:      appErrors.FromError(loadErr).Message,
			Projects:   []models.Project{},
			Modal:      modal,
			Generation: generation,
		}
		return entry.state, true
	}

	now := r.now().UTC()
	loaded.Status = LoadReady
	loaded.Stats = ComputeStats(loaded.Projects)
	loaded.Modal = modal
	loaded.Generation = generation
	loaded.LoadedAt = &now
	entry.state = loaded
	return entry.state, true
}

func (r *DashboardRouter) loadAdmin(ctx context.Context, identity *models.Identity, out *DashboardState) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		projects, err := r.backend.ProjectsByAdmin(ctx, identity.Cedula)
		if err != nil {
			fail(err)
			return
		}
		out.Projects = orEmpty(projects)
	}()
	go func() {
		defer wg.Done()
		info, err := r.backend.AdminInfo(ctx, identity.Cedula)
		if err != nil {
			fail(err)
			return
		}
		out.AdminInfo = info
	}()
	go func() {
		defer wg.Done()
		events, err := r.events.StatusChangeEvents(ctx)
		if err != nil {
			fail(err)
			return
		}
		out.StatusEvents = orEmpty(events)
	}()
	wg.Wait()
	return firstErr
}

func (r *DashboardRouter) loadDirector(ctx context.Context, identity *models.Identity, out *DashboardState) error {
	projects, err := r.backend.ProjectsByDirector(ctx, identity.Cedula)
	if err != nil {
		return err
	}
	out.Projects = orEmpty(projects)
	return nil
}

func (r *DashboardRouter) loadStudent(ctx context.Context, identity *models.Identity, out *DashboardState) error {
	project, err := r.backend.ProjectByStudent(ctx, identity.Cedula)
	if err != nil {
		return err
	}
	if project == nil {
		return nil
	}
	out.StudentProject = project
	out.Projects = []models.Project{*project}

	pending, err := r.backend.PendingDirectorInvitation(ctx, project.ID)
	if err != nil {
		return err
	}
	out.PendingInvitation = pending
	return nil
}

// ComputeStats buckets projects by workflow stage.
func ComputeStats(projects []models.Project) DashboardStats {
	stats := DashboardStats{Total: len(projects)}
	for _, p := range projects {
		switch p.Estado {
		case models.StatusInDevelopment, models.StatusApprovedToStart:
			stats.EnDesarrollo++
		case models.StatusInFormatReview, models.StatusInContentReview,
			models.StatusInFormatCorrections, models.StatusInContentCorrections:
			stats.EnRevision++
		case models.StatusFinalized:
			stats.Completados++
		}
	}
	return stats
}
