package dto

// DashboardView is the rendered dashboard for one session.
type DashboardView struct {
	Variant      string            `json:"variant"`
	Status       string            `json:"status"`
	Error        string            `json:"error,omitempty"`
	Header       DashboardHeader   `json:"header"`
	Stats        []StatCard        `json:"stats,omitempty"`
	Cards        []ProjectCard     `json:"cards,omitempty"`
	Table        *ProjectTable     `json:"table,omitempty"`
	Student      *StudentPanel     `json:"student,omitempty"`
	EmptyState   *EmptyState       `json:"emptyState,omitempty"`
	Modal        *ModalView        `json:"modal,omitempty"`
	Export       *ExportAffordance `json:"export,omitempty"`
	StatusEvents []StatusOption    `json:"statusEvents,omitempty"`
	Generation   uint64            `json:"generation"`
}

// DashboardHeader greets the user and lists role badges.
type DashboardHeader struct {
	Greeting string   `json:"greeting"`
	Name     string   `json:"name"`
	Subtitle string   `json:"subtitle,omitempty"`
	Badges   []string `json:"badges,omitempty"`
}

// StatCard is one counter of the stats grid.
type StatCard struct {
	Title string `json:"titulo"`
	Value int    `json:"valor"`
	Icon  string `json:"icono"`
	Color string `json:"color"`
}

// Badge is a labelled, styled marker.
type Badge struct {
	Label string `json:"label"`
	Class string `json:"class"`
}

// ProjectCard is the kanban summary of a project.
type ProjectCard struct {
	ID                 int64    `json:"id"`
	Titulo             string   `json:"titulo"`
	Estado             Badge    `json:"estado"`
	Estudiante         string   `json:"estudiante"`
	EstudiantesExtra   int      `json:"estudiantesExtra,omitempty"`
	Director           string   `json:"director"`
	LineaInvestigacion string   `json:"lineaInvestigacion"`
	Area               string   `json:"area"`
	FechaInicio        string   `json:"fechaInicio"`
	FechaSustentacion  string   `json:"fechaSustentacion,omitempty"`
	Presentacion       string   `json:"presentacion"`
	Progreso           float64  `json:"progreso"`
	Acciones           []string `json:"acciones"`
}

// ProjectTable is the tabular project listing.
type ProjectTable struct {
	Title        string       `json:"titulo"`
	Subtitle     string       `json:"subtitulo,omitempty"`
	Columns      []string     `json:"columnas"`
	Rows         []ProjectRow `json:"filas"`
	EmptyMessage string       `json:"mensajeVacio,omitempty"`
}

// ProjectRow is one row of the project table.
type ProjectRow struct {
	ID          int64    `json:"id"`
	Titulo      string   `json:"titulo"`
	Estudiantes string   `json:"estudiantes"`
	Programa    string   `json:"programa,omitempty"`
	Director    string   `json:"director"`
	Fase        Badge    `json:"fase"`
	Estado      Badge    `json:"estado"`
	Fecha       string   `json:"fecha"`
	Acciones    []string `json:"acciones"`
}

// StudentPanel is the student's own project with team affordances.
type StudentPanel struct {
	Project           ProjectCard `json:"proyecto"`
	Members           []string    `json:"integrantes"`
	EmptySlots        int         `json:"cuposLibres"`
	CanInviteDirector bool        `json:"puedeInvitarDirector"`
	CanInvitePeer     bool        `json:"puedeInvitarCompanero"`
	PendingDirector   string      `json:"directorPendiente,omitempty"`
	PendingInviteID   int64       `json:"invitacionPendienteId,omitempty"`
}

// EmptyState is shown when there is nothing to list.
type EmptyState struct {
	Title       string `json:"titulo"`
	Message     string `json:"mensaje"`
	ActionLabel string `json:"accionEtiqueta,omitempty"`
	Action      string `json:"accion,omitempty"`
}

// ModalView is the open modal of the dashboard.
type ModalView struct {
	Kind        string `json:"tipo"`
	ProjectID   int64  `json:"proyectoId,omitempty"`
	Placeholder bool   `json:"proximamente"`
	Message     string `json:"mensaje,omitempty"`
}

// ExportAffordance advertises the project table export to admins.
type ExportAffordance struct {
	Formats  []string `json:"formatos"`
	Endpoint string   `json:"endpoint"`
}

// StatusOption is a status-change event offered in the change-status modal.
type StatusOption struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Categoria   string `json:"categoria"`
	Resultante  Badge  `json:"estadoResultante"`
	Descripcion string `json:"descripcion,omitempty"`
}

// HistoryRow is a formatted project history event.
type HistoryRow struct {
	ID             int64  `json:"id"`
	Evento         string `json:"evento"`
	Categoria      string `json:"categoria"`
	Descripcion    string `json:"descripcion,omitempty"`
	EstadoAnterior *Badge `json:"estadoAnterior,omitempty"`
	EstadoNuevo    *Badge `json:"estadoNuevo,omitempty"`
	Fecha          string `json:"fecha"`
	Responsable    string `json:"responsable"`
}
