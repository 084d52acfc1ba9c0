package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
)

type statusStyle struct {
	label string
	color string
}

var statusStyles = map[models.ProjectStatus]statusStyle{
	models.StatusRegistered:           {"Registrado", "gray"},
	models.StatusInFormatReview:       {"Revisión Formato", "blue"},
	models.StatusInContentReview:      {"Revisión", "orange"},
	models.StatusInDevelopment:        {"En Desarrollo", "blue"},
	models.StatusApprovedToStart:      {"Aprobado", "green"},
	models.StatusFinalized:            {"Finalizado", "green"},
	models.StatusRejected:             {"Rechazado", "red"},
	models.StatusCancelled:            {"Cancelado", "red"},
	models.StatusInFormatCorrections:  {"Correcciones", "orange"},
	models.StatusInContentCorrections: {"Correcciones", "orange"},
	models.StatusDefenseScheduled:     {"Sustentación", "purple"},
}

var knownPhases = map[models.Phase]bool{
	models.PhaseFormulation:  true,
	models.PhaseEvaluation:   true,
	models.PhaseApproval:     true,
	models.PhaseExecution:    true,
	models.PhaseClosure:      true,
	models.PhaseFinalization: true,
}

var programNames = map[string]string{
	"111":  "Ingeniería Civil",
	"112":  "Ingeniería Mecánica",
	"115":  "Ingeniería de Sistemas",
	"116":  "Ingeniería Electrónica",
	"118":  "Ingeniería de Minas",
	"119":  "Ingeniería Electromecánica",
	"120":  "Ingeniería Industrial",
	"210":  "Administración de Empresas",
	"211":  "Contaduría Pública",
	"310":  "Derecho",
	"410":  "Enfermería",
	"411":  "Medicina",
	"510":  "Comunicación Social",
	"511":  "Trabajo Social",
	"610":  "Ingeniería Ambiental",
	"710":  "Lic. Matemáticas",
	"711":  "Lic. Informática",
	"712":  "Lic. Biología y Química",
	"713":  "Lic. Educación Física",
	"714":  "Lic. Lengua Castellana",
	"715":  "Lic. Lenguas Extranjeras",
	"810":  "Arquitectura",
	"910":  "Artes Plásticas",
	"1010": "Economía",
	"1110": "Zootecnia",
	"1210": "Música",
	"1310": "Biotecnología",
	"1410": "Comunicación y Marketing Digital",
	"1510": "Ingeniería Agroindustrial",
	"1610": "Ingeniería de Software",
}

// programShortNames is the abbreviated table used by project tables.
var programShortNames = map[string]string{
	"111": "Ing. Civil",
	"112": "Ing. Mecánica",
	"114": "Ing. Mecánica",
	"115": "Ing. Sistemas",
	"116": "Ing. Electrónica",
	"118": "Ing. Minas",
	"119": "Ing. Electromecánica",
	"120": "Ing. Industrial",
	"210": "Administración",
	"211": "Contaduría",
	"212": "Comercio Internacional",
	"310": "Derecho",
	"311": "Comunicación Social",
	"410": "Lic. Matemáticas",
	"411": "Lic. Informática",
	"412": "Lic. Educación Comunitaria",
	"420": "Lic. Educación Infantil",
	"421": "Lic. Educación Física",
	"422": "Lic. Lengua Castellana",
	"423": "Lic. Ciencias Naturales",
	"424": "Lic. Educación Artística",
	"425": "Lic. Básica Primaria",
	"430": "Lic. Filosofía",
	"431": "Lic. Inglés",
	"432": "Lic. Ciencias Sociales",
	"433": "Lic. Educación Religiosa",
	"434": "Lic. Educación Especial",
	"510": "Enfermería",
	"511": "Medicina",
	"610": "Ing. Ambiental",
	"611": "Ing. Agroindustrial",
	"612": "Ing. Agronómica",
	"613": "Zootecnia",
	"614": "Ing. Biotecnológica",
}

var resultLabels = map[string]string{
	"APROBADA":   "Aprobada",
	"MERITORIA":  "Meritoria",
	"LAUREADA":   "Laureada",
	"RECHAZADA":  "Rechazada",
	"A_CORREGIR": "A Corregir",
}

var monthsLong = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

var monthsShort = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

var backendDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var placeholderMessages = map[ModalKind]string{
	ModalMeeting: "La funcionalidad de agendar reuniones estará disponible próximamente.",
	ModalDetail:  "La vista detallada del proyecto estará disponible próximamente.",
}

var tableColumns = []string{"Título", "Estudiantes", "Director", "Fase", "Estado", "Fecha Inicio", "Acciones"}

var adminTableColumns = []string{"Título", "Estudiantes", "Programa", "Director", "Fase", "Estado", "Fecha Inicio", "Acciones"}

// StatusLabel returns the display label of a status.
func StatusLabel(status models.ProjectStatus) string {
	if style, ok := statusStyles[status]; ok {
		return style.label
	}
	if status == "" {
		return "Sin estado"
	}
	return Beautify(string(status))
}

// StatusColor returns the badge color of a status.
func StatusColor(status models.ProjectStatus) string {
	if style, ok := statusStyles[status]; ok {
		return style.color
	}
	return "gray"
}

// StatusBadge is the card badge of a status.
func StatusBadge(status models.ProjectStatus) dto.Badge {
	return dto.Badge{Label: StatusLabel(status), Class: "estado--" + StatusColor(status)}
}

// TableStatusBadge is the table badge of a status, styled per status code.
func TableStatusBadge(status models.ProjectStatus) dto.Badge {
	if status == "" {
		return dto.Badge{Label: "Desconocido", Class: "estado-desconocido"}
	}
	class := strings.ReplaceAll(strings.ToLower(string(status)), "_", "-")
	return dto.Badge{Label: Beautify(string(status)), Class: "estado-" + class}
}

// PhaseBadge is the table badge of a phase.
func PhaseBadge(phase models.Phase) dto.Badge {
	class := "fase-default"
	if knownPhases[phase] {
		class = "fase-" + strings.ToLower(string(phase))
	}
	label := string(phase)
	if label == "" {
		label = "Sin fase"
	}
	return dto.Badge{Label: label, Class: class}
}

// ProgramName is the full name of a program code.
func ProgramName(code string) string {
	if name, ok := programNames[code]; ok {
		return name
	}
	return "Programa " + code
}

// ProgramShortName is the abbreviated name of a program code, or the code
// itself when unknown.
func ProgramShortName(code string) string {
	if name, ok := programShortNames[code]; ok {
		return name
	}
	if code == "" {
		return "Sin programa"
	}
	return code
}

// ResultLabel is the display label of a final defense result.
func ResultLabel(result string) string {
	if label, ok := resultLabels[result]; ok {
		return label
	}
	return Beautify(result)
}

// Beautify turns an enum code into display text.
func Beautify(code string) string {
	return strings.ReplaceAll(code, "_", " ")
}

// ParseBackendDate parses the date formats the backend emits.
func ParseBackendDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range backendDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDateLong renders a date as "2 de marzo de 2026". Unparseable input
// is returned as is.
func FormatDateLong(value string) string {
	t, ok := ParseBackendDate(value)
	if !ok {
		return value
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthsLong[t.Month()-1], t.Year())
}

// FormatDateShort renders a date as "2 mar 2026".
func FormatDateShort(value string) string {
	t, ok := ParseBackendDate(value)
	if !ok {
		return value
	}
	return fmt.Sprintf("%d %s %d", t.Day(), monthsShort[t.Month()-1], t.Year())
}

// FormatDateTime renders a timestamp as "2 de marzo de 2026, 09:00".
func FormatDateTime(value string) string {
	t, ok := ParseBackendDate(value)
	if !ok {
		return value
	}
	return fmt.Sprintf("%s, %02d:%02d", FormatDateLong(value), t.Hour(), t.Minute())
}

// ViewService renders router state into dashboard views.
type ViewService struct {
	permissions    *PermissionTable
	exportEndpoint string
	exportFormats  []string
}

// NewViewService constructs the view renderer. An empty export endpoint hides
// the admin export affordance.
func NewViewService(permissions *PermissionTable, exportEndpoint string, exportFormats []string) *ViewService {
	if permissions == nil {
		permissions = DefaultPermissionTable()
	}
	return &ViewService{
		permissions:    permissions,
		exportEndpoint: exportEndpoint,
		exportFormats:  exportFormats,
	}
}

// Render builds the dashboard view for an identity.
func (s *ViewService) Render(identity *models.Identity, state DashboardState) dto.DashboardView {
	view := dto.DashboardView{
		Variant:    string(state.Variant),
		Status:     string(state.Status),
		Error:      state.Error,
		Generation: state.Generation,
		Modal:      modalView(state.Modal),
	}
	if identity != nil {
		view.Header.Name = identity.Nombre
	}
	if state.Status != LoadReady {
		return view
	}

	role := models.Role("")
	if identity != nil {
		role = identity.Rol
	}
	actions := s.permissions.ProjectActions(role)

	switch state.Variant {
	case VariantAdmin:
		s.renderAdmin(&view, identity, state, actions)
	case VariantDirector:
		view.Header.Greeting = "Panel de Director"
		view.Header.Subtitle = "Gestiona los proyectos asignados a tu dirección"
		view.Stats = StatCards(state.Stats)
		view.Cards = BuildCards(state.Projects, actions)
		view.Table = &dto.ProjectTable{
			Title:    "📚 Mis Proyectos Dirigidos",
			Subtitle: "Proyectos bajo tu dirección académica",
			Columns:  tableColumns,
			Rows:     BuildRows(state.Projects, actions, false),
		}
		if len(state.Projects) == 0 {
			view.EmptyState = &dto.EmptyState{
				Title:   "No tienes proyectos asignados",
				Message: "Aún no se te han asignado proyectos para dirigir.",
			}
		}
	case VariantStudent:
		view.Header.Greeting = "Mi Dashboard"
		view.Header.Subtitle = "Bienvenido al sistema de gestión de proyectos de grado"
		if state.StudentProject == nil {
			view.EmptyState = StudentEmptyState()
			return view
		}
		view.Student = BuildStudentPanel(state.StudentProject, state.PendingInvitation, actions)
	default:
		view.EmptyState = &dto.EmptyState{
			Title:   "Rol de usuario no reconocido",
			Message: "Contacte al administrador del sistema.",
		}
	}
	return view
}

func (s *ViewService) renderAdmin(view *dto.DashboardView, identity *models.Identity, state DashboardState, actions []string) {
	general := identity != nil && identity.EsAdminGeneral
	program := ""
	if state.AdminInfo != nil && state.AdminInfo.ProgramaCodigo != nil {
		program = *state.AdminInfo.ProgramaCodigo
	} else if identity != nil && identity.ProgramaCodigo != nil {
		program = *identity.ProgramaCodigo
	}

	view.Header.Greeting = "Bienvenido,"
	table := &dto.ProjectTable{
		Columns:      adminTableColumns,
		Rows:         BuildRows(state.Projects, actions, true),
		EmptyMessage: "No hay proyectos disponibles",
	}
	if general {
		view.Header.Badges = []string{"👑 Super Administrador"}
		table.Title = "📊 Todos los Proyectos del Sistema"
		table.Subtitle = "Vista completa de todos los proyectos registrados"
	} else {
		view.Header.Badges = []string{"📋 Coordinador de Comité"}
		table.Title = "📊 Proyectos del Programa"
		table.Subtitle = "Proyectos de tu programa"
		if program != "" {
			view.Header.Badges = append(view.Header.Badges, "🎓 "+ProgramName(program))
			table.Subtitle = "Proyectos de " + ProgramName(program)
		}
	}
	view.Stats = StatCards(state.Stats)
	view.Table = table
	view.StatusEvents = StatusOptions(state.StatusEvents)
	if s.exportEndpoint != "" && len(s.exportFormats) > 0 {
		view.Export = &dto.ExportAffordance{Formats: s.exportFormats, Endpoint: s.exportEndpoint}
	}
}

// StatCards renders the stats grid.
func StatCards(stats DashboardStats) []dto.StatCard {
	return []dto.StatCard{
		{Title: "Total Proyectos", Value: stats.Total, Icon: "📁", Color: "#667eea"},
		{Title: "En Desarrollo", Value: stats.EnDesarrollo, Icon: "🔨", Color: "#48bb78"},
		{Title: "En Revisión", Value: stats.EnRevision, Icon: "👀", Color: "#ed8936"},
		{Title: "Completados", Value: stats.Completados, Icon: "✅", Color: "#38b2ac"},
	}
}

// StudentEmptyState is the create-project call to action.
func StudentEmptyState() *dto.EmptyState {
	return &dto.EmptyState{
		Title:       "Aún no tienes un proyecto registrado",
		Message:     "Crea tu proyecto de grado para comenzar. Podrás invitar compañeros y solicitar un director después.",
		ActionLabel: "✨ Crear Mi Proyecto",
		Action:      PermCreateProject,
	}
}

// BuildCards renders the kanban summary of each project.
func BuildCards(projects []models.Project, actions []string) []dto.ProjectCard {
	cards := make([]dto.ProjectCard, 0, len(projects))
	for i := range projects {
		cards = append(cards, BuildCard(&projects[i], actions))
	}
	return cards
}

// BuildCard renders one project card.
func BuildCard(p *models.Project, actions []string) dto.ProjectCard {
	card := dto.ProjectCard{
		ID:                 p.ID,
		Titulo:             p.Titulo,
		Estado:             StatusBadge(p.Estado),
		Estudiante:         "Sin asignar",
		Director:           directorName(p),
		LineaInvestigacion: "No asignada",
		Area:               "Sin área",
		FechaInicio:        "No registrada",
		Presentacion:       "Sin fecha de presentación",
		Progreso:           p.PorcentajeAvance,
		Acciones:           orEmpty(actions),
	}
	if lead, ok := p.LeadStudent(); ok {
		card.Estudiante = strings.TrimSpace(lead.FullName())
		card.EstudiantesExtra = len(p.Estudiantes) - 1
	}
	if p.LineaInvestigacionNombre != "" {
		card.LineaInvestigacion = p.LineaInvestigacionNombre
		words := strings.Fields(p.LineaInvestigacionNombre)
		if len(words) > 3 {
			words = words[:3]
		}
		card.Area = strings.Join(words, " ")
	}
	if start := startDate(p); start != "" {
		card.FechaInicio = FormatDateLong(start)
	}
	if p.FechaSustentacion != nil && *p.FechaSustentacion != "" {
		card.FechaSustentacion = FormatDateLong(*p.FechaSustentacion)
	}
	if p.FechaPresentacion != nil && *p.FechaPresentacion != "" {
		card.Presentacion = "Presentado: " + FormatDateLong(*p.FechaPresentacion)
	}
	return card
}

// BuildRows renders the project table. withProgram adds the program column.
func BuildRows(projects []models.Project, actions []string, withProgram bool) []dto.ProjectRow {
	rows := make([]dto.ProjectRow, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		row := dto.ProjectRow{
			ID:          p.ID,
			Titulo:      p.Titulo,
			Estudiantes: studentNames(p.Estudiantes),
			Director:    directorName(p),
			Fase:        PhaseBadge(p.Fase),
			Estado:      TableStatusBadge(p.Estado),
			Fecha:       "Sin fecha",
			Acciones:    orEmpty(actions),
		}
		if withProgram {
			row.Programa = studentPrograms(p.Estudiantes)
		}
		if start := startDate(p); start != "" {
			row.Fecha = FormatDateShort(start)
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildStudentPanel renders the student's project with team affordances.
func BuildStudentPanel(project *models.Project, pending *models.Invitation, actions []string) *dto.StudentPanel {
	panel := &dto.StudentPanel{
		Project:           BuildCard(project, actions),
		Members:           make([]string, 0, len(project.Estudiantes)),
		EmptySlots:        EmptySlots(project),
		CanInviteDirector: CanInviteDirector(project, pending),
		CanInvitePeer:     CanInvitePeer(project),
	}
	for _, st := range project.Estudiantes {
		name := strings.TrimSpace(st.FullName())
		if name == "" {
			name = "Sin nombre"
		}
		panel.Members = append(panel.Members, name)
	}
	if pending != nil {
		panel.PendingDirector = pending.DirectorName()
		panel.PendingInviteID = pending.ID
	}
	return panel
}

// StatusOptions renders the status-change events of the admin modal.
func StatusOptions(events []models.StatusChangeEvent) []dto.StatusOption {
	out := make([]dto.StatusOption, 0, len(events))
	for _, e := range events {
		out = append(out, dto.StatusOption{
			ID:          e.ID,
			Nombre:      e.Nombre,
			Categoria:   e.Categoria,
			Resultante:  TableStatusBadge(e.EstadoResultante),
			Descripcion: e.Descripcion,
		})
	}
	return out
}

// HistoryRows renders a project history timeline.
func HistoryRows(entries []models.HistoryEntry) []dto.HistoryRow {
	out := make([]dto.HistoryRow, 0, len(entries))
	for _, e := range entries {
		row := dto.HistoryRow{
			ID:          e.ID,
			Evento:      e.EventoNombre,
			Categoria:   Beautify(e.Categoria),
			Descripcion: e.Descripcion,
			Fecha:       FormatDateTime(e.FechaEvento),
			Responsable: e.UsuarioResponsableNombre,
		}
		if row.Responsable == "" {
			row.Responsable = "Sistema"
		}
		if e.EstadoAnterior != "" {
			badge := TableStatusBadge(e.EstadoAnterior)
			row.EstadoAnterior = &badge
		}
		if e.EstadoNuevo != "" {
			badge := TableStatusBadge(e.EstadoNuevo)
			row.EstadoNuevo = &badge
		}
		out = append(out, row)
	}
	return out
}

func modalView(modal ModalState) *dto.ModalView {
	if modal.Kind == ModalNone {
		return nil
	}
	return &dto.ModalView{
		Kind:        string(modal.Kind),
		ProjectID:   modal.ProjectID,
		Placeholder: modal.Kind.Placeholder(),
		Message:     placeholderMessages[modal.Kind],
	}
}

func directorName(p *models.Project) string {
	if p.DirectorNombre != nil && *p.DirectorNombre != "" {
		return *p.DirectorNombre
	}
	return "Sin asignar"
}

func startDate(p *models.Project) string {
	if p.FechaInicioDesarrollo != nil && *p.FechaInicioDesarrollo != "" {
		return *p.FechaInicioDesarrollo
	}
	if p.FechaPresentacion != nil && *p.FechaPresentacion != "" {
		return *p.FechaPresentacion
	}
	return ""
}

func studentNames(students []models.ProjectStudent) string {
	if len(students) == 0 {
		return "Sin asignar"
	}
	names := make([]string, 0, len(students))
	for _, st := range students {
		name := strings.TrimSpace(st.FullName())
		if name == "" {
			name = "Sin nombre"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func studentPrograms(students []models.ProjectStudent) string {
	if len(students) == 0 {
		return "N/A"
	}
	seen := make(map[string]bool, len(students))
	programs := make([]string, 0, len(students))
	for _, st := range students {
		name := ProgramShortName(st.ProgramaCodigo)
		if seen[name] {
			continue
		}
		seen[name] = true
		programs = append(programs, name)
	}
	return strings.Join(programs, ", ")
}
