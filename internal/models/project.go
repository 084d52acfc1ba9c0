package models

// ProjectStatus is the fine-grained workflow status reported by the backend.
type ProjectStatus string

const (
	StatusRegistered           ProjectStatus = "REGISTRADO"
	StatusInFormatReview       ProjectStatus = "EN_REVISION_FORMATO"
	StatusInContentReview      ProjectStatus = "EN_REVISION_CONTENIDO"
	StatusInFormatCorrections  ProjectStatus = "CON_CORRECCIONES_FORMATO"
	StatusInContentCorrections ProjectStatus = "CON_CORRECCIONES_CONTENIDO"
	StatusInDevelopment        ProjectStatus = "EN_DESARROLLO"
	StatusApprovedToStart      ProjectStatus = "APROBADO_INICIO"
	StatusDefenseScheduled     ProjectStatus = "SUSTENTACION_PROGRAMADA"
	StatusFinalized            ProjectStatus = "FINALIZADO"
	StatusRejected             ProjectStatus = "RECHAZADO"
	StatusCancelled            ProjectStatus = "CANCELADO"
)

// ProjectStatuses lists every status in workflow order.
var ProjectStatuses = []ProjectStatus{
	StatusRegistered,
	StatusInFormatReview,
	StatusInContentReview,
	StatusInFormatCorrections,
	StatusInContentCorrections,
	StatusInDevelopment,
	StatusApprovedToStart,
	StatusDefenseScheduled,
	StatusFinalized,
	StatusRejected,
	StatusCancelled,
}

// Phase is the coarse-grained project stage.
type Phase string

const (
	PhaseFormulation  Phase = "FORMULACION"
	PhaseEvaluation   Phase = "EVALUACION"
	PhaseApproval     Phase = "APROBACION"
	PhaseExecution    Phase = "EJECUCION"
	PhaseClosure      Phase = "CIERRE"
	PhaseFinalization Phase = "FINALIZACION"
)

// DirectorKind distinguishes faculty directors from external ones.
type DirectorKind string

const (
	DirectorProfessor DirectorKind = "PROFESOR"
	DirectorExternal  DirectorKind = "EXTERNO"
)

// MaxProjectStudents caps project membership.
const MaxProjectStudents = 3

// ProjectStudent is a student enrolled in a project.
type ProjectStudent struct {
	Cedula           string `json:"cedula"`
	Nombre           string `json:"nombre,omitempty"`
	Nombres          string `json:"nombres,omitempty"`
	Apellidos        string `json:"apellidos,omitempty"`
	CodigoEstudiante string `json:"codigoEstudiante,omitempty"`
	ProgramaCodigo   string `json:"programaCodigo,omitempty"`
	Email            string `json:"email,omitempty"`
}

// FullName prefers the backend display name and falls back to given names.
func (s ProjectStudent) FullName() string {
	if s.Nombre != "" {
		return s.Nombre
	}
	name := s.Nombres
	if s.Apellidos != "" {
		if name != "" {
			name += " "
		}
		name += s.Apellidos
	}
	return name
}

// Project is a thesis project as served by the backend.
type Project struct {
	ID                       int64            `json:"id"`
	CodigoProyecto           string           `json:"codigoProyecto,omitempty"`
	Titulo                   string           `json:"titulo"`
	Descripcion              string           `json:"descripcion"`
	ObjetivoGeneral          string           `json:"objetivoGeneral"`
	ModalidadID              *int64           `json:"modalidadId,omitempty"`
	ModalidadNombre          string           `json:"modalidadNombre,omitempty"`
	LineaInvestigacionID     *int64           `json:"lineaInvestigacionId,omitempty"`
	LineaInvestigacionNombre string           `json:"lineaInvestigacionNombre,omitempty"`
	Estado                   ProjectStatus    `json:"estado"`
	Fase                     Phase            `json:"fase"`
	PorcentajeAvance         float64          `json:"porcentajeAvance"`
	Estudiantes              []ProjectStudent `json:"estudiantes"`
	DirectorCedula           *string          `json:"directorCedula,omitempty"`
	DirectorNombre           *string          `json:"directorNombre,omitempty"`
	TipoDirector             *DirectorKind    `json:"tipoDirector,omitempty"`
	FechaPresentacion        *string          `json:"fechaPresentacion,omitempty"`
	FechaInicioDesarrollo    *string          `json:"fechaInicioDesarrollo,omitempty"`
	FechaFinEstimada         *string          `json:"fechaFinEstimada,omitempty"`
	FechaSustentacion        *string          `json:"fechaSustentacion,omitempty"`
	FechaUltimaActualizacion *string          `json:"fechaUltimaActualizacion,omitempty"`
	NotaFinal                *float64         `json:"notaFinal,omitempty"`
	ResultadoFinal           *string          `json:"resultadoFinal,omitempty"`
}

// HasDirector reports whether a director has accepted the project.
func (p *Project) HasDirector() bool {
	if p == nil {
		return false
	}
	return (p.DirectorCedula != nil && *p.DirectorCedula != "") ||
		(p.DirectorNombre != nil && *p.DirectorNombre != "")
}

// LeadStudent returns the first enrolled student, the project owner.
func (p *Project) LeadStudent() (ProjectStudent, bool) {
	if p == nil || len(p.Estudiantes) == 0 {
		return ProjectStudent{}, false
	}
	return p.Estudiantes[0], true
}

// CreateProjectInput is the body of the project creation call.
type CreateProjectInput struct {
	Titulo               string `json:"titulo"`
	Descripcion          string `json:"descripcion"`
	ObjetivoGeneral      string `json:"objetivoGeneral"`
	ModalidadID          int64  `json:"modalidadId"`
	LineaInvestigacionID int64  `json:"lineaInvestigacionId"`
}
