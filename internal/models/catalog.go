package models

// Modality is a recognised project deliverable category.
type Modality struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

// ResearchArea groups research lines.
type ResearchArea struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

// ResearchLine is a sub-classification inside an area.
type ResearchLine struct {
	ID         int64  `json:"id"`
	Nombre     string `json:"nombre"`
	AreaID     *int64 `json:"areaId,omitempty"`
	AreaNombre string `json:"areaNombre,omitempty"`
}

// Professor is a potential project director.
type Professor struct {
	Cedula       string `json:"cedula"`
	Nombre       string `json:"nombre"`
	Email        string `json:"email,omitempty"`
	Departamento string `json:"departamento,omitempty"`
	Tipo         string `json:"tipo,omitempty"`
}

// StudentSummary is a student as listed or found by lookup.
type StudentSummary struct {
	Cedula           string `json:"cedula"`
	Nombre           string `json:"nombre"`
	CodigoEstudiante string `json:"codigoEstudiante,omitempty"`
	ProgramaCodigo   string `json:"programaCodigo,omitempty"`
	Email            string `json:"email,omitempty"`
	TieneProyecto    bool   `json:"tieneProyecto,omitempty"`
}
