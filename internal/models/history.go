package models

// StatusChangeEvent is a catalog entry that moves a project to one status.
type StatusChangeEvent struct {
	ID               int64         `json:"id"`
	Nombre           string        `json:"nombre"`
	Categoria        string        `json:"categoria"`
	EstadoResultante ProjectStatus `json:"estadoResultante"`
	Descripcion      string        `json:"descripcion,omitempty"`
}

// HistoryEntry is one recorded event in a project's history.
type HistoryEntry struct {
	ID                       int64         `json:"id"`
	EventoNombre             string        `json:"eventoNombre"`
	Categoria                string        `json:"categoria"`
	Descripcion              string        `json:"descripcion,omitempty"`
	EstadoAnterior           ProjectStatus `json:"estadoAnterior,omitempty"`
	EstadoNuevo              ProjectStatus `json:"estadoNuevo,omitempty"`
	FechaEvento              string        `json:"fechaEvento"`
	UsuarioResponsableNombre string        `json:"usuarioResponsableNombre,omitempty"`
}

// StatusInfo describes a status as exposed by the backend catalog.
type StatusInfo struct {
	Codigo      ProjectStatus `json:"codigo"`
	Nombre      string        `json:"nombre"`
	Descripcion string        `json:"descripcion,omitempty"`
}

// ChangeStatusInput is the body of the change-status call.
type ChangeStatusInput struct {
	TipoEventoID             int64  `json:"tipoEventoId"`
	Descripcion              string `json:"descripcion"`
	UsuarioResponsableCedula string `json:"usuarioResponsableCedula"`
}
