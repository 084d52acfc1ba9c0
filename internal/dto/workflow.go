package dto

import "github.com/noah-isme/thesis-portal/internal/models"

// ChangeStatusRequest captures POST /projects/:id/status.
type ChangeStatusRequest struct {
	EventID     int64  `json:"tipoEventoId" validate:"required,gt=0"`
	Description string `json:"descripcion" validate:"max=1000"`
}

// CreateProjectRequest captures POST /projects.
type CreateProjectRequest struct {
	Titulo               string `json:"titulo" validate:"required,min=5,max=300"`
	Descripcion          string `json:"descripcion" validate:"required"`
	ObjetivoGeneral      string `json:"objetivoGeneral" validate:"required"`
	ModalidadID          int64  `json:"modalidadId" validate:"required,gt=0"`
	LineaInvestigacionID int64  `json:"lineaInvestigacionId" validate:"required,gt=0"`
}

// DirectorInviteRequest captures POST /invitations/director.
type DirectorInviteRequest struct {
	DirectorCedula string              `json:"directorCedula" validate:"required"`
	TipoDirector   models.DirectorKind `json:"tipoDirector" validate:"required,oneof=PROFESOR EXTERNO"`
}

// CancelDirectorInviteRequest captures DELETE /invitations/director.
// Confirm mirrors the confirmation prompt shown before the destructive call.
type CancelDirectorInviteRequest struct {
	InvitationID int64 `json:"invitacionId" validate:"required,gt=0"`
	Confirm      bool  `json:"confirmar"`
}

// StudentLookupRequest captures GET /students/lookup.
type StudentLookupRequest struct {
	Cedula string `form:"cedula" validate:"required_without=Codigo"`
	Codigo string `form:"codigo" validate:"required_without=Cedula"`
}

// PeerInviteRequest captures POST /invitations/peer. The invitee
// must come from a previous exact lookup.
type PeerInviteRequest struct {
	InviteeCedula string `json:"estudianteInvitadoCedula" validate:"required"`
	LookupCedula  string `json:"cedulaBusqueda"`
	LookupCodigo  string `json:"codigoBusqueda"`
}

// RespondInvitationRequest captures POST /notifications/:id/respond.
type RespondInvitationRequest struct {
	Respuesta models.InvitationAnswer `json:"respuesta" validate:"required,oneof=ACEPTADA RECHAZADA"`
}

// MeetingRequest captures POST /projects/:id/meetings.
type MeetingRequest struct {
	Fecha           string                 `json:"fecha" validate:"required,datetime=2006-01-02"`
	Hora            string                 `json:"hora" validate:"required,datetime=15:04"`
	DuracionMinutos int                    `json:"duracionMinutos" validate:"omitempty,min=15,max=480"`
	Tipo            models.MeetingModality `json:"tipo" validate:"omitempty,oneof=VIRTUAL PRESENCIAL CORREO TELEFONICA"`
	TemasPropuestos string                 `json:"temasPropuestos"`
	Observaciones   string                 `json:"observaciones"`
}

// MeetingDetailsRequest captures POST /meetings/:id/details.
type MeetingDetailsRequest struct {
	TemasTratados     string `json:"temasTratados" validate:"required"`
	Acuerdos          string `json:"acuerdos"`
	ProximaReunion    string `json:"proximaReunion" validate:"omitempty,datetime=2006-01-02"`
	AsistioEstudiante *bool  `json:"asistioEstudiante"`
	Observaciones     string `json:"observaciones"`
}

// ModalRequest captures POST /dashboard/modal.
type ModalRequest struct {
	Kind      string `json:"tipo" validate:"required,oneof=cambio_estado historial reunion detalle"`
	ProjectID int64  `json:"proyectoId"`
	Open      bool   `json:"abierto"`
}
