package models

// NotificationKind discriminates actionable notifications.
type NotificationKind string

const (
	NotificationGeneral        NotificationKind = "GENERAL"
	NotificationProjectInvite  NotificationKind = "INVITACION_PROYECTO"
	NotificationDirectorInvite NotificationKind = "INVITACION_DIRECCION"
)

// Actionable reports whether the notification expects an accept/reject answer.
func (k NotificationKind) Actionable() bool {
	return k == NotificationProjectInvite || k == NotificationDirectorInvite
}

// InvitationStatus tracks an invitation lifecycle.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDIENTE"
	InvitationAccepted  InvitationStatus = "ACEPTADA"
	InvitationRejected  InvitationStatus = "RECHAZADA"
	InvitationCancelled InvitationStatus = "CANCELADA"
)

// InvitationAnswer is the response sent for an invitation.
type InvitationAnswer string

const (
	AnswerAccept InvitationAnswer = "ACEPTADA"
	AnswerReject InvitationAnswer = "RECHAZADA"
)

// Valid reports whether the answer is accept or reject.
func (a InvitationAnswer) Valid() bool {
	return a == AnswerAccept || a == AnswerReject
}

// Notification is a message addressed to one user.
type Notification struct {
	ID                 int64                  `json:"id"`
	DestinatarioCedula string                 `json:"destinatarioCedula,omitempty"`
	Tipo               NotificationKind       `json:"tipo"`
	Titulo             string                 `json:"titulo"`
	Mensaje            string                 `json:"mensaje"`
	Leida              bool                   `json:"leida"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	FechaCreacion      string                 `json:"fechaCreacion"`
}

// MetaString reads a string metadata field.
func (n Notification) MetaString(key string) string {
	if n.Metadata == nil {
		return ""
	}
	if v, ok := n.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// Invitation is a membership or director invitation.
type Invitation struct {
	ID                 int64                  `json:"id"`
	Tipo               NotificationKind       `json:"tipo,omitempty"`
	Estado             InvitationStatus       `json:"estado,omitempty"`
	ProyectoID         int64                  `json:"proyectoId,omitempty"`
	RemitenteCedula    string                 `json:"remitenteCedula,omitempty"`
	DestinatarioCedula string                 `json:"destinatarioCedula,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	FechaCreacion      string                 `json:"fechaCreacion,omitempty"`
}

// DirectorName reads the invited director name from metadata.
func (i *Invitation) DirectorName() string {
	if i == nil || i.Metadata == nil {
		return ""
	}
	if v, ok := i.Metadata["directorNombre"].(string); ok {
		return v
	}
	return ""
}

// PeerInviteInput is the body of the membership invite call.
type PeerInviteInput struct {
	ProyectoID               int64  `json:"proyectoId"`
	EstudianteInvitadoCedula string `json:"estudianteInvitadoCedula"`
	InvitanteCedula          string `json:"invitanteCedula"`
	InvitanteNombre          string `json:"invitanteNombre"`
	TituloProyecto           string `json:"tituloProyecto"`
	IdempotencyKey           string `json:"idempotencyKey,omitempty"`
}

// DirectorInviteInput is the body of the director invite call.
type DirectorInviteInput struct {
	ProyectoID       int64        `json:"proyectoId"`
	DirectorCedula   string       `json:"directorCedula"`
	TipoDirector     DirectorKind `json:"tipoDirector"`
	CedulaEstudiante string       `json:"cedulaEstudiante"`
	IdempotencyKey   string       `json:"idempotencyKey,omitempty"`
}
