package models

import "time"

// MeetingModality is how a meeting takes place.
type MeetingModality string

const (
	MeetingVirtual   MeetingModality = "VIRTUAL"
	MeetingInPerson  MeetingModality = "PRESENCIAL"
	MeetingEmail     MeetingModality = "CORREO"
	MeetingTelephone MeetingModality = "TELEFONICA"
)

// MeetingTimeLayout is the backend LocalDateTime layout for meeting times.
const MeetingTimeLayout = "2006-01-02T15:04:05"

// Meeting is a director/student meeting on a project.
type Meeting struct {
	ID                int64           `json:"id"`
	ProyectoID        int64           `json:"proyectoId"`
	ProyectoTitulo    string          `json:"proyectoTitulo,omitempty"`
	SolicitanteCedula string          `json:"solicitanteCedula,omitempty"`
	ReceptorCedula    string          `json:"receptorCedula,omitempty"`
	FechaReunion      string          `json:"fechaReunion"`
	DuracionMinutos   int             `json:"duracionMinutos"`
	Tipo              MeetingModality `json:"tipo"`
	TemasPropuestos   string          `json:"temasPropuestos,omitempty"`
	TemasTratados     string          `json:"temasTratados,omitempty"`
	Acuerdos          string          `json:"acuerdos,omitempty"`
	ProximaReunion    *string         `json:"proximaReunion,omitempty"`
	AsistioEstudiante *bool           `json:"asistioEstudiante,omitempty"`
	Observaciones     string          `json:"observaciones,omitempty"`
}

// ScheduledAt parses the meeting time in loc. Zone-less backend values are
// interpreted as local wall time.
func (m Meeting) ScheduledAt(loc *time.Location) (time.Time, bool) {
	if m.FechaReunion == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{time.RFC3339, MeetingTimeLayout, "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, m.FechaReunion, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MeetingRequestInput is the body of the meeting request call.
type MeetingRequestInput struct {
	ProyectoID        int64           `json:"proyectoId"`
	SolicitanteCedula string          `json:"solicitanteCedula"`
	ReceptorCedula    string          `json:"receptorCedula"`
	FechaReunion      string          `json:"fechaReunion"`
	DuracionMinutos   int             `json:"duracionMinutos"`
	Tipo              MeetingModality `json:"tipo"`
	TemasPropuestos   string          `json:"temasPropuestos"`
	Observaciones     *string         `json:"observaciones"`
}

// MeetingDetailsInput is the body of the post-meeting details call.
type MeetingDetailsInput struct {
	ReunionID      int64   `json:"reunionId"`
	TemasTratados  string  `json:"temasTratados"`
	Acuerdos       *string `json:"acuerdos"`
	ProximaReunion *string `json:"proximaReunion"`
	Observaciones  *string `json:"observaciones"`
}

// AttendanceInput is the body of the attendance call.
type AttendanceInput struct {
	AsistioEstudiante bool    `json:"asistioEstudiante"`
	Observaciones     *string `json:"observaciones"`
}
