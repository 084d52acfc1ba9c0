package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/thesis-portal/internal/models"
)

const notificationsPath = "/api/notificaciones"

type answerBody struct {
	Respuesta models.InvitationAnswer `json:"respuesta"`
}

// Notifications lists every notification addressed to cedula.
func (c *Client) Notifications(ctx context.Context, cedula string) ([]models.Notification, error) {
	var out []models.Notification
	_, err := c.do(ctx, call{
		op:       "notifications.list",
		method:   http.MethodGet,
		path:     notificationsPath + "/usuario/" + escape(cedula),
		fallback: "Error al obtener notificaciones",
	}, &out)
	return out, err
}

// PendingNotifications lists the unread notifications of cedula.
func (c *Client) PendingNotifications(ctx context.Context, cedula string) ([]models.Notification, error) {
	var out []models.Notification
	_, err := c.do(ctx, call{
		op:       "notifications.pending",
		method:   http.MethodGet,
		path:     notificationsPath + "/usuario/" + escape(cedula) + "/pendientes",
		fallback: "Error al obtener notificaciones pendientes",
	}, &out)
	return out, err
}

// UnreadCount returns the unread badge counter of cedula.
func (c *Client) UnreadCount(ctx context.Context, cedula string) (int, error) {
	var out struct {
		NoLeidas int `json:"noLeidas"`
	}
	if _, err := c.do(ctx, call{
		op:       "notifications.unread_count",
		method:   http.MethodGet,
		path:     notificationsPath + "/usuario/" + escape(cedula) + "/contador",
		fallback: "Error al contar notificaciones",
	}, &out); err != nil {
		return 0, err
	}
	return out.NoLeidas, nil
}

// InvitePeer invites a student to join a project.
func (c *Client) InvitePeer(ctx context.Context, input models.PeerInviteInput) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{
		op:       "notifications.invite_peer",
		method:   http.MethodPost,
		path:     notificationsPath + "/invitar-companero",
		body:     input,
		fallback: "Error al enviar invitación",
	}, &out)
	return out, err
}

// RespondInvitation answers a project membership invitation.
func (c *Client) RespondInvitation(ctx context.Context, notificationID int64, answer models.InvitationAnswer) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{
		op:       "notifications.respond",
		method:   http.MethodPost,
		path:     notificationsPath + "/" + pathID(notificationID) + "/responder",
		body:     answerBody{Respuesta: answer},
		fallback: "Error al responder invitación",
	}, &out)
	return out, err
}

// MarkRead marks a notification as read.
func (c *Client) MarkRead(ctx context.Context, notificationID int64) error {
	_, err := c.do(ctx, call{
		op:       "notifications.mark_read",
		method:   http.MethodPatch,
		path:     notificationsPath + "/" + pathID(notificationID) + "/marcar-leida",
		fallback: "Error al marcar notificación como leída",
	}, nil)
	return err
}

// FindStudent looks a student up by exact cedula.
func (c *Client) FindStudent(ctx context.Context, cedula string) (*models.StudentSummary, error) {
	var out models.StudentSummary
	if _, err := c.do(ctx, call{
		op:       "notifications.find_student",
		method:   http.MethodGet,
		path:     notificationsPath + "/buscar-estudiante/" + escape(cedula),
		fallback: "Error al buscar estudiante",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindStudentByCode looks a student up by exact enrollment code.
func (c *Client) FindStudentByCode(ctx context.Context, code string) (*models.StudentSummary, error) {
	var out models.StudentSummary
	if _, err := c.do(ctx, call{
		op:       "notifications.find_student_by_code",
		method:   http.MethodGet,
		path:     notificationsPath + "/buscar-estudiante-codigo/" + escape(code),
		fallback: "Error al buscar estudiante",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchDirectors filters eligible directors; an empty term lists them all.
func (c *Client) SearchDirectors(ctx context.Context, term string) ([]models.Professor, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return c.ListDirectors(ctx)
	}
	var out []models.Professor
	_, err := c.do(ctx, call{
		op:       "notifications.search_directors",
		method:   http.MethodGet,
		path:     notificationsPath + "/buscar-directores",
		query:    url.Values{"busqueda": []string{term}},
		fallback: "Error al buscar directores",
	}, &out)
	return out, err
}

// ListDirectors lists every eligible director.
func (c *Client) ListDirectors(ctx context.Context) ([]models.Professor, error) {
	var out []models.Professor
	_, err := c.do(ctx, call{
		op:       "notifications.list_directors",
		method:   http.MethodGet,
		path:     notificationsPath + "/listar-directores",
		fallback: "Error al listar directores",
	}, &out)
	return out, err
}

// InviteDirector sends a director invitation for a project.
func (c *Client) InviteDirector(ctx context.Context, input models.DirectorInviteInput) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{
		op:       "notifications.invite_director",
		method:   http.MethodPost,
		path:     notificationsPath + "/invitar-director",
		body:     input,
		fallback: "Error al enviar invitación al director",
	}, &out)
	return out, err
}

// RespondDirectorInvitation answers a director invitation.
func (c *Client) RespondDirectorInvitation(ctx context.Context, notificationID int64, answer models.InvitationAnswer) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{
		op:       "notifications.respond_director",
		method:   http.MethodPost,
		path:     notificationsPath + "/" + pathID(notificationID) + "/responder-direccion",
		body:     answerBody{Respuesta: answer},
		fallback: "Error al responder invitación de dirección",
	}, &out)
	return out, err
}

// CancelDirectorInvitation withdraws a pending director invitation.
func (c *Client) CancelDirectorInvitation(ctx context.Context, invitationID int64) error {
	_, err := c.do(ctx, call{
		op:       "notifications.cancel_director",
		method:   http.MethodPost,
		path:     notificationsPath + "/" + pathID(invitationID) + "/cancelar-invitacion-director",
		fallback: "Error al cancelar invitación",
	}, nil)
	return err
}

// PendingDirectorInvitation returns the pending director invitation of a
// project, or nil when there is none.
func (c *Client) PendingDirectorInvitation(ctx context.Context, projectID int64) (*models.Invitation, error) {
	var out struct {
		Invitacion *models.Invitation `json:"invitacion"`
	}
	if _, err := c.do(ctx, call{
		op:       "notifications.pending_director",
		method:   http.MethodGet,
		path:     notificationsPath + "/proyecto/" + pathID(projectID) + "/invitacion-pendiente",
		fallback: "Error al obtener invitación pendiente",
	}, &out); err != nil {
		return nil, err
	}
	return out.Invitacion, nil
}
