package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/noah-isme/thesis-portal/internal/models"
)

// StatusChangeEvents returns the catalog of events an administrator may submit.
func (c *Client) StatusChangeEvents(ctx context.Context) ([]models.StatusChangeEvent, error) {
	var out []models.StatusChangeEvent
	_, err := c.do(ctx, call{
		op:       "history.status_events",
		method:   http.MethodGet,
		path:     "/historial/eventos-cambio-estado",
		fallback: "Error al obtener eventos de cambio de estado",
	}, &out)
	return out, err
}

func (c *Client) Events(ctx context.Context) ([]models.StatusChangeEvent, error) {
	var out []models.StatusChangeEvent
	_, err := c.do(ctx, call{op: "history.events", method: http.MethodGet, path: "/historial/eventos", fallback: "Error al obtener eventos"}, &out)
	return out, err
}

func (c *Client) Statuses(ctx context.Context) ([]models.StatusInfo, error) {
	var out []models.StatusInfo
	_, err := c.do(ctx, call{op: "history.statuses", method: http.MethodGet, path: "/historial/estados", fallback: "Error al obtener estados"}, &out)
	return out, err
}

// ProjectHistory returns the recorded events of a project.
func (c *Client) ProjectHistory(ctx context.Context, projectID int64) ([]models.HistoryEntry, error) {
	var out []models.HistoryEntry
	_, err := c.do(ctx, call{
		op:       "history.project",
		method:   http.MethodGet,
		path:     "/historial/proyecto/" + pathID(projectID),
		fallback: "Error al obtener historial",
	}, &out)
	return out, err
}

// ChangeStatus submits a status-change event for a project. The backend
// decides whether the event is legal from the current status.
func (c *Client) ChangeStatus(ctx context.Context, projectID int64, input models.ChangeStatusInput) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{
		op:       "history.change_status",
		method:   http.MethodPost,
		path:     "/historial/proyecto/" + pathID(projectID) + "/cambiar-estado",
		body:     input,
		fallback: "Error al cambiar estado",
	}, &out)
	return out, err
}
