package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/noah-isme/thesis-portal/internal/models"
)

const meetingsPath = "/api/reuniones"

// meetingEnvelope is how the meetings API wraps every answer.
type meetingEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// doMeeting runs a meetings call and turns success=false into a RequestError.
func (c *Client) doMeeting(ctx context.Context, cl call, out interface{}) error {
	var env meetingEnvelope
	status, err := c.do(ctx, cl, &env)
	if err != nil {
		return err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fallbackFor(cl)
		}
		return &RequestError{Op: cl.op, Status: status, Message: msg}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &RequestError{Op: cl.op, Status: status, Message: fallbackFor(cl), Err: err}
	}
	return nil
}

// RequestMeeting asks the other party of a project for a meeting.
func (c *Client) RequestMeeting(ctx context.Context, input models.MeetingRequestInput) (*models.Meeting, error) {
	var out models.Meeting
	if err := c.doMeeting(ctx, call{
		op:       "meetings.request",
		method:   http.MethodPost,
		path:     meetingsPath + "/solicitar",
		body:     input,
		fallback: "No se pudo enviar la solicitud",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MeetingsByDirector lists the meetings of a director.
func (c *Client) MeetingsByDirector(ctx context.Context, cedula string) ([]models.Meeting, error) {
	var out []models.Meeting
	err := c.doMeeting(ctx, call{
		op:       "meetings.by_director",
		method:   http.MethodGet,
		path:     meetingsPath + "/director/" + escape(cedula),
		fallback: "Error al obtener reuniones",
	}, &out)
	return out, err
}

// MeetingsByStudent lists the meetings of a student.
func (c *Client) MeetingsByStudent(ctx context.Context, cedula string) ([]models.Meeting, error) {
	var out []models.Meeting
	err := c.doMeeting(ctx, call{
		op:       "meetings.by_student",
		method:   http.MethodGet,
		path:     meetingsPath + "/estudiante/" + escape(cedula),
		fallback: "Error al obtener reuniones",
	}, &out)
	return out, err
}

// RegisterMeetingDetails records what happened in a past meeting.
func (c *Client) RegisterMeetingDetails(ctx context.Context, input models.MeetingDetailsInput) error {
	return c.doMeeting(ctx, call{
		op:       "meetings.register_details",
		method:   http.MethodPost,
		path:     meetingsPath + "/registrar-detalles",
		body:     input,
		fallback: "No se pudieron registrar los detalles",
	}, nil)
}

// MarkAttendance records whether the student attended a meeting.
func (c *Client) MarkAttendance(ctx context.Context, meetingID int64, input models.AttendanceInput) error {
	return c.doMeeting(ctx, call{
		op:       "meetings.mark_attendance",
		method:   http.MethodPatch,
		path:     meetingsPath + "/" + pathID(meetingID) + "/asistencia",
		body:     input,
		fallback: "No se pudo registrar la asistencia",
	}, nil)
}
