package backend

import (
	"context"
	"net/http"

	"github.com/noah-isme/thesis-portal/internal/models"
)

func (c *Client) Professors(ctx context.Context) ([]models.Professor, error) {
	var out []models.Professor
	_, err := c.do(ctx, call{op: "users.professors", method: http.MethodGet, path: "/api/usuarios/profesores", fallback: "Error al obtener profesores"}, &out)
	return out, err
}

func (c *Client) Professor(ctx context.Context, cedula string) (*models.Professor, error) {
	var out models.Professor
	if _, err := c.do(ctx, call{
		op:       "users.professor",
		method:   http.MethodGet,
		path:     "/api/usuarios/profesores/" + escape(cedula),
		fallback: "Error al obtener profesor",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Students(ctx context.Context) ([]models.StudentSummary, error) {
	var out []models.StudentSummary
	_, err := c.do(ctx, call{op: "users.students", method: http.MethodGet, path: "/api/usuarios/estudiantes", fallback: "Error al obtener estudiantes"}, &out)
	return out, err
}
