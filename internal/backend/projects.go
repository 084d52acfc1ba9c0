package backend

import (
	"context"
	"net/http"

	"github.com/noah-isme/thesis-portal/internal/models"
)

// ProjectsByDirector lists the projects directed by cedula.
func (c *Client) ProjectsByDirector(ctx context.Context, cedula string) ([]models.Project, error) {
	var out []models.Project
	_, err := c.do(ctx, call{
		op:       "projects.by_director",
		method:   http.MethodGet,
		path:     "/proyectos/director/" + escape(cedula),
		fallback: "Error al obtener proyectos",
	}, &out)
	return out, err
}

// ProjectByStudent returns the student's project. A 404 means the student
// has no project yet and yields (nil, nil).
func (c *Client) ProjectByStudent(ctx context.Context, cedula string) (*models.Project, error) {
	var out models.Project
	status, err := c.do(ctx, call{
		op:       "projects.by_student",
		method:   http.MethodGet,
		path:     "/proyectos/estudiante/" + escape(cedula),
		fallback: "Error al obtener proyecto del estudiante",
	}, &out)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

// CreateProject creates a project owned by the student.
func (c *Client) CreateProject(ctx context.Context, cedulaEstudiante string, input models.CreateProjectInput) (*models.Project, error) {
	var out models.Project
	if _, err := c.do(ctx, call{
		op:       "projects.create",
		method:   http.MethodPost,
		path:     "/proyectos/crear/" + escape(cedulaEstudiante),
		body:     input,
		fallback: "Error al crear proyecto",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Projects lists every project.
func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	_, err := c.do(ctx, call{
		op:       "projects.list",
		method:   http.MethodGet,
		path:     "/proyectos",
		fallback: "Error al obtener todos los proyectos",
	}, &out)
	return out, err
}

// Project fetches one project by id.
func (c *Client) Project(ctx context.Context, id int64) (*models.Project, error) {
	var out models.Project
	if _, err := c.do(ctx, call{
		op:       "projects.get",
		method:   http.MethodGet,
		path:     "/proyectos/" + pathID(id),
		fallback: "Error al obtener proyecto",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectsByAdmin lists the projects visible to the administrator scope.
func (c *Client) ProjectsByAdmin(ctx context.Context, cedula string) ([]models.Project, error) {
	var out []models.Project
	_, err := c.do(ctx, call{
		op:       "projects.by_admin",
		method:   http.MethodGet,
		path:     "/proyectos/admin/" + escape(cedula),
		fallback: "Error al obtener proyectos del administrador",
	}, &out)
	return out, err
}

// AdminInfo returns the program scope of an administrator.
func (c *Client) AdminInfo(ctx context.Context, cedula string) (*models.AdminInfo, error) {
	var out models.AdminInfo
	if _, err := c.do(ctx, call{
		op:       "admin.info",
		method:   http.MethodGet,
		path:     "/proyectos/admin/" + escape(cedula) + "/info",
		fallback: "Error al obtener información del administrador",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
