package backend

import (
	"context"
	"net/http"

	"github.com/noah-isme/thesis-portal/internal/models"
)

func (c *Client) Modalities(ctx context.Context) ([]models.Modality, error) {
	var out []models.Modality
	_, err := c.do(ctx, call{op: "catalogs.modalities", method: http.MethodGet, path: "/modalidades", fallback: "Error al obtener modalidades"}, &out)
	return out, err
}

func (c *Client) ResearchLines(ctx context.Context) ([]models.ResearchLine, error) {
	var out []models.ResearchLine
	_, err := c.do(ctx, call{op: "catalogs.research_lines", method: http.MethodGet, path: "/lineas-investigacion", fallback: "Error al obtener líneas de investigación"}, &out)
	return out, err
}

func (c *Client) Areas(ctx context.Context) ([]models.ResearchArea, error) {
	var out []models.ResearchArea
	_, err := c.do(ctx, call{op: "catalogs.areas", method: http.MethodGet, path: "/catalogos/areas", fallback: "Error al obtener áreas"}, &out)
	return out, err
}

func (c *Client) CatalogLines(ctx context.Context) ([]models.ResearchLine, error) {
	var out []models.ResearchLine
	_, err := c.do(ctx, call{op: "catalogs.lines", method: http.MethodGet, path: "/catalogos/lineas", fallback: "Error al obtener líneas"}, &out)
	return out, err
}

// LinesByArea lists the research lines of one area.
func (c *Client) LinesByArea(ctx context.Context, areaID int64) ([]models.ResearchLine, error) {
	var out []models.ResearchLine
	_, err := c.do(ctx, call{
		op:       "catalogs.lines_by_area",
		method:   http.MethodGet,
		path:     "/catalogos/lineas/area/" + pathID(areaID),
		fallback: "Error al obtener líneas por área",
	}, &out)
	return out, err
}
