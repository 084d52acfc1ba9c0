package backend

import (
	"context"
	"net/http"

	"github.com/noah-isme/thesis-portal/internal/models"
)

type loginBody struct {
	Cedula   string `json:"cedula"`
	Password string `json:"password"`
}

// Login authenticates against the backend and returns the identity.
func (c *Client) Login(ctx context.Context, cedula, password string) (*models.Identity, error) {
	var out models.Identity
	if _, err := c.do(ctx, call{
		op:       "auth.login",
		method:   http.MethodPost,
		path:     "/api/auth/login",
		body:     loginBody{Cedula: cedula, Password: password},
		fallback: "Credenciales inválidas",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
