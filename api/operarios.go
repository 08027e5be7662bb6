package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Operario is a worker who can receive cash advances. Operarios are not
// system accounts.
type Operario struct {
	ID             int64  `json:"id"`
	NombreCompleto string `json:"nombreCompleto"`
}

type operarioInput struct {
	NombreCompleto string `json:"nombreCompleto"`
}

func (c *Client) ListOperarios(ctx context.Context) ([]Operario, error) {
	return listOf[Operario](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/operarios",
		fallback: "could not list operarios",
	})
}

func (c *Client) CreateOperario(ctx context.Context, nombreCompleto string) error {
	return c.saveOperario(ctx, http.MethodPost, "/api/operarios", nombreCompleto)
}

func (c *Client) UpdateOperario(ctx context.Context, id int64, nombreCompleto string) error {
	return c.saveOperario(ctx, http.MethodPatch, "/api/operarios/"+strconv.FormatInt(id, 10), nombreCompleto)
}

func (c *Client) saveOperario(ctx context.Context, method, path, nombreCompleto string) error {
	nombreCompleto = strings.TrimSpace(nombreCompleto)
	if nombreCompleto == "" {
		return invalid("nombreCompleto", "nombreCompleto is required")
	}
	_, err := c.do(ctx, request{
		method:   method,
		path:     path,
		body:     operarioInput{NombreCompleto: nombreCompleto},
		fallback: "could not save operario",
	})
	return err
}

func (c *Client) DeleteOperario(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/api/operarios/" + strconv.FormatInt(id, 10),
		fallback: "could not delete operario",
	})
	return err
}
