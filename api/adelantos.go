package api

import (
	"context"
	"net/http"
	"strconv"
)

// Adelanto is a cash advance handed to an operario by a usuario.
type Adelanto struct {
	ID                 int64   `json:"id"`
	UsuarioNombre      string  `json:"usuarioNombre"`
	OperarioNombre     string  `json:"operarioNombre"`
	Cantidad           float64 `json:"cantidad"`
	Mensaje            string  `json:"mensaje"`
	FechaHora          string  `json:"fechaHora"`
	FechaActualizacion *string `json:"fechaActualizacion"`
}

// AdelantoInput is the payload for creating or updating an advance.
type AdelantoInput struct {
	UsuarioID  int64   `json:"usuarioId" validate:"required,gt=0"`
	OperarioID int64   `json:"operarioId" validate:"required,gt=0"`
	Cantidad   float64 `json:"cantidad" validate:"gt=0"`
	Mensaje    string  `json:"mensaje"`
}

// ListAdelantos returns every advance visible to the session.
func (c *Client) ListAdelantos(ctx context.Context) ([]Adelanto, error) {
	return listOf[Adelanto](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/adelantos",
		fallback: "could not list adelantos",
	})
}

// ListAdelantosByChofer returns the advances registered by one driver.
func (c *Client) ListAdelantosByChofer(ctx context.Context, usuarioID int64) ([]Adelanto, error) {
	return listOf[Adelanto](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/adelantos/choferes/" + strconv.FormatInt(usuarioID, 10),
		fallback: "could not list adelantos",
	})
}

func (c *Client) CreateAdelanto(ctx context.Context, in AdelantoInput) error {
	return c.saveAdelanto(ctx, http.MethodPost, "/api/adelantos", in)
}

func (c *Client) UpdateAdelanto(ctx context.Context, id int64, in AdelantoInput) error {
	return c.saveAdelanto(ctx, http.MethodPatch, "/api/adelantos/"+strconv.FormatInt(id, 10), in)
}

func (c *Client) saveAdelanto(ctx context.Context, method, path string, in AdelantoInput) error {
	if err := c.check(in); err != nil {
		return err
	}
	_, err := c.do(ctx, request{
		method:   method,
		path:     path,
		body:     in,
		fallback: "could not save adelanto",
	})
	return err
}

// DeleteAdelanto removes an advance. Drivers may only delete their own;
// anything else fails with ErrForbidden.
func (c *Client) DeleteAdelanto(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/api/adelantos/" + strconv.FormatInt(id, 10),
		fallback: "could not delete adelanto",
	})
	return err
}
