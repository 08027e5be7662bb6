package api

import (
	"context"
	"net/http"
	"strconv"
)

// Usuario is a system account, either an administrator or a driver.
type Usuario struct {
	ID             int64  `json:"id"`
	NombreCompleto string `json:"nombreCompleto"`
	Username       string `json:"username"`
	Rol            Rol    `json:"rol"`
}

// UsuarioInput is the payload for creating or updating an account. An
// empty Password on update keeps the current one.
type UsuarioInput struct {
	NombreCompleto string `json:"nombreCompleto" validate:"required"`
	Username       string `json:"username" validate:"required"`
	Rol            Rol    `json:"rol" validate:"required,oneof=ADMIN CHOFER"`
	Password       string `json:"password,omitempty"`
	RepeatPassword string `json:"-" validate:"eqfield=Password"`
}

// UpdateResult is returned by UpdateUsuario. Editing one's own account
// makes the API issue a renewed token.
type UpdateResult struct {
	NewToken string `json:"newToken"`
	Message  string `json:"message"`
}

// ListUsuarios returns the administrator and driver accounts. Both 401 and
// 403 mean the session is no longer valid.
func (c *Client) ListUsuarios(ctx context.Context) ([]Usuario, error) {
	all, err := listOf[Usuario](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/usuarios",
		fallback: "could not list usuarios",
		statusErrs: map[int]error{
			http.StatusUnauthorized: ErrSessionExpired,
			http.StatusForbidden:    ErrSessionExpired,
		},
	})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, u := range all {
		if u.Rol == RolChofer || u.Rol == RolAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}

// RegisterUsuario creates an account; a password is mandatory.
func (c *Client) RegisterUsuario(ctx context.Context, in UsuarioInput) error {
	if in.Password == "" || in.RepeatPassword == "" {
		return invalid("password", "password and its repetition are required")
	}
	if err := c.check(in); err != nil {
		return err
	}
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/api/auth/register",
		body:     in,
		fallback: "could not save usuario",
	})
	return err
}

// UpdateUsuario patches an account. When the API answers with a renewed
// token the client switches to it.
func (c *Client) UpdateUsuario(ctx context.Context, id int64, in UsuarioInput) (UpdateResult, error) {
	if err := c.check(in); err != nil {
		return UpdateResult{}, err
	}
	var out UpdateResult
	err := c.doJSON(ctx, request{
		method:   http.MethodPatch,
		path:     "/api/usuarios/" + strconv.FormatInt(id, 10),
		body:     in,
		fallback: "could not save usuario",
	}, &out)
	if err != nil {
		return UpdateResult{}, err
	}
	if out.NewToken != "" {
		c.SetToken(out.NewToken)
	}
	return out, nil
}

// DeleteUsuario removes an account.
func (c *Client) DeleteUsuario(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/api/usuarios/" + strconv.FormatInt(id, 10),
		fallback: "could not delete usuario",
	})
	return err
}
