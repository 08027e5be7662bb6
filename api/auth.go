package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Rol is the role of a system account.
type Rol string

const (
	RolAdmin  Rol = "ADMIN"
	RolChofer Rol = "CHOFER"
)

// LoginResponse is the session granted by a successful login.
type LoginResponse struct {
	Token          string `json:"token"`
	NombreCompleto string `json:"nombreCompleto"`
	Rol            Rol    `json:"rol"`
	IDUsuario      int64  `json:"idUsuario"`
}

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges a username and password for a session token. On success
// the client uses the new token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	in := credentials{Username: username, Password: password}
	if err := c.check(in); err != nil {
		return LoginResponse{}, err
	}

	var out LoginResponse
	err := c.doJSON(ctx, request{
		method:   http.MethodPost,
		path:     "/api/auth/login",
		body:     in,
		public:   true,
		fallback: "login failed",
		statusErrs: map[int]error{
			http.StatusNotFound:     ErrUserNotFound,
			http.StatusUnauthorized: ErrBadCredentials,
		},
	}, &out)
	if err != nil {
		return LoginResponse{}, err
	}
	if out.Token == "" {
		return LoginResponse{}, errors.Wrap(ErrUnexpectedShape, "login response without token")
	}
	c.SetToken(out.Token)
	return out, nil
}

// Claims are the fields of the session token payload the dashboard uses.
type Claims struct {
	Subject        string `mapstructure:"sub"`
	UserID         int64  `mapstructure:"userId"`
	NombreCompleto string `mapstructure:"nombreCompleto"`
	Rol            Rol    `mapstructure:"rol"`
	IssuedAt       int64  `mapstructure:"iat"`
	ExpiresAt      int64  `mapstructure:"exp"`
}

// Expired reports whether the token carried an expiry that is past.
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != 0 && now.Unix() >= c.ExpiresAt
}

// DecodeToken reads the payload of a JWT without verifying its signature;
// the API is the authority on validity.
func DecodeToken(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, errors.New("token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, errors.Wrap(err, "decode token payload")
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Claims{}, errors.Wrap(err, "parse token payload")
	}

	var claims Claims
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &claims,
	})
	if err != nil {
		return Claims{}, errors.Wrap(err, "token decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return Claims{}, errors.Wrap(err, "decode token claims")
	}
	return claims, nil
}
