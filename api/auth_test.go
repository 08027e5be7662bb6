package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresToken(t *testing.T) {
	c, calls := fakeAPI(t, http.StatusOK, `{"token":"abc","nombreCompleto":"Ana","rol":"ADMIN","idUsuario":7}`)
	c.SetToken("")

	got, err := c.Login(context.Background(), "ana", "secreta")
	require.NoError(t, err)
	assert.Equal(t, LoginResponse{Token: "abc", NombreCompleto: "Ana", Rol: RolAdmin, IDUsuario: 7}, got)
	assert.Equal(t, "abc", c.Token())

	require.Len(t, *calls, 1)
	assert.Empty(t, (*calls)[0].auth)
	assert.Equal(t, "ana", (*calls)[0].body["username"])
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unknown user", http.StatusNotFound, ``, ErrUserNotFound},
		{"wrong password", http.StatusUnauthorized, `{}`, ErrBadCredentials},
		{"no token in answer", http.StatusOK, `{"nombreCompleto":"Ana"}`, ErrUnexpectedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := fakeAPI(t, tt.status, tt.body)
			_, err := c.Login(context.Background(), "ana", "x")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, "tok", c.Token())
		})
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	c, calls := fakeAPI(t, http.StatusOK, `{}`)
	_, err := c.Login(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, *calls)
}

func jwt(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestDecodeToken(t *testing.T) {
	claims, err := DecodeToken(jwt(`{"sub":"ana","userId":7,"nombreCompleto":"Ana Pérez","rol":"ADMIN","iat":1700000000,"exp":1700003600}`))
	require.NoError(t, err)
	assert.Equal(t, Claims{
		Subject:        "ana",
		UserID:         7,
		NombreCompleto: "Ana Pérez",
		Rol:            RolAdmin,
		IssuedAt:       1700000000,
		ExpiresAt:      1700003600,
	}, claims)

	assert.False(t, claims.Expired(time.Unix(1700000001, 0)))
	assert.True(t, claims.Expired(time.Unix(1700003600, 0)))
}

func TestDecodeTokenStringUserID(t *testing.T) {
	claims, err := DecodeToken(jwt(`{"sub":"beto","userId":"12"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), claims.UserID)
	assert.False(t, claims.Expired(time.Now()))
}

func TestDecodeTokenMalformed(t *testing.T) {
	for _, tok := range []string{"", "a.b", "a.!!!.c", jwt(`not json`)} {
		_, err := DecodeToken(tok)
		assert.Error(t, err, tok)
	}
}
