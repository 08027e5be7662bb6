package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsuariosKeepsKnownRoles(t *testing.T) {
	c, _ := fakeAPI(t, http.StatusOK, `{"content":[
		{"id":1,"nombreCompleto":"Ana","username":"ana","rol":"ADMIN"},
		{"id":2,"nombreCompleto":"Beto","username":"beto","rol":"CHOFER"},
		{"id":3,"nombreCompleto":"Sys","username":"sys","rol":"SISTEMA"}
	]}`)
	got, err := c.ListUsuarios(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ana", got[0].Username)
	assert.Equal(t, RolChofer, got[1].Rol)
}

func TestRegisterUsuarioValidation(t *testing.T) {
	c, calls := fakeAPI(t, http.StatusCreated, ``)
	ctx := context.Background()

	err := c.RegisterUsuario(ctx, UsuarioInput{NombreCompleto: "Ana", Username: "ana", Rol: RolAdmin})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = c.RegisterUsuario(ctx, UsuarioInput{
		NombreCompleto: "Ana", Username: "ana", Rol: RolAdmin,
		Password: "a", RepeatPassword: "b",
	})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "RepeatPassword")

	err = c.RegisterUsuario(ctx, UsuarioInput{
		NombreCompleto: "Ana", Username: "ana", Rol: "JEFE",
		Password: "a", RepeatPassword: "a",
	})
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "rol")
	assert.Empty(t, *calls)

	err = c.RegisterUsuario(ctx, UsuarioInput{
		NombreCompleto: "Ana", Username: "ana", Rol: RolChofer,
		Password: "a", RepeatPassword: "a",
	})
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/auth/register", (*calls)[0].path)
	assert.Equal(t, "a", (*calls)[0].body["password"])
	assert.NotContains(t, (*calls)[0].body, "RepeatPassword")
}

func TestUpdateUsuarioAdoptsRenewedToken(t *testing.T) {
	c, calls := fakeAPI(t, http.StatusOK, `{"newToken":"fresh","message":"Usuario actualizado"}`)
	res, err := c.UpdateUsuario(context.Background(), 5, UsuarioInput{
		NombreCompleto: "Ana María", Username: "ana", Rol: RolAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Usuario actualizado", res.Message)
	assert.Equal(t, "fresh", c.Token())

	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPatch, (*calls)[0].method)
	assert.Equal(t, "/api/usuarios/5", (*calls)[0].path)
	assert.NotContains(t, (*calls)[0].body, "password")
}

func TestUpdateUsuarioWithoutRenewal(t *testing.T) {
	c, _ := fakeAPI(t, http.StatusOK, ``)
	_, err := c.UpdateUsuario(context.Background(), 5, UsuarioInput{
		NombreCompleto: "Beto", Username: "beto", Rol: RolChofer,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", c.Token())
}

func TestOperarioBlankNameRejected(t *testing.T) {
	c, calls := fakeAPI(t, http.StatusOK, ``)
	err := c.CreateOperario(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, c.UpdateOperario(context.Background(), 3, " Rosa "))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/operarios/3", (*calls)[0].path)
	assert.Equal(t, "Rosa", (*calls)[0].body["nombreCompleto"])
}

func TestAdelantoInputValidation(t *testing.T) {
	c, calls := fakeAPI(t, http.StatusOK, ``)
	err := c.CreateAdelanto(context.Background(), AdelantoInput{UsuarioID: 1, OperarioID: 2, Cantidad: 0})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "cantidad")

	err = c.CreateAdelanto(context.Background(), AdelantoInput{OperarioID: 2, Cantidad: 5})
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "usuarioId")
	assert.Empty(t, *calls)
}

func TestListAdelantosByChofer(t *testing.T) {
	c, calls := fakeAPI(t, http.StatusOK, `[{"id":1,"usuarioNombre":"Beto","operarioNombre":"Rosa","cantidad":50.5,"mensaje":"pasaje","fechaHora":"2024-06-03T10:00:00","fechaActualizacion":null}]`)
	got, err := c.ListAdelantosByChofer(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 50.5, got[0].Cantidad)
	assert.Nil(t, got[0].FechaActualizacion)
	assert.Equal(t, "/api/adelantos/choferes/8", (*calls)[0].path)
}
