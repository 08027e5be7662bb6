package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"transporte-admin/api"
	"transporte-admin/session"
)

func runLogin(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("login")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	res, err := e.api.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	if err := e.store.Save(session.Session{
		Token:          res.Token,
		NombreCompleto: res.NombreCompleto,
		Rol:            string(res.Rol),
		IDUsuario:      res.IDUsuario,
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Bienvenido, %s (%s)\n", res.NombreCompleto, res.Rol)
	return nil
}

func runLogout(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("logout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if err := e.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Sesión cerrada")
	return nil
}

func runWhoami(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("whoami")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if !e.sess.LoggedIn() {
		return api.ErrNoToken
	}
	fmt.Fprintf(out, "%s (%s), id %d\n", e.sess.NombreCompleto, e.sess.Rol, e.sess.IDUsuario)
	if claims, err := api.DecodeToken(e.sess.Token); err == nil && claims.ExpiresAt != 0 {
		state := "valid"
		if claims.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(out, "token %s until %s\n", state, unixTime(claims.ExpiresAt))
	}
	return nil
}

// subcommands dispatches "<group> <action> [flags]".
func subcommands(ctx context.Context, group string, args []string, out io.Writer, actions map[string]commandFunc) error {
	if len(args) == 0 {
		return errors.Errorf("usage: transporte-admin %s <%s>", group, actionNames(actions))
	}
	action, ok := actions[args[0]]
	if !ok {
		return errors.Errorf("unknown %s action %q, want one of %s", group, args[0], actionNames(actions))
	}
	return action(ctx, args[1:], out)
}

func runUsuarios(ctx context.Context, args []string, out io.Writer) error {
	return subcommands(ctx, "usuarios", args, out, map[string]commandFunc{
		"list":   usuariosList,
		"create": usuariosSave,
		"update": usuariosSave,
		"delete": usuariosDelete,
	})
}

func usuariosList(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("usuarios list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	us, err := e.api.ListUsuarios(ctx)
	if err != nil {
		return e.sessionCheck(err)
	}
	self := e.currentUserID()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tUSUARIO\tROL")
	for _, u := range us {
		name := u.NombreCompleto
		if u.ID == self {
			name += " (tú)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, name, u.Username, u.Rol)
	}
	return tw.Flush()
}

// usuariosSave creates an account, or updates one when --id is given.
func usuariosSave(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("usuarios save")
	id := fs.Int64("id", 0, "account to update")
	var in api.UsuarioInput
	fs.StringVar(&in.NombreCompleto, "nombre", "", "full name")
	fs.StringVar(&in.Username, "username", "", "username")
	rol := fs.String("rol", string(api.RolChofer), "ADMIN or CHOFER")
	fs.StringVar(&in.Password, "password", "", "password (optional on update)")
	fs.StringVar(&in.RepeatPassword, "repeat-password", "", "password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in.Rol = api.Rol(*rol)
	e, err := common.load()
	if err != nil {
		return err
	}

	if *id == 0 {
		if err := e.api.RegisterUsuario(ctx, in); err != nil {
			return e.sessionCheck(err)
		}
		fmt.Fprintln(out, "Usuario registrado correctamente")
		return nil
	}

	res, err := e.api.UpdateUsuario(ctx, *id, in)
	if err != nil {
		return e.sessionCheck(err)
	}
	if res.NewToken != "" {
		e.sess.Token = res.NewToken
		if claims, err := api.DecodeToken(res.NewToken); err == nil && claims.NombreCompleto != "" {
			e.sess.NombreCompleto = claims.NombreCompleto
		}
		if err := e.store.Save(e.sess); err != nil {
			return err
		}
		fmt.Fprintln(out, res.Message)
		return nil
	}
	fmt.Fprintln(out, "Usuario actualizado correctamente")
	return nil
}

func usuariosDelete(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("usuarios delete")
	id := fs.Int64("id", 0, "account to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if err := e.api.DeleteUsuario(ctx, *id); err != nil {
		return e.sessionCheck(err)
	}
	fmt.Fprintln(out, "Usuario eliminado")
	return nil
}

func runOperarios(ctx context.Context, args []string, out io.Writer) error {
	return subcommands(ctx, "operarios", args, out, map[string]commandFunc{
		"list":   operariosList,
		"create": operariosSave,
		"update": operariosSave,
		"delete": operariosDelete,
	})
}

func operariosList(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("operarios list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	ops, err := e.api.ListOperarios(ctx)
	if err != nil {
		return e.sessionCheck(err)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE")
	for _, o := range ops {
		fmt.Fprintf(tw, "%d\t%s\n", o.ID, o.NombreCompleto)
	}
	return tw.Flush()
}

func operariosSave(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("operarios save")
	id := fs.Int64("id", 0, "operario to update")
	nombre := fs.String("nombre", "", "full name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if *id == 0 {
		err = e.api.CreateOperario(ctx, *nombre)
	} else {
		err = e.api.UpdateOperario(ctx, *id, *nombre)
	}
	if err != nil {
		return e.sessionCheck(err)
	}
	fmt.Fprintln(out, "Operario guardado")
	return nil
}

func operariosDelete(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("operarios delete")
	id := fs.Int64("id", 0, "operario to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if err := e.api.DeleteOperario(ctx, *id); err != nil {
		return e.sessionCheck(err)
	}
	fmt.Fprintln(out, "Operario eliminado")
	return nil
}

func runAdelantos(ctx context.Context, args []string, out io.Writer) error {
	return subcommands(ctx, "adelantos", args, out, map[string]commandFunc{
		"list":   adelantosList(false),
		"mine":   adelantosList(true),
		"create": adelantosSave,
		"update": adelantosSave,
		"delete": adelantosDelete,
	})
}

// adelantosList lists every advance, or with mine only those registered by
// the logged-in driver.
func adelantosList(mine bool) commandFunc {
	return func(ctx context.Context, args []string, out io.Writer) error {
		fs, common := newFlagSet("adelantos list")
		if err := fs.Parse(args); err != nil {
			return err
		}
		e, err := common.load()
		if err != nil {
			return err
		}
		var as []api.Adelanto
		if mine {
			if e.sess.IDUsuario == 0 {
				return api.ErrNoToken
			}
			as, err = e.api.ListAdelantosByChofer(ctx, e.sess.IDUsuario)
		} else {
			as, err = e.api.ListAdelantos(ctx)
		}
		if err != nil {
			return e.sessionCheck(err)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tREGISTRADO POR\tOPERARIO\tCANTIDAD\tMENSAJE\tFECHA\tACTUALIZADO")
		for _, a := range as {
			updated := "-"
			if a.FechaActualizacion != nil {
				updated = *a.FechaActualizacion
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\tS/ %.2f\t%s\t%s\t%s\n",
				a.ID, a.UsuarioNombre, a.OperarioNombre, a.Cantidad, a.Mensaje, a.FechaHora, updated)
		}
		return tw.Flush()
	}
}

func adelantosSave(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("adelantos save")
	id := fs.Int64("id", 0, "advance to update")
	var in api.AdelantoInput
	fs.Int64Var(&in.UsuarioID, "usuario", 0, "registering account (defaults to the session user)")
	fs.Int64Var(&in.OperarioID, "operario", 0, "receiving operario")
	fs.Float64Var(&in.Cantidad, "cantidad", 0, "amount, greater than 0")
	fs.StringVar(&in.Mensaje, "mensaje", "", "note")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if in.UsuarioID == 0 {
		in.UsuarioID = e.sess.IDUsuario
	}
	if *id == 0 {
		err = e.api.CreateAdelanto(ctx, in)
	} else {
		err = e.api.UpdateAdelanto(ctx, *id, in)
	}
	if err != nil {
		return e.sessionCheck(err)
	}
	fmt.Fprintln(out, "Adelanto guardado")
	return nil
}

func adelantosDelete(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("adelantos delete")
	id := fs.Int64("id", 0, "advance to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if err := e.api.DeleteAdelanto(ctx, *id); err != nil {
		if errors.Is(err, api.ErrForbidden) {
			return errors.Wrap(err, "only your own adelantos can be deleted")
		}
		return e.sessionCheck(err)
	}
	fmt.Fprintln(out, "Adelanto eliminado")
	return nil
}

func runDescuentos(ctx context.Context, args []string, out io.Writer) error {
	return subcommands(ctx, "descuentos", args, out, map[string]commandFunc{
		"list":   descuentosList,
		"weeks":  descuentosWeeks,
		"delete": descuentosDelete,
	})
}

func descuentosWeeks(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("descuentos weeks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	ds, err := e.api.ListDescuentos(ctx)
	if err != nil {
		return e.sessionCheck(err)
	}
	for _, w := range api.Weeks(ds) {
		fmt.Fprintln(out, w.Key())
	}
	return nil
}

// descuentosList shows the per-operario totals of one week, the most
// recent one unless --week is given.
func descuentosList(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("descuentos list")
	week := fs.String("week", "", `week as "inicio - fin"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	ds, err := e.api.ListDescuentos(ctx)
	if err != nil {
		return e.sessionCheck(err)
	}

	var w api.Week
	if *week != "" {
		if w, err = api.ParseWeek(*week); err != nil {
			return err
		}
	} else {
		weeks := api.Weeks(ds)
		if len(weeks) == 0 {
			fmt.Fprintln(out, "No hay descuentos registrados")
			return nil
		}
		w = weeks[0]
	}

	fmt.Fprintf(out, "Semana (Sábado - Viernes): %s\n", w.Key())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERARIO\tTOTAL A DESCONTAR")
	for _, t := range api.TotalsForWeek(ds, w) {
		fmt.Fprintf(tw, "%s\tS/ %.2f\n", t.NombreCompleto, t.TotalDescuento)
	}
	return tw.Flush()
}

func descuentosDelete(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("descuentos delete")
	week := fs.String("week", "", `week as "inicio - fin"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	w, err := api.ParseWeek(*week)
	if err != nil {
		return err
	}
	e, err := common.load()
	if err != nil {
		return err
	}
	if err := e.api.DeleteDescuentosSemana(ctx, w); err != nil {
		return e.sessionCheck(err)
	}
	fmt.Fprintf(out, "Descuentos de la semana %s eliminados\n", w.Key())
	return nil
}

// currentUserID reads the account id from the session token, falling back
// to the id stored at login.
func (e *env) currentUserID() int64 {
	if claims, err := api.DecodeToken(e.sess.Token); err == nil && claims.UserID != 0 {
		return claims.UserID
	}
	return e.sess.IDUsuario
}

func actionNames(actions map[string]commandFunc) string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func unixTime(sec int64) string {
	return time.Unix(sec, 0).Format("2006-01-02 15:04:05")
}
