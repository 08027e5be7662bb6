package api

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	weekSep     = " - "
	dayLayout   = "2006-01-02"
	rangeLayout = "2006-01-02T15:04:05.000Z"
)

// payrollZone is the fixed offset in which payroll weeks start and end.
var payrollZone = time.FixedZone("UTC-05:00", -5*60*60)

// DescuentoSemanal is the amount withheld from one operario in one week.
type DescuentoSemanal struct {
	InicioSemana   string  `json:"inicioSemana"`
	FinSemana      string  `json:"finSemana"`
	TotalDescuento float64 `json:"totalDescuento"`
}

// Week returns the payroll week this entry belongs to.
func (s DescuentoSemanal) Week() Week {
	return Week{Inicio: s.InicioSemana, Fin: s.FinSemana}
}

// Descuento aggregates the weekly deductions of one operario.
type Descuento struct {
	OperarioID     int64              `json:"operarioId"`
	NombreCompleto string             `json:"nombreCompleto"`
	Semanas        []DescuentoSemanal `json:"semanas"`
}

// Week is a payroll week, Saturday through Friday, as calendar dates.
type Week struct {
	Inicio string
	Fin    string
}

// Key renders the week as "inicio - fin".
func (w Week) Key() string {
	return w.Inicio + weekSep + w.Fin
}

// ParseWeek is the inverse of Week.Key.
func ParseWeek(key string) (Week, error) {
	inicio, fin, ok := strings.Cut(strings.TrimSpace(key), weekSep)
	if !ok {
		return Week{}, errors.Errorf("week %q is not in the form %q", key, "inicio"+weekSep+"fin")
	}
	w := Week{Inicio: strings.TrimSpace(inicio), Fin: strings.TrimSpace(fin)}
	if _, err := time.Parse(dayLayout, w.Inicio); err != nil {
		return Week{}, errors.Wrapf(err, "week start %q", w.Inicio)
	}
	if _, err := time.Parse(dayLayout, w.Fin); err != nil {
		return Week{}, errors.Wrapf(err, "week end %q", w.Fin)
	}
	return w, nil
}

// Range returns the first and last second of the week in the payroll
// zone, rendered in UTC with millisecond precision.
func (w Week) Range() (fechaInicio, fechaFin string, err error) {
	start, err := time.ParseInLocation(dayLayout, w.Inicio, payrollZone)
	if err != nil {
		return "", "", errors.Wrapf(err, "week start %q", w.Inicio)
	}
	end, err := time.ParseInLocation(dayLayout, w.Fin, payrollZone)
	if err != nil {
		return "", "", errors.Wrapf(err, "week end %q", w.Fin)
	}
	end = end.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start.UTC().Format(rangeLayout), end.UTC().Format(rangeLayout), nil
}

// Weeks returns the distinct weeks present in ds, most recent first.
func Weeks(ds []Descuento) []Week {
	seen := make(map[string]Week)
	for _, d := range ds {
		for _, s := range d.Semanas {
			w := s.Week()
			seen[w.Key()] = w
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := make([]Week, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

// OperarioTotal is one row of the per-week deductions table.
type OperarioTotal struct {
	OperarioID     int64   `json:"operarioId"`
	NombreCompleto string  `json:"nombreCompleto"`
	TotalDescuento float64 `json:"totalDescuento"`
}

// TotalsForWeek lists every operario with their deduction for w, zero when
// they have none that week.
func TotalsForWeek(ds []Descuento, w Week) []OperarioTotal {
	key := w.Key()
	out := make([]OperarioTotal, 0, len(ds))
	for _, d := range ds {
		row := OperarioTotal{OperarioID: d.OperarioID, NombreCompleto: d.NombreCompleto}
		for _, s := range d.Semanas {
			if s.Week().Key() == key {
				row.TotalDescuento = s.TotalDescuento
				break
			}
		}
		out = append(out, row)
	}
	return out
}

func (c *Client) ListDescuentos(ctx context.Context) ([]Descuento, error) {
	return listOf[Descuento](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/adelantos/descuentos",
		fallback: "could not list descuentos",
	})
}

type weekRange struct {
	FechaInicio string `json:"fechaInicio"`
	FechaFin    string `json:"fechaFin"`
}

// DeleteDescuentosSemana removes every deduction recorded in w.
func (c *Client) DeleteDescuentosSemana(ctx context.Context, w Week) error {
	inicio, fin, err := w.Range()
	if err != nil {
		return err
	}
	_, err = c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/api/adelantos/descuentos",
		body:     weekRange{FechaInicio: inicio, FechaFin: fin},
		fallback: "could not delete descuentos",
	})
	return err
}
