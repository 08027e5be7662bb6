package tracking

// DefaultPalette is the marker fill palette, in assignment order.
var DefaultPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#e6beff",
	"#9a6324", "#fffac8", "#800000", "#aaffc3", "#808000", "#ffd8b1",
	"#000075", "#808080", "#ffffff", "#000000",
}

// ColorAssigner hands out palette colors to vehicles in first-seen order.
// Once the palette is exhausted it wraps around, so vehicles beyond the
// palette length share colors with earlier ones.
type ColorAssigner struct {
	palette []string
	next    int
	byID    map[VehicleID]string
}

// NewColorAssigner returns an assigner over palette, or over
// DefaultPalette when palette is empty.
func NewColorAssigner(palette []string) *ColorAssigner {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &ColorAssigner{
		palette: palette,
		byID:    make(map[VehicleID]string),
	}
}

// ColorFor returns the color of id, assigning the next palette entry the
// first time id is seen.
func (c *ColorAssigner) ColorFor(id VehicleID) string {
	if color, ok := c.byID[id]; ok {
		return color
	}
	color := c.palette[c.next%len(c.palette)]
	c.next++
	c.byID[id] = color
	return color
}
