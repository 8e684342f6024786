// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image/color"
	"math"
	"strconv"
	"strings"

	"cogentcore.org/core/colors"
	"cogentcore.org/core/colors/cam/hsl"
	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-gg/palette/brewer"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/infer"
)

// Grey is the color of special and unknown values.
var Grey = color.NRGBA{100, 100, 100, 255}

// categoricalScheme colors columns with at most 20 distinct values.
var categoricalScheme = []string{
	"#1f77b4", "#ff7f0e", "#d62728", "#9467bd", "#8c564b",
	"#e377c2", "#7f7f7f", "#bcbd22", "#17becf", "#1f77b4",
	"#aec7e8", "#ffbb78", "#ff9896", "#c5b0d5", "#c49c94",
	"#f7b6d2", "#c7c7c7", "#dbdb8d", "#9edae5", "#2ca02c",
}

// A Colorer assigns colors to column values. It memoizes the value to
// color mapping of each column until the column's definition changes
// or Invalidate is called.
type Colorer struct {
	def  colormap
	memo map[colorKey]*colorEntry
}

// colorKey identifies the parts of a column definition that affect
// its colors.
type colorKey struct {
	name, colormap string
	typ            datapoint.ParamType
	distinct       int
	fmin, fmax     *float64
}

type colorEntry struct {
	// Categorical columns.
	byValue map[string]color.NRGBA

	// Numeric columns.
	scale Scale
	cmap  colormap
}

// NewColorer returns a Colorer whose default colormap for numeric
// columns is the named one. An empty name selects viridis.
func NewColorer(defaultColormap string) (*Colorer, error) {
	cm, err := parseColormap(defaultColormap)
	if err != nil {
		return nil, fmt.Errorf("(global default color map) %w", err)
	}
	return &Colorer{def: cm, memo: map[colorKey]*colorEntry{}}, nil
}

// Invalidate drops every memoized mapping.
func (c *Colorer) Invalidate() {
	c.memo = map[colorKey]*colorEntry{}
}

func keyOf(pd *infer.ParamDef) colorKey {
	return colorKey{
		name:     pd.Name,
		colormap: pd.Colormap,
		typ:      pd.Type,
		distinct: len(pd.DistinctValues),
		fmin:     pd.ForceValueMin,
		fmax:     pd.ForceValueMax,
	}
}

func (c *Colorer) entry(pd *infer.ParamDef) (*colorEntry, error) {
	k := keyOf(pd)
	if e, ok := c.memo[k]; ok {
		return e, nil
	}
	e := &colorEntry{}
	if pd.Type == datapoint.Categorical {
		e.byValue = categoricalColors(pd)
	} else {
		s, err := NewWithoutOutliers(pd)
		if err != nil {
			return nil, err
		}
		s.SetRange(0, 1)
		e.scale = s
		e.cmap = c.def
		if pd.Colormap != "" {
			e.cmap, err = parseColormap(pd.Colormap)
			if err != nil {
				return nil, fmt.Errorf("for column %s: %w", pd.Name, err)
			}
		}
	}
	c.memo[k] = e
	return e, nil
}

// Color returns the color of value v in column pd with opacity alpha.
func (c *Colorer) Color(pd *infer.ParamDef, v any, alpha float64) (color.NRGBA, error) {
	var col color.NRGBA
	if pd.Type != datapoint.Categorical && datapoint.IsSpecial(v) {
		col = Grey
	} else {
		e, err := c.entry(pd)
		if err != nil {
			return color.NRGBA{}, err
		}
		if e.byValue != nil || pd.Type == datapoint.Categorical {
			var ok bool
			if col, ok = e.byValue[datapoint.Format(v)]; !ok {
				col = Grey
			}
		} else {
			x := e.scale.Map(v)
			if math.IsNaN(x) {
				col = Grey
			} else {
				col = toNRGBA(e.cmap(math.Max(0, math.Min(1, x))))
			}
		}
	}
	col.A = uint8(math.Round(255 * math.Max(0, math.Min(1, alpha))))
	return col, nil
}

func categoricalColors(pd *infer.ParamDef) map[string]color.NRGBA {
	out := make(map[string]color.NRGBA, len(pd.DistinctValues))
	for k, css := range pd.Colors {
		if c, err := ParseCSSColor(css); err == nil {
			out[k] = c
		}
	}
	for i, v := range pd.DistinctValues {
		k := datapoint.Format(v)
		if _, ok := out[k]; ok {
			continue
		}
		if len(pd.DistinctValues) <= len(categoricalScheme) {
			out[k], _ = ParseCSSColor(categoricalScheme[i])
			continue
		}
		out[k] = hashColor(v)
	}
	return out
}

// hashColor derives a stable color from a value.
func hashColor(v any) color.NRGBA {
	b, _ := json.Marshal(v)
	var h int32
	for _, r := range string(b) {
		h = h<<5 - h + int32(r)
	}
	f := fnv.New64a()
	f.Write(b)
	u := float64(f.Sum64()>>11) / (1 << 53)

	c := palette.Viridis.Map(u)
	switch h % 3 {
	case 1:
		c = hsl.Darken(c, 20)
	case 2:
		c = hsl.Desaturate(c, 20)
	}
	return toNRGBA(c)
}

// colormap maps [0, 1] to a color.
type colormap func(x float64) color.Color

// parseColormap resolves a colormap name. Names follow the d3
// convention: "interpolate<Name>" is a continuous map, "scheme<Name>"
// a discrete one. <Name> is viridis or a ColorBrewer palette.
func parseColormap(name string) (colormap, error) {
	if name == "" {
		return palette.Viridis.Map, nil
	}
	discrete := false
	base := name
	if rest, ok := strings.CutPrefix(name, "interpolate"); ok {
		base = rest
	} else if rest, ok := strings.CutPrefix(name, "scheme"); ok {
		base, discrete = rest, true
	}
	if strings.EqualFold(base, "viridis") && !discrete {
		return palette.Viridis.Map, nil
	}
	pal := brewerColors(base)
	if pal == nil {
		return nil, fmt.Errorf("%w %s", ErrInvalidColormap, name)
	}
	if discrete {
		return func(x float64) color.Color {
			i := int(math.Floor(x * float64(len(pal))))
			return pal[max(0, min(len(pal)-1, i))]
		}, nil
	}
	grad := palette.RGBGradient{Colors: make([]color.RGBA, len(pal))}
	for i, c := range pal {
		grad.Colors[i] = color.RGBAModel.Convert(c).(color.RGBA)
	}
	return grad.Map, nil
}

// brewerColors returns the largest variant of the named ColorBrewer
// palette, or nil.
func brewerColors(name string) []color.Color {
	variants := brewer.ByName[name]
	n := 0
	for k := range variants {
		n = max(n, k)
	}
	return variants[n]
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// ParseCSSColor parses a CSS color: a hex value, a color name, or an
// rgb(), rgba(), hsl() or hsla() value.
func ParseCSSColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	open := strings.IndexByte(s, '(')
	if open < 0 {
		c, err := colors.FromString(s, nil)
		if err != nil || s == "" || s == "none" || s == "off" {
			return color.NRGBA{}, fmt.Errorf("bad color %q", s)
		}
		return toNRGBA(c), nil
	}

	fn, args, err := cssArgs(s, open)
	if err != nil {
		return color.NRGBA{}, err
	}
	alpha := uint8(255)
	if len(args) == 4 {
		alpha = uint8(math.Round(255 * math.Max(0, math.Min(1, args[3]))))
	}
	var c color.RGBA
	switch fn {
	case "rgb", "rgba":
		c, err = colors.FromString(fmt.Sprintf("rgb(%d,%d,%d)", to8(args[0]), to8(args[1]), to8(args[2])), nil)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("bad color %q: %w", s, err)
		}
	case "hsl", "hsla":
		c = hsl.New(float32(args[0]), float32(args[1]/100), float32(args[2]/100)).AsRGBA()
	default:
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	return color.NRGBA{c.R, c.G, c.B, alpha}, nil
}

// cssArgs splits a functional color notation into its name and three
// or four numeric arguments. Percent signs are dropped.
func cssArgs(s string, open int) (string, []float64, error) {
	bad := fmt.Errorf("bad color %q", s)
	if !strings.HasSuffix(s, ")") {
		return "", nil, bad
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return "", nil, bad
	}
	args := make([]float64, len(parts))
	for i, a := range parts {
		a = strings.TrimSuffix(strings.TrimSpace(a), "%")
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return "", nil, bad
		}
		args[i] = f
	}
	return strings.TrimSpace(s[:open]), args, nil
}

func to8(x float64) int {
	return int(math.Round(math.Max(0, math.Min(255, x))))
}
