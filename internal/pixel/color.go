// Package pixel holds the colour model and the per-layer pixel grid.
package pixel

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an opaque RGB value or absent. The zero value is absent.
type Color struct {
	R, G, B uint8
	Set     bool
}

// None is the absent (transparent) colour.
var None = Color{}

// RGB returns an opaque colour.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Set: true}
}

// ParseHex accepts "#rgb" and "#rrggbb" (the leading # is optional).
// An empty string parses to None.
func ParseHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, nil
	}
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return None, fmt.Errorf("invalid color %q", s)
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return None, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB(r, g, b), nil
}

// MustHex is ParseHex for literals.
func MustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the colour as "#rrggbb", or "" when absent.
func (c Color) Hex() string {
	if !c.Set {
		return ""
	}
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

func (c Color) String() string {
	if !c.Set {
		return "none"
	}
	return c.Hex()
}

// RGBA converts to an image colour. Absent becomes fully transparent.
func (c Color) RGBA() color.RGBA {
	if !c.Set {
		return color.RGBA{}
	}
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// FromImage maps an image colour to a pixel, treating alpha below 128 as absent.
func FromImage(col color.Color) Color {
	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	if n.A < 128 {
		return None
	}
	return RGB(n.R, n.G, n.B)
}

// Matches compares target and candidate. tolerance <= 0 means exact equality,
// where two absent colours are equal and absent never equals a colour.
// Otherwise the squared RGB distance must not exceed tolerance².
func Matches(target, candidate Color, tolerance float64) bool {
	if tolerance <= 0 {
		return target == candidate
	}
	if !target.Set || !candidate.Set {
		return target.Set == candidate.Set
	}
	dr := float64(target.R) - float64(candidate.R)
	dg := float64(target.G) - float64(candidate.G)
	db := float64(target.B) - float64(candidate.B)
	return dr*dr+dg*dg+db*db <= tolerance*tolerance
}

// MarshalJSON writes "#rrggbb" or null.
func (c Color) MarshalJSON() ([]byte, error) {
	if !c.Set {
		return []byte("null"), nil
	}
	return json.Marshal(c.Hex())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = None
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML writes the hex string; absent cells become null.
func (c Color) MarshalYAML() (interface{}, error) {
	if !c.Set {
		return nil, nil
	}
	return c.Hex(), nil
}

func (c *Color) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s *string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == nil {
		*c = None
		return nil
	}
	parsed, err := ParseHex(*s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
