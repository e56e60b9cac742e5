package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB holds a color with channels normalized to [0, 1].
type RGB struct {
	R, G, B float64
}

// Scaled returns the color as 0-255 integer channels.
func (c RGB) Scaled() (int, int, int) {
	return int(c.R*255 + 0.5), int(c.G*255 + 0.5), int(c.B*255 + 0.5)
}

// ParseHexColor parses "#rrggbb" or "#rgb" (leading '#' optional) into an RGB
// with normalized channels.
func ParseHexColor(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}

	channel := func(sub string) (float64, error) {
		v, err := strconv.ParseUint(sub, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return float64(v) / 255, nil
	}

	r, err := channel(hex[0:2])
	if err != nil {
		return RGB{}, err
	}
	g, err := channel(hex[2:4])
	if err != nil {
		return RGB{}, err
	}
	b, err := channel(hex[4:6])
	if err != nil {
		return RGB{}, err
	}
	return RGB{R: r, G: g, B: b}, nil
}
