package render

import (
	"image/color"
	"strconv"
	"strings"
)

// parseHexColor decodes #rgb, #rgba, #rrggbb or #rrggbbaa, the forms accepted by the hexcolor
// settings validation. Anything else yields opaque black.
func parseHexColor(s string) color.NRGBA {
	black := color.NRGBA{A: 255}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(s) {
	case 3, 4:
		long := make([]byte, 0, 2*len(s))
		for i := 0; i < len(s); i++ {
			long = append(long, s[i], s[i])
		}
		s = string(long)
	case 6, 8:
	default:
		return black
	}
	if len(s) == 6 {
		s += "ff"
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return black
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
