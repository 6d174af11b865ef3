package state

import (
	"fmt"
	"image/color"
	"math/rand"
	"strconv"
)

// ColorValue is an RGB hex string of the form #rrggbb.
type ColorValue string

const (
	Black ColorValue = "#000000"
	White ColorValue = "#ffffff"
)

// RandomColor picks a pseudo-random color. Two users may get the same one.
func RandomColor() ColorValue {
	return ColorValue(fmt.Sprintf("#%06x", rand.Intn(0x1000000)))
}

func (c ColorValue) Valid() bool {
	_, ok := c.rgb()
	return ok
}

// NRGBA converts the color, falling back to black when it does not parse.
func (c ColorValue) NRGBA() color.NRGBA {
	v, ok := c.rgb()
	if !ok {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// FromColor formats any image color as a ColorValue, dropping alpha.
func FromColor(c color.Color) ColorValue {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return ColorValue(fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B))
}

func (c ColorValue) rgb() (uint32, bool) {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
