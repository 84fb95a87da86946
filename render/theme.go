package render

import (
	"image/color"
	"strings"
)

// Theme provides the color scheme of a rendering
type Theme struct {
	Background     string
	NodeFill       string
	NodeStroke     string
	SelectedFill   string
	SelectedStroke string
	Text           string
	Edge           string
}

// DefaultTheme returns the blue-on-paper scheme
func DefaultTheme() Theme {
	return Theme{
		Background:     "#F9F8F8",
		NodeFill:       "#367AFF",
		NodeStroke:     "#FFFFFF",
		SelectedFill:   "#2B5FCC",
		SelectedStroke: "#FFD700",
		Text:           "#FFFFFF",
		Edge:           "#367AFF",
	}
}

// DarkTheme returns a scheme for dark terminals and pages
func DarkTheme() Theme {
	return Theme{
		Background:     "#212121",
		NodeFill:       "#2979FF",
		NodeStroke:     "#333333",
		SelectedFill:   "#651FFF",
		SelectedStroke: "#FFD700",
		Text:           "#FFFFFF",
		Edge:           "#00B0FF",
	}
}

// GetTheme returns a theme by name, the default for unknown names
func GetTheme(name string) Theme {
	if strings.EqualFold(name, "dark") {
		return DarkTheme()
	}
	return DefaultTheme()
}

// fill and stroke of a shape
func (t Theme) shapeColors(selected bool) (fill, stroke string, width float64) {
	if selected {
		return t.SelectedFill, t.SelectedStroke, 3
	}
	return t.NodeFill, t.NodeStroke, 2
}

// rgba converts a hex color string to an opaque color
func rgba(hex string) color.RGBA {
	r, g, b := parseHexColor(hex)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Parse a hex color string into RGB components
func parseHexColor(hex string) (uint8, uint8, uint8) {
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) == 3 {
		r := parseHexDigit(hex[0])
		g := parseHexDigit(hex[1])
		b := parseHexDigit(hex[2])
		return r * 17, g * 17, b * 17 // 0-15 to 0-255
	} else if len(hex) >= 6 {
		return parseHexByte(hex[0:2]), parseHexByte(hex[2:4]), parseHexByte(hex[4:6])
	}

	// Default to black if invalid
	return 0, 0, 0
}

func parseHexDigit(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func parseHexByte(s string) uint8 {
	var result uint8
	for i := 0; i < len(s); i++ {
		result = result*16 + parseHexDigit(s[i])
	}
	return result
}
