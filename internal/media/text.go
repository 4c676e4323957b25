package media

import (
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Ellipsis is appended to truncated titles.
const Ellipsis = "…"

// TextWidth returns the advance width of s in face.
func TextWidth(face font.Face, s string) fixed.Int26_6 {
	return font.MeasureString(face, s)
}

// TruncateToWidth returns text unchanged if it fits within maxWidth pixels.
// Otherwise it returns the longest prefix, by rune count, that still fits
// with Ellipsis appended, or Ellipsis alone if no non-empty prefix does.
func TruncateToWidth(face font.Face, text string, maxWidth int) string {
	limit := fixed.I(maxWidth)
	if TextWidth(face, text) <= limit {
		return text
	}

	runes := []rune(text)
	for i := len(runes) - 1; i > 0; i-- {
		candidate := string(runes[:i]) + Ellipsis
		if TextWidth(face, candidate) <= limit {
			return candidate
		}
	}
	return Ellipsis
}
