package color

import "math"

// MinUIContrast is the WCAG AA threshold for large text and UI components.
// Theme colors usually back buttons and cards, not body copy.
const MinUIContrast = 3.0

// ContrastRatio returns the WCAG 2.x contrast ratio between two color
// tokens, in [1, 21]. Both inputs go through ToHex first, so unsupported
// values are measured as black.
func ContrastRatio(fg, bg string) float64 {
	fgL := RelativeLuminance(fg)
	bgL := RelativeLuminance(bg)
	lightest := math.Max(fgL, bgL)
	darkest := math.Min(fgL, bgL)
	return (lightest + 0.05) / (darkest + 0.05)
}

// RelativeLuminance returns the WCAG relative luminance of a color token.
func RelativeLuminance(value string) float64 {
	c, ok := Parse(ToHex(value))
	if !ok {
		return 0
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
