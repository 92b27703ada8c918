// Package color converts theme color tokens into the #rrggbb form expected by
// native color pickers.
//
// Conversion is display-only and lossy: alpha is dropped and out-of-gamut
// channels are clamped. Stored token values are never rewritten.
package color

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Fallback is returned for any input ToHex does not understand.
const Fallback = "#000000"

const maxOklchChroma = 1.5

var (
	hexColorRegex    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	hexInputRegex    = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})([0-9a-fA-F]{2})?$`)
	rgbFunctionRegex = regexp.MustCompile(`(?i)^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)(?:\s*,\s*([\d.]+%?))?\s*\)$`)
	hslFunctionRegex = regexp.MustCompile(`(?i)^hsla?\(\s*([\d.]+)\s*,\s*([\d.]+)%\s*,\s*([\d.]+)%(?:\s*,\s*([\d.]+%?))?\s*\)$`)
	oklchRegex       = regexp.MustCompile(`(?i)^oklch\(\s*([\d.+-]+%?)\s+([\d.+-]+)\s+([\d.+-]+)(?:deg)?(?:\s*/\s*([\d.]+%?))?\s*\)$`)
	oklabRegex       = regexp.MustCompile(`(?i)^oklab\(\s*([\d.+-]+%?)\s+([\d.+-]+)\s+([\d.+-]+)(?:\s*/\s*([\d.]+%?))?\s*\)$`)
)

// IsHexColor reports whether value is a canonical 6-digit hex color.
func IsHexColor(value string) bool {
	return hexColorRegex.MatchString(strings.TrimSpace(value))
}

// ToHex converts a hex, rgb(a), hsl(a), oklch or oklab color string into a
// lowercase #rrggbb string. It never fails: unsupported input yields
// Fallback.
func ToHex(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Fallback
	}
	if IsHexColor(value) {
		return strings.ToLower(value)
	}

	c, ok := Parse(value)
	if !ok {
		return Fallback
	}
	return c.Hex()
}

// Parse is ToHex without the fallback. The returned color is clamped to the
// sRGB gamut; ok is false for unsupported input.
func Parse(raw string) (colorful.Color, bool) {
	value := strings.TrimSpace(raw)
	for _, parse := range parsers {
		c, ok := parse(value)
		if !ok {
			continue
		}
		if math.IsNaN(c.R) || math.IsNaN(c.G) || math.IsNaN(c.B) {
			return colorful.Color{}, false
		}
		return c.Clamped(), true
	}
	return colorful.Color{}, false
}

// parsers are tried in order; the first grammar that matches wins.
var parsers = []func(string) (colorful.Color, bool){
	parseHex,
	parseRGB,
	parseHSL,
	parseOklch,
	parseOklab,
}

func parseHex(value string) (colorful.Color, bool) {
	match := hexInputRegex.FindStringSubmatch(value)
	if match == nil {
		return colorful.Color{}, false
	}
	digits := strings.ToLower(match[1])
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

func parseRGB(value string) (colorful.Color, bool) {
	match := rgbFunctionRegex.FindStringSubmatch(value)
	if match == nil {
		return colorful.Color{}, false
	}
	var channels [3]float64
	for i := range channels {
		v, ok := parseNumber(match[i+1])
		if !ok {
			return colorful.Color{}, false
		}
		channels[i] = clamp(v, 0, 255) / 255
	}
	return colorful.Color{R: channels[0], G: channels[1], B: channels[2]}, true
}

func parseHSL(value string) (colorful.Color, bool) {
	match := hslFunctionRegex.FindStringSubmatch(value)
	if match == nil {
		return colorful.Color{}, false
	}
	h, okH := parseNumber(match[1])
	s, okS := parseNumber(match[2])
	l, okL := parseNumber(match[3])
	if !okH || !okS || !okL {
		return colorful.Color{}, false
	}
	h = math.Mod(h, 360)
	return colorful.Hsl(h, clamp(s/100, 0, 1), clamp(l/100, 0, 1)), true
}

func parseOklch(value string) (colorful.Color, bool) {
	match := oklchRegex.FindStringSubmatch(value)
	if match == nil {
		return colorful.Color{}, false
	}
	l, okL := parseLightness(match[1])
	c, okC := parseNumber(match[2])
	h, okH := parseNumber(match[3])
	if !okL || !okC || !okH {
		return colorful.Color{}, false
	}
	_, a, b := colorful.OkLchToOkLab(l, clamp(c, 0, maxOklchChroma), h)
	return oklabToSRGB(l, a, b), true
}

func parseOklab(value string) (colorful.Color, bool) {
	match := oklabRegex.FindStringSubmatch(value)
	if match == nil {
		return colorful.Color{}, false
	}
	l, okL := parseLightness(match[1])
	a, okA := parseNumber(match[2])
	b, okB := parseNumber(match[3])
	if !okL || !okA || !okB {
		return colorful.Color{}, false
	}
	return oklabToSRGB(l, a, b), true
}

// oklabToSRGB maps OKLab straight to linear sRGB with Ottosson's matrices and
// gamma-encodes the result. The returned color may be out of gamut.
func oklabToSRGB(l, a, b float64) colorful.Color {
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l3 := l_ * l_ * l_
	m3 := m_ * m_ * m_
	s3 := s_ * s_ * s_

	r := +4.0767416621*l3 - 3.3077115913*m3 + 0.2309699292*s3
	g := -1.2684380046*l3 + 2.6097574011*m3 - 0.3413193965*s3
	bl := -0.0041960863*l3 - 0.7034186147*m3 + 1.7076147010*s3

	return colorful.LinearRgb(r, g, bl)
}

// parseLightness accepts a bare 0..1 number or a percentage.
func parseLightness(raw string) (float64, bool) {
	if strings.HasSuffix(raw, "%") {
		v, ok := parseNumber(strings.TrimSuffix(raw, "%"))
		if !ok {
			return 0, false
		}
		return clamp(v/100, 0, 1), true
	}
	v, ok := parseNumber(raw)
	if !ok {
		return 0, false
	}
	return clamp(v, 0, 1), true
}

func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
