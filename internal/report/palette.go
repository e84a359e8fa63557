package report

import (
	"fmt"
	"image/color"

	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

// bandColors runs red to green from the lowest to the highest band.
var bandColors = [uniformity.NumBands]string{
	"#d73027", "#f46d43", "#fdae61", "#fee08b", "#d9ef8b",
	"#a6d96a", "#66bd63", "#1a9850", "#006837", "#00441b",
}

// sensorColors is a qualitative palette cycled across profile lines.
var sensorColors = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

const targetColor = "#d73027"

func bandColor(b uniformity.Band) string {
	if !b.Valid() {
		return "lightgrey"
	}
	return bandColors[b]
}

func sensorColor(i int) string {
	return sensorColors[i%len(sensorColors)]
}

// rgb parses a #rrggbb colour for the PNG renderer.
func rgb(hex string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.Gray{Y: 0xd3}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// generateColors creates n evenly spaced hues for PNG profile lines, where
// the pale qualitative palette is hard to read on white.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
