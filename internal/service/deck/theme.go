package deck

import "image/color"

// Theme is a named five-color palette. Static configuration, never mutated.
type Theme struct {
	Name          string
	Background    color.RGBA
	TextPrimary   color.RGBA
	TextSecondary color.RGBA
	Accent        color.RGBA
	Footer        color.RGBA
}

var themes = map[string]Theme{
	"modern": {
		Name:          "modern",
		Background:    color.RGBA{R: 0xF7, G: 0xF7, B: 0xF5, A: 0xFF},
		TextPrimary:   color.RGBA{R: 0x1A, G: 0x1A, B: 0x1A, A: 0xFF},
		TextSecondary: color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF},
		Accent:        color.RGBA{R: 0x2F, G: 0x6F, B: 0xED, A: 0xFF},
		Footer:        color.RGBA{R: 0x8A, G: 0x8A, B: 0x8A, A: 0xFF},
	},
	"warm": {
		Name:          "warm",
		Background:    color.RGBA{R: 0xFA, G: 0xF3, B: 0xE8, A: 0xFF},
		TextPrimary:   color.RGBA{R: 0x3B, G: 0x2F, B: 0x2A, A: 0xFF},
		TextSecondary: color.RGBA{R: 0x6E, G: 0x5B, B: 0x50, A: 0xFF},
		Accent:        color.RGBA{R: 0xC0, G: 0x6A, B: 0x33, A: 0xFF},
		Footer:        color.RGBA{R: 0xA3, G: 0x92, B: 0x85, A: 0xFF},
	},
	"dark": {
		Name:          "dark",
		Background:    color.RGBA{R: 0x17, G: 0x1A, B: 0x1F, A: 0xFF},
		TextPrimary:   color.RGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF},
		TextSecondary: color.RGBA{R: 0xB5, G: 0xBC, B: 0xC4, A: 0xFF},
		Accent:        color.RGBA{R: 0x4F, G: 0xC3, B: 0xA1, A: 0xFF},
		Footer:        color.RGBA{R: 0x6C, G: 0x75, B: 0x80, A: 0xFF},
	},
}

// ThemeByName returns the named theme, falling back to "modern".
func ThemeByName(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["modern"]
}

// ThemeNames lists the available palettes.
func ThemeNames() []string {
	return []string{"modern", "warm", "dark"}
}
