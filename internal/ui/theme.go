package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	FocusBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Pass         lipgloss.Style
	Fail         lipgloss.Style
	Pending      lipgloss.Style
	Muted        lipgloss.Style
	Info         lipgloss.Style
	Error        lipgloss.Style

	// Markdown is the glamour standard style matching the palette.
	Markdown string
	Bar      [2]color.Color
}

type palette struct {
	bg, panel, fg, muted    color.Color
	accent, warm, good, bad color.Color
	border, focus           color.Color
	markdown                string
}

func DefaultTheme() Theme {
	return ThemeForVariant("midnight")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "paper":
		return buildTheme(palette{
			bg:       lipgloss.Color("#ECE7DC"),
			panel:    lipgloss.Color("#D9D2C3"),
			fg:       lipgloss.Color("#2B2A28"),
			muted:    lipgloss.Color("#7A746A"),
			accent:   lipgloss.Color("#2F6DB5"),
			warm:     lipgloss.Color("#B5762F"),
			good:     lipgloss.Color("#2E8540"),
			bad:      lipgloss.Color("#B83A3A"),
			border:   lipgloss.Color("#A59D8E"),
			focus:    lipgloss.Color("#2F6DB5"),
			markdown: "light",
		})
	case "terminal":
		return buildTheme(palette{
			bg:       lipgloss.Color("#050F07"),
			panel:    lipgloss.Color("#0F2A15"),
			fg:       lipgloss.Color("#BFF5C0"),
			muted:    lipgloss.Color("#6C9A72"),
			accent:   lipgloss.Color("#8BF08F"),
			warm:     lipgloss.Color("#E3D26F"),
			good:     lipgloss.Color("#8BF08F"),
			bad:      lipgloss.Color("#FF6B6B"),
			border:   lipgloss.Color("#1E5A2C"),
			focus:    lipgloss.Color("#E3D26F"),
			markdown: "dark",
		})
	default:
		return buildTheme(palette{
			bg:       lipgloss.Color("#111827"),
			panel:    lipgloss.Color("#1F2A44"),
			fg:       lipgloss.Color("#E6EDF7"),
			muted:    lipgloss.Color("#94A3B8"),
			accent:   lipgloss.Color("#7DD3FC"),
			warm:     lipgloss.Color("#FBBF24"),
			good:     lipgloss.Color("#6EE7A8"),
			bad:      lipgloss.Color("#FB7185"),
			border:   lipgloss.Color("#475569"),
			focus:    lipgloss.Color("#7DD3FC"),
			markdown: "dark",
		})
	}
}

func buildTheme(p palette) Theme {
	bold := func(c color.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c).Bold(true) }
	return Theme{
		Header:       lipgloss.NewStyle().Background(p.bg).Foreground(p.fg).Padding(0, 1),
		Status:       lipgloss.NewStyle().Background(p.panel).Foreground(p.fg).Padding(0, 1),
		PanelTitle:   bold(p.accent),
		PanelBorder:  lipgloss.NewStyle().Foreground(p.border),
		FocusBorder:  lipgloss.NewStyle().Foreground(p.focus),
		PanelBody:    lipgloss.NewStyle().Foreground(p.fg),
		OverlayTitle: bold(p.warm),
		Accent:       bold(p.accent),
		Pass:         bold(p.good),
		Fail:         bold(p.bad),
		Pending:      lipgloss.NewStyle().Foreground(p.warm),
		Muted:        lipgloss.NewStyle().Foreground(p.muted),
		Info:         lipgloss.NewStyle().Foreground(p.accent),
		Error:        lipgloss.NewStyle().Foreground(p.bad),
		Markdown:     p.markdown,
		Bar:          [2]color.Color{p.accent, p.good},
	}
}
