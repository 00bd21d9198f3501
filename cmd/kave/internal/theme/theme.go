package theme

import (
	"fmt"
	"image/color"
	"time"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"kave/internal/config"
)

// Palette defines the overlay colors.
type Palette struct {
	Background color.NRGBA
	Text       color.NRGBA
}

// Config defines the overlay metrics.
type Config struct {
	CornerRadius unit.Dp
	PaddingV     unit.Dp
	PaddingH     unit.Dp
	Margin       unit.Dp
	FontSize     unit.Sp
	Crossfade    time.Duration
	Anchor       layout.Direction
}

// Theme wraps the material theme with overlay styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme builds a theme from the overlay section of the configuration.
func NewTheme(mtheme *material.Theme, oc config.OverlayConfig) (*Theme, error) {
	bg, err := config.ParseColor(oc.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	fg, err := config.ParseColor(oc.Foreground)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}

	return &Theme{
		Theme: mtheme,
		Palette: Palette{
			Background: bg,
			Text:       fg,
		},
		Config: Config{
			CornerRadius: unit.Dp(oc.Radius),
			PaddingV:     unit.Dp(oc.PaddingV),
			PaddingH:     unit.Dp(oc.PaddingH),
			Margin:       unit.Dp(oc.Margin),
			FontSize:     unit.Sp(oc.FontSize),
			Crossfade:    time.Duration(oc.CrossfadeMs) * time.Millisecond,
			Anchor:       Anchor(oc.Position),
		},
	}, nil
}

// Anchor maps an overlay position name to a layout direction. Unknown
// names anchor bottom-center.
func Anchor(position string) layout.Direction {
	switch position {
	case "top-center":
		return layout.N
	case "top-left":
		return layout.NW
	case "top-right":
		return layout.NE
	case "bottom-left":
		return layout.SW
	case "bottom-right":
		return layout.SE
	case "center":
		return layout.Center
	default:
		return layout.S
	}
}

// Opacity returns the overlay alpha elapsed after the last visibility
// change. A zero crossfade switches instantly.
func Opacity(visible bool, elapsed, crossfade time.Duration) float32 {
	progress := float32(1)
	if crossfade > 0 && elapsed < crossfade {
		progress = float32(elapsed) / float32(crossfade)
		if progress < 0 {
			progress = 0
		}
	}
	if visible {
		return progress
	}
	return 1 - progress
}

// Reverse returns the start time for a fade in the opposite direction that
// continues from the alpha reached at now, so a Show during a fade-out
// does not jump back to transparent.
func Reverse(changed, now time.Time, crossfade time.Duration) time.Time {
	elapsed := now.Sub(changed)
	if elapsed < 0 || elapsed >= crossfade {
		return now
	}
	return now.Add(elapsed - crossfade)
}

// Fade scales the alpha channel of c.
func Fade(c color.NRGBA, alpha float32) color.NRGBA {
	switch {
	case alpha <= 0:
		c.A = 0
	case alpha < 1:
		c.A = uint8(float32(c.A)*alpha + 0.5)
	}
	return c
}
