// Package overlay shows key strings in a borderless Gio window.
package overlay

import (
	"context"
	"image"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"kave/cmd/kave/internal/theme"
	"kave/internal/config"
)

// Overlay is a display.Surface backed by a Gio window. Show and Hide only
// record state and request a frame; drawing happens in Run.
//
// Only the badge fades. The window itself stays opaque and takes pointer
// input, since Gio has no transparent or click-through windows.
type Overlay struct {
	window *app.Window
	theme  *theme.Theme

	mu      sync.Mutex
	text    string
	visible bool
	changed time.Time
	now     func() time.Time
}

// New creates the overlay window.
func New(oc config.OverlayConfig) (*Overlay, error) {
	mtheme := material.NewTheme()
	mtheme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))

	t, err := theme.NewTheme(mtheme, oc)
	if err != nil {
		return nil, err
	}

	w := new(app.Window)
	w.Option(
		app.Title("kave"),
		app.Size(unit.Dp(oc.Width), unit.Dp(oc.Height)),
		app.Decorated(false),
	)

	return &Overlay{window: w, theme: t, now: time.Now}, nil
}

// Show displays text, fading in if the overlay was hidden.
func (o *Overlay) Show(s string) {
	o.mu.Lock()
	o.text = s
	if !o.visible {
		o.visible = true
		o.changed = theme.Reverse(o.changed, o.now(), o.theme.Config.Crossfade)
	}
	o.mu.Unlock()
	o.window.Invalidate()
}

// Hide fades the overlay out; the text is cleared once the fade ends.
func (o *Overlay) Hide() {
	o.mu.Lock()
	if o.visible {
		o.visible = false
		o.changed = theme.Reverse(o.changed, o.now(), o.theme.Config.Crossfade)
	}
	o.mu.Unlock()
	o.window.Invalidate()
}

// Run processes window events until the window is closed or ctx ends. It
// must run on its own goroutine while app.Main runs on the main one.
func (o *Overlay) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		o.window.Perform(system.ActionClose)
	})
	defer stop()

	var ops op.Ops
	for {
		switch e := o.window.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			o.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

// Layout draws the current state.
func (o *Overlay) Layout(gtx layout.Context) layout.Dimensions {
	o.mu.Lock()
	elapsed := o.now().Sub(o.changed)
	alpha := theme.Opacity(o.visible, elapsed, o.theme.Config.Crossfade)
	if !o.visible && alpha == 0 {
		o.text = ""
	}
	label := o.text
	o.mu.Unlock()

	if elapsed < o.theme.Config.Crossfade {
		gtx.Execute(op.InvalidateCmd{})
	}
	if label == "" || alpha == 0 {
		return layout.Dimensions{Size: gtx.Constraints.Max}
	}

	cfg := o.theme.Config
	return layout.UniformInset(cfg.Margin).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return cfg.Anchor.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min = image.Point{}
			return o.layoutBadge(gtx, label, alpha)
		})
	})
}

func (o *Overlay) layoutBadge(gtx layout.Context, label string, alpha float32) layout.Dimensions {
	cfg := o.theme.Config
	return layout.Stack{Alignment: layout.Center}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			size := gtx.Constraints.Min
			rect := clip.UniformRRect(image.Rectangle{Max: size}, gtx.Dp(cfg.CornerRadius)).Op(gtx.Ops)
			paint.FillShape(gtx.Ops, theme.Fade(o.theme.Palette.Background, alpha), rect)
			return layout.Dimensions{Size: size}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			inset := layout.Inset{
				Top:    cfg.PaddingV,
				Bottom: cfg.PaddingV,
				Left:   cfg.PaddingH,
				Right:  cfg.PaddingH,
			}
			return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				l := material.Label(o.theme.Theme, cfg.FontSize, label)
				l.Color = theme.Fade(o.theme.Palette.Text, alpha)
				l.Alignment = text.Middle
				l.MaxLines = 1
				return l.Layout(gtx)
			})
		}),
	)
}
