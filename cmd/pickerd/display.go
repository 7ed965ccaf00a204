package main

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"picker/menu"
)

// Renderer pushes a composed frame to an output device. Partial or full
// refresh is the renderer's concern; the daemon just hands it frames.
type Renderer interface {
	Render(frame *image.Gray) error
	Close() error
}

// Frame layout for the 250x122 landscape panel. Face7x13 gives 13 px line
// height; a title bar plus six menu rows fit with a little headroom.
const (
	frameLineHeight = 15
	frameTopInset   = 13
	frameLeftInset  = 4
	frameCursorGap  = 14
	frameMaxRows    = 6
)

// composeMenuFrame renders the current navigation view as a 1-channel
// landscape image: an underlined title bar, then a cursor-windowed slice of
// the items with "▸" marking the highlighted row. Blank submenu slots
// render as "(none)" so the row stays visibly selectable.
func composeMenuFrame(mode menu.Mode, title string, items []string, cursor int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, displayWidth, displayHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)

	drawText(img, frameLeftInset, frameTopInset, title)
	drawHLine(img, 0, displayWidth-1, frameTopInset+3)

	// Keep the cursor inside the visible window.
	first := 0
	if cursor >= frameMaxRows {
		first = cursor - frameMaxRows + 1
	}
	if first > len(items)-frameMaxRows {
		first = len(items) - frameMaxRows
	}
	if first < 0 {
		first = 0
	}

	y := frameTopInset + frameLineHeight + 4
	for i := first; i < len(items) && i < first+frameMaxRows; i++ {
		label := items[i]
		if label == "" || label == "* " {
			label = label + "(none)"
		}
		if i == cursor {
			drawText(img, frameLeftInset, y, "▸")
		}
		drawText(img, frameLeftInset+frameCursorGap, y, label)
		y += frameLineHeight
	}
	return img
}

// composeMessageFrame renders a single large centered message, used for the
// Go/Reset splash and the idle main screen.
func composeMessageFrame(msg string) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, displayWidth, displayHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)

	w := font.MeasureString(basicfont.Face7x13, msg).Ceil()
	x := (displayWidth - w) / 2
	if x < 0 {
		x = 0
	}
	drawText(img, x, displayHeight/2, msg)
	return img
}

func drawText(img *image.Gray, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 0}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func drawHLine(img *image.Gray, x0, x1, y int) {
	for x := x0; x <= x1; x++ {
		img.SetGray(x, y, color.Gray{Y: 0})
	}
}

// logRenderer is the display simulator: it logs what a frame would show
// instead of driving hardware. Used in sim mode and in tests.
type logRenderer struct {
	logger *slog.Logger
}

func newLogRenderer(logger *slog.Logger) *logRenderer {
	return &logRenderer{logger: logger}
}

func (r *logRenderer) Render(frame *image.Gray) error {
	b := frame.Bounds()
	r.logger.Info("frame rendered", "width", b.Dx(), "height", b.Dy())
	return nil
}

func (r *logRenderer) Close() error { return nil }
