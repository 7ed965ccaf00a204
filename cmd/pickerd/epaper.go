package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
)

// epaperRenderer drives the 2.13" waveshare hat. The panel is physically
// portrait (122x250); frames are composed landscape and rotated here.
type epaperRenderer struct {
	port    spi.PortCloser
	display *waveshare2in13v4.Dev
}

func openEpaperRenderer(portName string) (*epaperRenderer, error) {
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}

	opts := waveshare2in13v4.EPD2in13v4
	display, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("open e-paper hat: %w", err)
	}
	if err := display.Init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("init e-paper: %w", err)
	}
	if err := display.Clear(color.White); err != nil {
		port.Close()
		return nil, fmt.Errorf("clear e-paper: %w", err)
	}

	return &epaperRenderer{port: port, display: display}, nil
}

func (r *epaperRenderer) Render(frame *image.Gray) error {
	portrait := rotateToPortrait(frame)
	img := image1bit.NewVerticalLSB(r.display.Bounds())
	draw.Draw(img, img.Bounds(), portrait, image.Point{}, draw.Src)
	if err := r.display.Draw(r.display.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("e-paper draw: %w", err)
	}
	return nil
}

func (r *epaperRenderer) Close() error {
	_ = r.display.Sleep()
	_ = r.display.Halt()
	return r.port.Close()
}

// rotateToPortrait maps the landscape frame onto the panel's portrait
// coordinates with a 90 degree clockwise rotation.
func rotateToPortrait(src *image.Gray) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, displayHeight, displayWidth))
	for y := 0; y < displayWidth; y++ {
		for x := 0; x < displayHeight; x++ {
			dst.SetGray(x, y, src.GrayAt(y, displayHeight-1-x))
		}
	}
	return dst
}
