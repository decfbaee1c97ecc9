package periph

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/devices/ssd1306"
	"periph.io/x/periph/devices/ssd1306/image1bit"
	"periph.io/x/periph/host"
)

// OLED renders the four status lines on an SSD1306 over I2C.
type OLED struct {
	dev    *ssd1306.Dev
	bounds image.Rectangle
}

func NewOLED(busName string, width, height int) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	opts := ssd1306.DefaultOpts
	opts.W = width
	opts.H = height
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ssd1306 init: %w", err)
	}

	return &OLED{dev: dev, bounds: image.Rect(0, 0, width, height)}, nil
}

// ShowLines draws up to four lines of 7x13 text.
func (o *OLED) ShowLines(lines []string) error {
	img := image1bit.NewVerticalLSB(o.bounds)
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: basicfont.Face7x13,
	}

	y := 12
	for _, line := range lines {
		if y > o.bounds.Max.Y {
			break
		}
		drawer.Dot = fixed.P(0, y)
		drawer.DrawString(line)
		y += 14
	}
	return o.dev.Draw(o.bounds, img, image.Point{})
}

// Clear blanks the display.
func (o *OLED) Clear() error {
	return o.dev.Draw(o.bounds, image1bit.NewVerticalLSB(o.bounds), image.Point{})
}

func (o *OLED) Close() error {
	return o.Clear()
}
