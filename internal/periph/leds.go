package periph

import (
	"fmt"
	"log"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// LEDs drives one indicator pin per species plus a heartbeat pin. All
// pins are reset every frame so an LED only stays lit while its species
// is actually in view.
type LEDs struct {
	pins      map[string]gpio.PinIO
	heartbeat gpio.PinIO
	hbState   bool
}

// NewLEDs resolves the configured pins. Errors are returned rather than
// fatal: the caller decides whether to run headless.
func NewLEDs(pinNames map[string]string, heartbeatPin string) (*LEDs, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	l := &LEDs{pins: map[string]gpio.PinIO{}}
	for label, name := range pinNames {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("gpio pin %s not found", name)
		}
		l.pins[label] = pin
	}
	if heartbeatPin != "" {
		if l.heartbeat = gpioreg.ByName(heartbeatPin); l.heartbeat == nil {
			return nil, fmt.Errorf("gpio pin %s not found", heartbeatPin)
		}
	}
	return l, nil
}

// Update lights the pin of each species present this frame and clears
// the rest.
func (l *LEDs) Update(present map[string]bool) {
	for label, pin := range l.pins {
		level := gpio.Low
		if present[label] {
			level = gpio.High
		}
		if err := pin.Out(level); err != nil {
			log.Printf("[Periph] led %s: %v", label, err)
		}
	}

	if l.heartbeat != nil {
		l.hbState = !l.hbState
		level := gpio.Low
		if l.hbState {
			level = gpio.High
		}
		if err := l.heartbeat.Out(level); err != nil {
			log.Printf("[Periph] heartbeat: %v", err)
		}
	}
}

// Close turns everything off.
func (l *LEDs) Close() {
	for _, pin := range l.pins {
		pin.Out(gpio.Low)
	}
	if l.heartbeat != nil {
		l.heartbeat.Out(gpio.Low)
	}
}
