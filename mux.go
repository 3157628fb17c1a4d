package tcmux

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
)

// ErrChannel is returned for a thermocouple number outside 1..Channels.
var ErrChannel = errors.New("channel out of range")

// Mux holds the control lines of the ADG608 8:1 analog multiplexer that
// routes one thermocouple at a time to the MAX31855.
//
//	A2 A1 A0  input
//	 0  0  0    1
//	 0  0  1    2
//	 ...
//	 1  1  1    8
type Mux struct {
	A0 gpio.PinOut
	A1 gpio.PinOut
	A2 gpio.PinOut
	EN gpio.PinOut
}

func (m *Mux) lines() [4]gpio.PinOut {
	return [4]gpio.PinOut{m.A0, m.A1, m.A2, m.EN}
}

func (m *Mux) validate() error {
	for i, p := range m.lines() {
		if p == nil {
			return fmt.Errorf("mux pin %s not set", [...]string{"A0", "A1", "A2", "EN"}[i])
		}
	}
	return nil
}

// Select enables the mux and routes thermocouple ch to the converter, then
// waits settle for the input to stabilise.
func (m *Mux) Select(ch int, settle time.Duration, sleep func(time.Duration)) error {
	if ch < 1 || ch > Channels {
		return fmt.Errorf("%w: %d", ErrChannel, ch)
	}
	// Address before enable so no other input is switched on in between.
	addr := ch - 1
	l := m.lines()
	for i, p := range l[:3] {
		if err := p.Out(gpio.Level(addr&(1<<i) != 0)); err != nil {
			return fmt.Errorf("mux A%d: %w", i, err)
		}
	}
	if err := m.EN.Out(gpio.High); err != nil {
		return fmt.Errorf("mux EN: %w", err)
	}
	sleep(settle)
	return nil
}

// Deselect drives all lines low, switching every input off. EN goes first;
// the address lines are cleared even if that fails.
func (m *Mux) Deselect() error {
	var err error
	for _, p := range [4]gpio.PinOut{m.EN, m.A0, m.A1, m.A2} {
		if e := p.Out(gpio.Low); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", p.Name(), e))
		}
	}
	return err
}
