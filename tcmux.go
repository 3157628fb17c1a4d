// Package tcmux drives the Ocean Controls thermocouple multiplexer shield:
// eight type K thermocouples switched by an ADG608 analog multiplexer onto a
// single MAX31855K converter read over SPI.
//
// The MAX31855 assumes a linear thermocouple response, so each reading is
// corrected with the NIST type K polynomials before being returned.
//
// Datasheets:
//
//	https://datasheets.maximintegrated.com/en/ds/MAX31855.pdf
//	https://www.analog.com/media/en/technical-documentation/data-sheets/ADG608_609.pdf
package tcmux

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Opts holds the wiring of the shield.
type Opts struct {
	// CS is the MAX31855 chip select. The shield routes it to D8, D9 or D10
	// (D9 by default). If nil, the SPI port's own chip select is used and the
	// 100ns CS to SCK setup the MAX31855 needs is up to the controller.
	CS gpio.PinOut
	// Mux holds the ADG608 address and enable lines.
	Mux Mux
	// SettleDelay is how long to wait after switching channels before
	// reading. Values below MinSettleDelay are raised to it.
	SettleDelay time.Duration
}

func DefaultOptions() *Opts {
	return &Opts{SettleDelay: MinSettleDelay}
}

// Reading is a linearized measurement of one thermocouple.
type Reading struct {
	Channel int
	// Temperature is the NIST corrected thermocouple temperature.
	Temperature physic.Temperature
	// Thermocouple and Internal are the values reported by the MAX31855.
	Thermocouple physic.Temperature
	Internal     physic.Temperature
}

func (r Reading) String() string {
	return fmt.Sprintf("TC%d: %s (raw %s, cold junction %s)", r.Channel, r.Temperature, r.Thermocouple, r.Internal)
}

func New(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Mux.validate(); err != nil {
		return nil, fmt.Errorf("tcmux: %w", err)
	}

	mode := spi.Mode0
	if opts.CS != nil {
		mode |= spi.NoCS
	}
	c, err := p.Connect(5*physic.MegaHertz, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("tcmux: %w", err)
	}

	d := &Dev{
		d:     c,
		opts:  *opts,
		name:  p.String(),
		sleep: time.Sleep,
	}
	if d.opts.SettleDelay < MinSettleDelay {
		d.opts.SettleDelay = MinSettleDelay
	}

	// Idle state: converter deselected, all mux inputs off.
	if d.opts.CS != nil {
		if err := d.opts.CS.Out(gpio.High); err != nil {
			return nil, d.wrap(err)
		}
	}
	if err := d.opts.Mux.Deselect(); err != nil {
		return nil, d.wrap(err)
	}

	return d, nil
}

// Dev is a handle to the shield. It owns the SPI connection and the mux
// pins; a read holds the lock from channel selection until the mux is off
// again.
type Dev struct {
	d     conn.Conn
	opts  Opts
	name  string
	sleep func(time.Duration)

	mu   sync.Mutex
	last physic.Temperature
	ok   bool
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s}", d.name, d.d)
}

// Halt switches all mux inputs off.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.opts.Mux.Deselect(); err != nil {
		return d.wrap(err)
	}
	return nil
}

// Read measures thermocouple ch (1..8) and returns the corrected reading.
// Faults flagged by the converter are returned as a Fault error.
func (d *Dev) Read(ch int) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(ch)
}

// ReadAll reads every channel in turn. readings[i] is valid only if errs[i]
// is nil.
func (d *Dev) ReadAll() (readings [Channels]Reading, errs [Channels]error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range readings {
		readings[i], errs[i] = d.read(i + 1)
	}
	return readings, errs
}

// ReadTemperature measures thermocouple ch and stores the result for
// Temperature. On a converter fault it returns the Fault code and leaves the
// stored temperature untouched; other failures are returned as err.
func (d *Dev) ReadTemperature(ch int) (Fault, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.read(ch)
	var f Fault
	if errors.As(err, &f) {
		if len(multierr.Errors(err)) > 1 {
			// The mux could not be switched off afterwards.
			return f, err
		}
		return f, nil
	}
	if err != nil {
		return FaultNone, err
	}
	d.last, d.ok = r.Temperature, true
	return FaultNone, nil
}

// Temperature returns the last temperature stored by ReadTemperature. ok is
// false if no read has succeeded yet.
func (d *Dev) Temperature() (t physic.Temperature, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.ok
}

func (d *Dev) read(ch int) (r Reading, err error) {
	if ch < 1 || ch > Channels {
		return r, d.wrap(fmt.Errorf("%w: %d", ErrChannel, ch))
	}
	defer func() {
		if e := d.opts.Mux.Deselect(); e != nil {
			err = multierr.Append(err, d.wrap(e))
		}
	}()
	if err := d.opts.Mux.Select(ch, d.opts.SettleDelay, d.sleep); err != nil {
		return r, d.wrap(err)
	}

	f, err := d.acquire()
	if err != nil {
		return r, d.wrap(err)
	}
	s, err := f.Decode()
	if err != nil {
		return r, d.wrap(fmt.Errorf("TC%d: %w", ch, err))
	}
	t, err := LinearizeChecked(s.Thermocouple, s.Internal)
	if err != nil {
		return r, d.wrap(fmt.Errorf("TC%d: %w", ch, err))
	}

	return Reading{
		Channel:      ch,
		Temperature:  celsius(t),
		Thermocouple: celsius(s.Thermocouple),
		Internal:     celsius(s.Internal),
	}, nil
}

// acquire clocks one 32-bit frame out of the MAX31855.
func (d *Dev) acquire() (f Frame, err error) {
	var w, r [4]byte
	if cs := d.opts.CS; cs != nil {
		if err := cs.Out(gpio.Low); err != nil {
			return 0, err
		}
		defer func() {
			err = multierr.Append(err, cs.Out(gpio.High))
		}()
		d.sleep(csSetup)
	}
	if err := d.d.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return Frame(binary.BigEndian.Uint32(r[:])), nil
}

func celsius(t float64) physic.Temperature {
	return physic.Temperature(t*1000)*physic.MilliCelsius + physic.ZeroCelsius
}

func (d *Dev) wrap(err error) error {
	return fmt.Errorf("%s: %w", strings.ToLower(d.name), err)
}

var _ conn.Resource = &Dev{}
