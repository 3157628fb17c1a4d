package tcmux

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// events records pin writes, bus transfers and sleeps in order.
type events []string

// recPin is a gpiotest.Pin that logs its writes and can be made to fail.
type recPin struct {
	gpiotest.Pin
	ev     *events
	err    error
	errLow error // only fails when driven low
}

func (p *recPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	if l == gpio.Low && p.errLow != nil {
		return p.errLow
	}
	*p.ev = append(*p.ev, fmt.Sprintf("%s=%s", p.N, l))
	return p.Pin.Out(l)
}

// fakePort plays back canned MAX31855 frames.
type fakePort struct {
	conntest.Playback
	ev    *events
	freq  physic.Frequency
	mode  spi.Mode
	bits  int
	txErr error
}

func (p *fakePort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.freq, p.mode, p.bits = f, mode, bits
	return p, nil
}

func (p *fakePort) String() string {
	return "fake"
}

func (p *fakePort) LimitSpeed(f physic.Frequency) error {
	return nil
}

func (p *fakePort) Tx(w, r []byte) error {
	*p.ev = append(*p.ev, "tx")
	if p.txErr != nil {
		return p.txErr
	}
	return p.Playback.Tx(w, r)
}

func (p *fakePort) TxPackets(pkts []spi.Packet) error {
	return errors.New("not implemented")
}

// rig is a shield wired to fakes.
type rig struct {
	ev   events
	port *fakePort
	cs   *recPin
	a0   *recPin
	a1   *recPin
	a2   *recPin
	en   *recPin
}

func newRig(frames ...Frame) *rig {
	r := &rig{}
	pin := func(name string) *recPin {
		return &recPin{Pin: gpiotest.Pin{N: name}, ev: &r.ev}
	}
	r.cs, r.a0, r.a1, r.a2, r.en = pin("CS"), pin("A0"), pin("A1"), pin("A2"), pin("EN")
	r.port = &fakePort{ev: &r.ev}
	r.queue(frames...)
	return r
}

func (r *rig) queue(frames ...Frame) {
	for _, f := range frames {
		r.port.Ops = append(r.port.Ops, conntest.IO{
			W: make([]byte, 4),
			R: []byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)},
		})
	}
}

func (r *rig) mux() Mux {
	return Mux{A0: r.a0, A1: r.a1, A2: r.a2, EN: r.en}
}

func (r *rig) opts() *Opts {
	o := DefaultOptions()
	o.CS = r.cs
	o.Mux = r.mux()
	return o
}

func (r *rig) sleep(d time.Duration) {
	r.ev = append(r.ev, "sleep "+d.String())
}

// dev builds a Dev on the rig and clears the events logged by New.
func (r *rig) dev(opts *Opts) (*Dev, error) {
	d, err := New(r.port, opts)
	if err != nil {
		return nil, err
	}
	d.sleep = r.sleep
	r.ev = nil
	return d, nil
}
