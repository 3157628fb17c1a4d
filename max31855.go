package tcmux

import (
	"errors"
	"fmt"
)

// Sentinels matched by a Fault through errors.Is.
var (
	ErrOpenCircuit   = errors.New("thermocouple open circuit")
	ErrShortToGround = errors.New("thermocouple shorted to ground")
	ErrShortToVCC    = errors.New("thermocouple shorted to VCC")
)

// Fault is the outcome of a MAX31855 conversion as reported in the status
// bits of its frame.
type Fault uint8

func (f Fault) Error() string {
	if f == FaultNone {
		return "no fault"
	}
	if err := f.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("unknown fault %#x", uint8(f))
}

// Is lets errors.Is match a Fault against the package sentinels.
func (f Fault) Is(target error) bool {
	s := f.sentinel()
	return s != nil && s == target
}

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "ok"
	case FaultOpenCircuit:
		return "open circuit"
	case FaultShortToGround:
		return "short to GND"
	case FaultShortToVCC:
		return "short to VCC"
	}
	return fmt.Sprintf("Fault(%d)", uint8(f))
}

func (f Fault) sentinel() error {
	switch f {
	case FaultOpenCircuit:
		return ErrOpenCircuit
	case FaultShortToGround:
		return ErrShortToGround
	case FaultShortToVCC:
		return ErrShortToVCC
	}
	return nil
}

// Frame is the raw 32-bit word shifted out of the MAX31855.
//
//	D31..D18  thermocouple temperature, 14-bit two's complement, 0.25°C
//	D16       fault (any of D2..D0)
//	D15..D4   internal temperature, 12-bit two's complement, 0.0625°C
//	D2        short to VCC
//	D1        short to GND
//	D0        open circuit
type Frame uint32

// Fault returns the first fault bit set, checking open circuit, short to
// ground and short to VCC in that order.
func (f Frame) Fault() Fault {
	switch {
	case f&(1<<ocBit) != 0:
		return FaultOpenCircuit
	case f&(1<<scgBit) != 0:
		return FaultShortToGround
	case f&(1<<scvBit) != 0:
		return FaultShortToVCC
	}
	return FaultNone
}

// FaultBit reports the chip's summary fault flag (D16).
func (f Frame) FaultBit() bool {
	return f&(1<<faultBit) != 0
}

// Thermocouple returns the chip's cold junction compensated thermocouple
// temperature in °C. It assumes a linear type K response.
func (f Frame) Thermocouple() float64 {
	return signed(uint32(f)>>tcDataOffset&tcDataMask, tcSignBit, tcRange) / tcScale
}

// Internal returns the cold junction temperature in °C.
func (f Frame) Internal() float64 {
	return signed(uint32(f)>>intDataOffset&intDataMask, intSignBit, intRange) / intScale
}

// Sample is a decoded conversion.
type Sample struct {
	Thermocouple float64 // °C, uncorrected
	Internal     float64 // °C
}

// Decode returns the two temperatures of the frame, or the Fault if one is
// flagged. Temperatures of a faulted frame are meaningless and are not
// returned.
func (f Frame) Decode() (Sample, error) {
	if ft := f.Fault(); ft != FaultNone {
		return Sample{}, ft
	}
	return Sample{Thermocouple: f.Thermocouple(), Internal: f.Internal()}, nil
}

func signed(v uint32, sign uint, rng int32) float64 {
	n := int32(v)
	if v>>sign != 0 {
		n -= rng
	}
	return float64(n)
}
