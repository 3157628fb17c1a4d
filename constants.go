package tcmux

import "time"

// Fault codes reported by the MAX31855. The values are bit flags, matching
// the position of the fault bit in the frame.
const (
	FaultNone          Fault = 0
	FaultOpenCircuit   Fault = 1
	FaultShortToGround Fault = 2
	FaultShortToVCC    Fault = 4
)

// MAX31855 frame layout
const (
	ocBit    = 0
	scgBit   = 1
	scvBit   = 2
	faultBit = 16

	tcDataOffset  = 18
	intDataOffset = 4

	tcDataMask  uint32 = 0x3FFF
	intDataMask uint32 = 0x0FFF

	tcSignBit  = 13
	intSignBit = 11

	tcRange  = 1 << 14
	intRange = 1 << 12

	// LSB weights: 0.25°C and 0.0625°C
	tcScale  = 4
	intScale = 16
)

// Channels is the number of thermocouple inputs behind the ADG608.
const Channels = 8

const (
	// MinSettleDelay is how long the mux must hold an address before the
	// MAX31855 output reflects the selected thermocouple.
	MinSettleDelay = 150 * time.Millisecond

	// csSetup covers the 100ns between CS falling and SO becoming valid.
	csSetup = time.Microsecond
)

// Type K: mV per °C around room temperature
const seebeckK = 0.041276
