package tcmux

import (
	"errors"
	"math"
)

// ErrOutOfTable is returned by LinearizeChecked when the thermocouple voltage
// is above the last NIST type K segment (54.886mV, roughly 1372°C).
var ErrOutOfTable = errors.New("thermocouple voltage out of table")

// Segment is one range of the NIST type K inverse polynomial. Coeffs[i] is
// the coefficient of E^i, with E in mV.
type Segment struct {
	Lower  float64
	Upper  float64
	Coeffs [10]float64
}

// Segments holds the inverse type K coefficients, from ITS-90 (NIST
// Monograph 175). They are indexed by thermocouple voltage, lowest first.
var Segments = [3]Segment{
	{
		Lower: math.Inf(-1),
		Upper: 0,
		Coeffs: [10]float64{
			0.0000000e+00,
			2.5173462e+01,
			-1.1662878e+00,
			-1.0833638e+00,
			-8.9773540e-01,
			-3.7342377e-01,
			-8.6632643e-02,
			-1.0450598e-02,
			-5.1920577e-04,
			0.0000000e+00,
		},
	},
	{
		Lower: 0,
		Upper: 20.644,
		Coeffs: [10]float64{
			0.000000e+00,
			2.508355e+01,
			7.860106e-02,
			-2.503131e-01,
			8.315270e-02,
			-1.228034e-02,
			9.804036e-04,
			-4.413030e-05,
			1.057734e-06,
			-1.052755e-08,
		},
	},
	{
		Lower: 20.644,
		Upper: 54.886,
		Coeffs: [10]float64{
			-1.318058e+02,
			4.830222e+01,
			-1.646031e+00,
			5.464731e-02,
			-9.650715e-04,
			8.802193e-06,
			-3.110810e-08,
			0.000000e+00,
			0.000000e+00,
			0.000000e+00,
		},
	},
}

// Forward type K coefficients for 0°C..1372°C, used to turn the cold junction
// temperature into the voltage a thermocouple would produce at it.
var cjCoeffs = [10]float64{
	-0.176004136860e-01,
	0.389212049750e-01,
	0.185587700320e-04,
	-0.994575928740e-07,
	0.318409457190e-09,
	-0.560728448890e-12,
	0.560750590590e-15,
	-0.320207200030e-18,
	0.971511471520e-22,
	-0.121047212750e-25,
}

// Exponential correction term a0*exp(a1*(t-a2)^2).
const (
	cjA0 = 0.118597600000e+00
	cjA1 = -0.118343200000e-03
	cjA2 = 0.126968600000e+03
)

// poly evaluates c[0] + c[1]*x + ... + c[9]*x^9.
func poly(c *[10]float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}

// ColdJunctionVoltage returns the type K voltage in mV for a junction at t °C.
func ColdJunctionVoltage(t float64) float64 {
	d := t - cjA2
	return poly(&cjCoeffs, t) + cjA0*math.Exp(cjA1*d*d)
}

// SegmentFor returns the calibration segment covering the thermocouple
// voltage v in mV, or nil if v is past the end of the table.
func SegmentFor(v float64) *Segment {
	for i := range Segments {
		if v < Segments[i].Upper {
			return &Segments[i]
		}
	}
	return nil
}

// LinearizeChecked corrects the MAX31855's linear approximation using the NIST
// type K polynomials. tc is the thermocouple temperature reported by the chip
// and internal its cold junction temperature, both in °C.
//
// The segment is chosen on the thermocouple voltage alone while the polynomial
// is evaluated on the compensated sum.
func LinearizeChecked(tc, internal float64) (float64, error) {
	v := (tc - internal) * seebeckK
	s := SegmentFor(v)
	if s == nil {
		return 0, ErrOutOfTable
	}
	return poly(&s.Coeffs, v+ColdJunctionVoltage(internal)), nil
}

// Linearize is LinearizeChecked with out of table voltages mapped to 0.
func Linearize(tc, internal float64) float64 {
	t, err := LinearizeChecked(tc, internal)
	if err != nil {
		return 0
	}
	return t
}
