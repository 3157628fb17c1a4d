package tcmux

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

func TestMuxSelect(t *testing.T) {
	for ch := 1; ch <= Channels; ch++ {
		r := newRig()
		m := r.mux()
		require.NoError(t, m.Select(ch, MinSettleDelay, r.sleep))

		addr := ch - 1
		require.Equal(t, gpio.Level(addr&1 != 0), r.a0.Read(), "TC%d A0", ch)
		require.Equal(t, gpio.Level(addr&2 != 0), r.a1.Read(), "TC%d A1", ch)
		require.Equal(t, gpio.Level(addr&4 != 0), r.a2.Read(), "TC%d A2", ch)
		require.Equal(t, gpio.High, r.en.Read())

		// Enable follows the address and the settle delay follows enable.
		require.Len(t, r.ev, 5)
		require.Equal(t, "EN=High", r.ev[3])
		require.Equal(t, "sleep 150ms", r.ev[4])

		require.NoError(t, m.Deselect())
		for _, p := range []*recPin{r.a0, r.a1, r.a2, r.en} {
			require.Equal(t, gpio.Low, p.Read(), p.N)
		}
		require.Equal(t, "EN=Low", r.ev[5])
	}
}

func TestMuxTruthTable(t *testing.T) {
	r := newRig()
	m := r.mux()
	require.NoError(t, m.Select(6, MinSettleDelay, r.sleep))
	require.Equal(t, events{"A0=High", "A1=Low", "A2=High", "EN=High", "sleep 150ms"}, r.ev)
}

func TestMuxSelectOutOfRange(t *testing.T) {
	for _, ch := range []int{-1, 0, 9, 100} {
		r := newRig()
		m := r.mux()
		err := m.Select(ch, MinSettleDelay, r.sleep)
		require.ErrorIs(t, err, ErrChannel)
		require.Empty(t, r.ev, "no pin may change for TC%d", ch)
	}
}

func TestMuxPinErrors(t *testing.T) {
	r := newRig()
	m := r.mux()
	errPin := errors.New("pin broken")
	r.a1.err = errPin

	require.ErrorIs(t, m.Select(3, MinSettleDelay, r.sleep), errPin)
	require.Equal(t, gpio.Low, r.en.Read(), "mux enabled on a bad address")

	// Deselect still clears the other lines.
	r.ev = nil
	require.ErrorIs(t, m.Deselect(), errPin)
	require.Equal(t, events{"EN=Low", "A0=Low", "A2=Low"}, r.ev)
}

func TestMuxValidate(t *testing.T) {
	r := newRig()
	m := r.mux()
	require.NoError(t, m.validate())
	m.A2 = nil
	require.EqualError(t, m.validate(), "mux pin A2 not set")
}
