package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mikesmitty/tcmux"
)

type reader interface {
	Read(ch int) (tcmux.Reading, error)
}

// sampler takes several readings of a channel and keeps the median. The
// MAX31855 every now and then returns a bad value depending on noise, and an
// intermittent fault is retried after a pause.
type sampler struct {
	r       reader
	samples int
	retries int
	pause   time.Duration
}

func (s *sampler) median(ch int) (tcmux.Reading, error) {
	var got []tcmux.Reading
	faults := 0
	for len(got) < s.samples {
		r, err := s.r.Read(ch)
		if err != nil {
			var f tcmux.Fault
			if !errors.As(err, &f) {
				return tcmux.Reading{}, err
			}
			if faults++; faults > s.retries {
				return tcmux.Reading{}, fmt.Errorf("giving up after %d faults: %w", faults, err)
			}
		} else {
			got = append(got, r)
		}
		if len(got) < s.samples {
			time.Sleep(s.pause)
		}
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Temperature < got[j].Temperature })
	return got[len(got)/2], nil
}
