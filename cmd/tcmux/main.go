package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/mikesmitty/tcmux"
)

// Options are the command line flags. They override the config file.
type Options struct {
	Config   string `short:"c" long:"config" description:"YAML file describing the shield wiring"`
	Bus      string `long:"bus" description:"Name of the SPI bus"`
	CS       string `long:"cs" description:"Chip select pin (default: the bus's own CS)"`
	A0       string `long:"a0" description:"Mux A0 pin"`
	A1       string `long:"a1" description:"Mux A1 pin"`
	A2       string `long:"a2" description:"Mux A2 pin"`
	EN       string `long:"en" description:"Mux EN pin"`
	Channels []int  `short:"n" long:"channel" description:"Thermocouple to read, repeatable (default: all)"`
	Samples  int    `short:"s" long:"samples" description:"Readings per channel; the median is printed (default: 3)"`
	Retries  int    `short:"r" long:"retries" default:"-1" default-mask:"3" description:"Faulty readings tolerated per channel"`
}

func mainImpl() error {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		return err
	}

	cfg := &Config{}
	if opts.Config != "" {
		var err error
		if cfg, err = LoadConfig(opts.Config); err != nil {
			return err
		}
	}
	cfg.Merge(&opts)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}

	p, err := spireg.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer p.Close()

	o := tcmux.DefaultOptions()
	o.SettleDelay = cfg.settle()
	if cfg.CS != "" {
		if o.CS, err = pin(cfg.CS); err != nil {
			return err
		}
	}
	for _, m := range []struct {
		dst  *gpio.PinOut
		name string
	}{{&o.Mux.A0, cfg.A0}, {&o.Mux.A1, cfg.A1}, {&o.Mux.A2, cfg.A2}, {&o.Mux.EN, cfg.EN}} {
		if *m.dst, err = pin(m.name); err != nil {
			return err
		}
	}

	dev, err := tcmux.New(p, o)
	if err != nil {
		return err
	}
	defer dev.Halt()

	s := &sampler{r: dev, samples: cfg.Samples, retries: *cfg.Retries, pause: 100 * time.Millisecond}
	failed := 0
	for _, ch := range cfg.Channels {
		r, err := s.median(ch)
		if err != nil {
			log.Printf("%s: %v", cfg.label(ch), err)
			failed++
			continue
		}
		log.Printf("%s: %.2f°C (thermocouple %.2f°C, cold junction %.2f°C)", cfg.label(ch),
			r.Temperature.Celsius(), r.Thermocouple.Celsius(), r.Internal.Celsius())
	}
	if failed == len(cfg.Channels) {
		return errors.New("no channel could be read")
	}
	return nil
}

func pin(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

func main() {
	if err := mainImpl(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
