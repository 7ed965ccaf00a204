package input

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// PinReader abstracts one digital input line. true is electrical high.
type PinReader interface {
	Read() bool
}

// gpioPin adapts a periph pin to PinReader.
type gpioPin struct {
	pin gpio.PinIn
}

func (p gpioPin) Read() bool {
	return p.pin.Read() == gpio.High
}

// OpenRotaryPins configures the three encoder lines (CLK, DT, SW) as pulled-up
// inputs and returns them as PinReaders. Pin names are periph registry names,
// e.g. "GPIO17". The encoder wires directly with its five leads; the internal
// pull-ups make external resistors unnecessary.
func OpenRotaryPins(clk, dt, sw string) (PinReader, PinReader, PinReader, error) {
	open := func(name string) (gpio.PinIn, error) {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("gpio pin %q not found", name)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %q as pulled-up input: %w", name, err)
		}
		return pin, nil
	}

	clkPin, err := open(clk)
	if err != nil {
		return nil, nil, nil, err
	}
	dtPin, err := open(dt)
	if err != nil {
		return nil, nil, nil, err
	}
	swPin, err := open(sw)
	if err != nil {
		return nil, nil, nil, err
	}
	return gpioPin{clkPin}, gpioPin{dtPin}, gpioPin{swPin}, nil
}

// RotaryPollerConfig tunes the fixed-rate GPIO sampling loop.
type RotaryPollerConfig struct {
	// PollHz is the sample rate. 1 kHz catches every detent without
	// noticeable CPU load on a Pi.
	PollHz int

	// LineStableSamples is the consecutive-sample requirement for the two
	// rotation lines. Kept short for latency; the quadrature table rejects
	// whatever bounce slips through.
	LineStableSamples int

	// ButtonWindow is the wall-clock debounce for the pushbutton.
	ButtonWindow time.Duration
}

func (c *RotaryPollerConfig) fillDefaults() {
	if c.PollHz <= 0 {
		c.PollHz = 1000
	}
	if c.LineStableSamples <= 0 {
		c.LineStableSamples = 2
	}
	if c.ButtonWindow <= 0 {
		c.ButtonWindow = 50 * time.Millisecond
	}
}

// RotaryPoller samples the encoder lines on its own schedule and pushes
// decoded events into the shared queue. It owns its pins exclusively and
// shares nothing with other pollers except the queue.
type RotaryPoller struct {
	clk, dt, sw PinReader
	queue       *Queue
	cfg         RotaryPollerConfig
	logger      *slog.Logger

	dec    *QuadratureDecoder
	clkDeb *LineDebouncer
	dtDeb  *LineDebouncer
	swDeb  *ButtonDebouncer
}

// NewRotaryPoller seeds decoder and debouncers from the current line levels.
// The SW line is active-low: pressed reads electrical low.
func NewRotaryPoller(clk, dt, sw PinReader, q *Queue, cfg RotaryPollerConfig, logger *slog.Logger) *RotaryPoller {
	cfg.fillDefaults()

	a := clk.Read()
	b := dt.Read()
	pressed := !sw.Read()

	return &RotaryPoller{
		clk:    clk,
		dt:     dt,
		sw:     sw,
		queue:  q,
		cfg:    cfg,
		logger: logger,
		dec:    NewQuadratureDecoder(a, b),
		clkDeb: NewLineDebouncer(a, cfg.LineStableSamples),
		dtDeb:  NewLineDebouncer(b, cfg.LineStableSamples),
		swDeb:  NewButtonDebouncer(pressed, cfg.ButtonWindow, time.Now()),
	}
}

// Run samples at the configured rate until ctx is canceled. It never blocks
// on the consumer; events go into the bounded queue.
func (p *RotaryPoller) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(p.cfg.PollHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("rotary poller started", "poll_hz", p.cfg.PollHz,
		"line_stable_samples", p.cfg.LineStableSamples,
		"button_window", p.cfg.ButtonWindow)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("rotary poller stopping")
			return ctx.Err()
		case now := <-ticker.C:
			p.sample(now)
		}
	}
}

// sample runs one polling tick. Split out for tests.
func (p *RotaryPoller) sample(now time.Time) {
	a := p.clkDeb.Sample(p.clk.Read())
	b := p.dtDeb.Sample(p.dt.Read())
	if delta := p.dec.Step(a, b); delta != 0 {
		if !p.queue.Push(Rotate{Delta: delta}) {
			p.logger.Warn("rotary queue full, detent dropped")
		}
	}

	switch p.swDeb.Observe(!p.sw.Read(), now) {
	case Pressed:
		p.queue.Push(ButtonDown{})
	case Released:
		p.queue.Push(ButtonUp{})
	}
}
