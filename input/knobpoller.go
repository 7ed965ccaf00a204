package input

import (
	"context"
	"log/slog"
	"time"
)

// KnobPollerConfig tunes the analog sampling loop.
type KnobPollerConfig struct {
	// PollHz is the ADC sample rate per channel. 60-120 Hz is plenty for a
	// hand-turned knob; the default is 80.
	PollHz int

	// Channels lists the ADC channels carrying knobs.
	Channels []int

	// StableRequired is the consecutive-sample debounce for position changes.
	StableRequired int
}

func (c *KnobPollerConfig) fillDefaults() {
	if c.PollHz <= 0 {
		c.PollHz = 80
	}
	if c.StableRequired <= 0 {
		c.StableRequired = defaultStableRequired
	}
}

// KnobPoller samples each knob channel at a fixed rate and reports confirmed
// position changes through a callback. Knob state is level-based, so no queue
// sits between poller and consumer; the latest confirmed position is always
// the whole truth.
type KnobPoller struct {
	adc      ADCReader
	vref     float64
	cfg      KnobPollerConfig
	mappers  map[int]*KnobMapper
	onChange func(PositionChanged)
	logger   *slog.Logger

	// seeded tracks, per channel, whether the first good read has primed the
	// mapper. A read error on startup must not leave a channel confirmed at
	// position zero.
	seeded map[int]bool
}

// NewKnobPoller builds one mapper per configured channel from the calibration
// profile (nil profile means linear fallback everywhere).
func NewKnobPoller(adc ADCReader, profile *CalibrationProfile, cfg KnobPollerConfig, onChange func(PositionChanged), logger *slog.Logger) *KnobPoller {
	cfg.fillDefaults()

	vref := DefaultVRef
	if profile != nil && profile.VRef > 0 {
		vref = profile.VRef
	}

	mappers := make(map[int]*KnobMapper, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		mappers[ch] = NewKnobMapper(ch, profile, cfg.StableRequired)
	}

	return &KnobPoller{
		adc:      adc,
		vref:     vref,
		cfg:      cfg,
		mappers:  mappers,
		onChange: onChange,
		logger:   logger,
		seeded:   make(map[int]bool, len(cfg.Channels)),
	}
}

// Mapper exposes a channel's mapper, mainly for startup seeding and tests.
func (p *KnobPoller) Mapper(ch int) *KnobMapper {
	return p.mappers[ch]
}

// Positions returns the current confirmed position of every channel.
func (p *KnobPoller) Positions() map[int]int {
	out := make(map[int]int, len(p.mappers))
	for ch, m := range p.mappers {
		out[ch] = m.Position()
	}
	return out
}

// Run samples until ctx is canceled. The first pass seeds the mappers so
// startup does not emit a change for every knob.
func (p *KnobPoller) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(p.cfg.PollHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("knob poller started", "poll_hz", p.cfg.PollHz, "channels", p.cfg.Channels)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("knob poller stopping")
			return ctx.Err()
		case <-ticker.C:
			p.sampleAll()
		}
	}
}

// sampleAll runs one polling pass over every channel. Split out for tests.
func (p *KnobPoller) sampleAll() {
	for _, ch := range p.cfg.Channels {
		counts, err := p.adc.Read(ch)
		if err != nil {
			p.logger.Warn("adc read failed", "channel", ch, "error", err)
			continue
		}
		voltage := CountsToVoltage(counts, p.vref)
		m := p.mappers[ch]
		if !p.seeded[ch] {
			m.Seed(voltage)
			p.seeded[ch] = true
			continue
		}
		if ev, changed := m.Sample(voltage); changed {
			p.onChange(ev)
		}
	}
}
