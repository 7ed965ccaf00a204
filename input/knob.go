package input

// KnobMapper converts raw analog voltages into stable discrete positions for
// one knob channel.
//
// Hysteresis comes from the midpoint thresholds: in calibrated mode the
// position boundaries sit halfway between consecutive measured breakpoints,
// so a voltage has to cross the midpoint, not merely approach the neighboring
// breakpoint, before the position changes. Jitter near a boundary is further
// suppressed by requiring the same candidate position for a number of
// consecutive samples before it is confirmed.
type KnobMapper struct {
	channel        int
	positions      int
	stableRequired int
	vref           float64

	// midpoints is nil in linear-fallback mode.
	midpoints []float64

	lastRaw   float64
	confirmed int
	candidate int
	run       int
}

// DefaultPositions is the detent count of the picker's 12-position knobs.
const DefaultPositions = 12

// defaultStableRequired is the consecutive-sample count before a candidate
// position is confirmed.
const defaultStableRequired = 3

// NewKnobMapper builds a mapper for one channel. If the profile has no
// breakpoints for the channel (or profile is nil), the mapper falls back to
// uniform linear division of [0, vref] into DefaultPositions positions.
func NewKnobMapper(channel int, profile *CalibrationProfile, stableRequired int) *KnobMapper {
	if stableRequired < 1 {
		stableRequired = defaultStableRequired
	}
	m := &KnobMapper{
		channel:        channel,
		positions:      DefaultPositions,
		stableRequired: stableRequired,
		vref:           DefaultVRef,
	}
	if profile != nil && profile.VRef > 0 {
		m.vref = profile.VRef
	}
	if bps := profile.Breakpoints(channel); len(bps) >= 2 {
		m.positions = len(bps)
		m.midpoints = make([]float64, len(bps)-1)
		for i := 0; i < len(bps)-1; i++ {
			m.midpoints[i] = (bps[i] + bps[i+1]) / 2
		}
	}
	return m
}

// Positions returns the discrete position count for this channel.
func (m *KnobMapper) Positions() int { return m.positions }

// Position returns the last confirmed position.
func (m *KnobMapper) Position() int { return m.confirmed }

// Seed sets the confirmed position from the current voltage without
// debouncing. Called once at startup so the first poll does not report a
// spurious change.
func (m *KnobMapper) Seed(voltage float64) {
	m.confirmed = m.rawPosition(voltage)
	m.candidate = m.confirmed
	m.run = m.stableRequired
	m.lastRaw = voltage
}

// Sample feeds one voltage reading. It returns a PositionChanged event and
// true only when a new position has been confirmed.
func (m *KnobMapper) Sample(voltage float64) (PositionChanged, bool) {
	m.lastRaw = voltage
	pos := m.rawPosition(voltage)

	if pos == m.confirmed {
		m.candidate = pos
		m.run = 0
		return PositionChanged{}, false
	}
	if pos == m.candidate {
		m.run++
	} else {
		m.candidate = pos
		m.run = 1
	}
	if m.run < m.stableRequired {
		return PositionChanged{}, false
	}
	m.confirmed = pos
	m.run = 0
	return PositionChanged{Channel: m.channel, Position: pos}, true
}

// rawPosition maps a voltage to a position with no debounce applied.
func (m *KnobMapper) rawPosition(voltage float64) int {
	if m.midpoints != nil {
		pos := 0
		for _, mid := range m.midpoints {
			if voltage > mid {
				pos++
			}
		}
		return pos
	}

	// Linear fallback: uniform division of the reference voltage.
	norm := voltage / m.vref
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	pos := int(norm * float64(m.positions))
	if pos >= m.positions {
		pos = m.positions - 1
	}
	return pos
}
