package input

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// CalibrationProfile holds the measured per-channel breakpoint voltages
// produced by picker-cal. It is loaded once at startup and read-only
// afterwards, so the polling goroutine may read it without synchronization.
//
// A channel absent from the profile falls back to uniform linear mapping
// across the reference voltage.
type CalibrationProfile struct {
	// VRef is the ADC reference voltage in volts.
	VRef float64 `yaml:"vref"`

	// Channels maps an ADC channel index to its ordered breakpoint voltages,
	// one per detent position, strictly increasing.
	Channels map[int][]float64 `yaml:"channels"`
}

// DefaultVRef is the MCP3008 reference voltage on the picker board.
const DefaultVRef = 3.3

// LoadCalibrationFile reads and validates a YAML calibration profile.
func LoadCalibrationFile(path string) (*CalibrationProfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}
	var p CalibrationProfile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode calibration yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteFile saves the profile as YAML. Used by picker-cal.
func (p *CalibrationProfile) WriteFile(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode calibration yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write calibration file: %w", err)
	}
	return nil
}

// Validate checks profile invariants: a positive reference voltage and, per
// channel, at least two strictly increasing breakpoints within [0, VRef].
func (p *CalibrationProfile) Validate() error {
	if p.VRef <= 0 {
		return fmt.Errorf("calibration: vref must be > 0, got %g", p.VRef)
	}
	for ch, bps := range p.Channels {
		if len(bps) < 2 {
			return fmt.Errorf("calibration: channel %d has %d breakpoints, need at least 2", ch, len(bps))
		}
		if !sort.Float64sAreSorted(bps) {
			return fmt.Errorf("calibration: channel %d breakpoints are not sorted", ch)
		}
		for i := 1; i < len(bps); i++ {
			if bps[i] <= bps[i-1] {
				return fmt.Errorf("calibration: channel %d breakpoints not strictly increasing at index %d", ch, i)
			}
		}
		if bps[0] < 0 || bps[len(bps)-1] > p.VRef {
			return fmt.Errorf("calibration: channel %d breakpoints outside [0, %g]", ch, p.VRef)
		}
	}
	return nil
}

// Breakpoints returns the breakpoints for a channel, or nil if the channel is
// uncalibrated.
func (p *CalibrationProfile) Breakpoints(ch int) []float64 {
	if p == nil {
		return nil
	}
	return p.Channels[ch]
}
