package main

import "sort"

// Settle detection for interactive calibration. A knob position counts only
// after the voltage has sat still for several consecutive windows, so quick
// sweeps between positions do not leave phantom breakpoints behind.

// CalibratorConfig tunes settle detection for one channel.
type CalibratorConfig struct {
	// WindowSize is the number of samples in the sliding window.
	WindowSize int

	// SettleThreshold is the maximum voltage range across the window for it
	// to count as settled.
	SettleThreshold float64

	// ClusterTolerance merges settled medians closer than this into one
	// position.
	ClusterTolerance float64

	// ConfirmRequired is the number of consecutive settled windows needed
	// before a position registers.
	ConfirmRequired int
}

func (c *CalibratorConfig) fillDefaults() {
	if c.WindowSize < 3 {
		c.WindowSize = 10
	}
	if c.SettleThreshold <= 0 {
		c.SettleThreshold = 0.02
	}
	if c.ClusterTolerance <= 0 {
		c.ClusterTolerance = 0.05
	}
	if c.ConfirmRequired < 1 {
		c.ConfirmRequired = 3
	}
}

type cluster struct {
	voltage float64
	count   int
}

// ChannelCalibrator accumulates settled positions for one ADC channel.
type ChannelCalibrator struct {
	cfg CalibratorConfig

	window []float64

	consecutive int
	lastMedian  float64
	hasLast     bool

	clusters []cluster
}

func NewChannelCalibrator(cfg CalibratorConfig) *ChannelCalibrator {
	cfg.fillDefaults()
	return &ChannelCalibrator{cfg: cfg}
}

// Push adds a voltage sample and reports whether a position registered on
// this sample, returning the cluster voltage if so.
func (c *ChannelCalibrator) Push(voltage float64) (float64, bool) {
	c.window = append(c.window, voltage)
	if len(c.window) > c.cfg.WindowSize {
		c.window = c.window[1:]
	}
	return c.maybeRegister()
}

// WindowStats returns the median and range of the current window.
func (c *ChannelCalibrator) WindowStats() (med, rng float64, ok bool) {
	if len(c.window) == 0 {
		return 0, 0, false
	}
	mn, mx := c.window[0], c.window[0]
	for _, v := range c.window[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	return median(c.window), mx - mn, true
}

func (c *ChannelCalibrator) maybeRegister() (float64, bool) {
	med, rng, ok := c.WindowStats()
	if !ok {
		return 0, false
	}

	if rng > c.cfg.SettleThreshold {
		c.consecutive = 0
		c.hasLast = false
		return 0, false
	}

	// Settled window. Count it toward confirmation only if the median is
	// still on the same position as the previous settled window.
	if !c.hasLast || abs(c.lastMedian-med) <= c.cfg.ClusterTolerance {
		c.consecutive++
	} else {
		c.consecutive = 1
	}
	c.lastMedian = med
	c.hasLast = true

	if c.consecutive < c.cfg.ConfirmRequired {
		return 0, false
	}
	c.consecutive = 0

	// Merge into an existing cluster with a running average, or start a new
	// one.
	for i := range c.clusters {
		if abs(c.clusters[i].voltage-med) <= c.cfg.ClusterTolerance {
			cl := &c.clusters[i]
			cl.voltage = (cl.voltage*float64(cl.count) + med) / float64(cl.count+1)
			cl.count++
			return cl.voltage, true
		}
	}
	c.clusters = append(c.clusters, cluster{voltage: med, count: 1})
	return med, true
}

// Breakpoints returns the registered position voltages in ascending order.
func (c *ChannelCalibrator) Breakpoints() []float64 {
	out := make([]float64, 0, len(c.clusters))
	for _, cl := range c.clusters {
		out = append(out, cl.voltage)
	}
	sort.Float64s(out)
	return out
}

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return 0.5 * (s[n/2-1] + s[n/2])
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
