package input

import "time"

// Two debounce strategies live here:
//
//   - LineDebouncer: sample-count stability, used for the two rotation lines.
//     A short requirement (2 samples at 1 kHz) keeps detent latency low.
//   - ButtonDebouncer: wall-clock stability, used for the pushbutton where a
//     longer 50 ms window is acceptable and more robust.
//
// The two are configured independently; see the poller configs.

// LineDebouncer reports a digital level only after it has been observed for a
// required number of consecutive samples.
type LineDebouncer struct {
	required  int
	stable    bool
	candidate bool
	run       int
}

// NewLineDebouncer seeds the debouncer with the current level.
func NewLineDebouncer(level bool, required int) *LineDebouncer {
	if required < 1 {
		required = 1
	}
	return &LineDebouncer{
		required:  required,
		stable:    level,
		candidate: level,
		run:       required,
	}
}

// Sample feeds one raw reading and returns the current stabilized level.
func (d *LineDebouncer) Sample(raw bool) bool {
	if raw == d.candidate {
		if d.run < d.required {
			d.run++
		}
	} else {
		d.candidate = raw
		d.run = 1
	}
	if d.run >= d.required {
		d.stable = d.candidate
	}
	return d.stable
}

// Edge is a debounced button transition.
type Edge int

const (
	NoEdge Edge = iota
	Pressed
	Released
)

// ButtonDebouncer converts a raw pressed/released level stream into edge
// events. The raw level must remain unchanged for the debounce window,
// continuously since it last changed, before an edge is reported.
//
// Active-low wiring is the caller's concern: normalize the GPIO level to a
// boolean "pressed" before calling Observe.
type ButtonDebouncer struct {
	window    time.Duration
	reported  bool
	raw       bool
	changedAt time.Time
}

// NewButtonDebouncer seeds the debouncer with the current pressed state.
func NewButtonDebouncer(pressed bool, window time.Duration, now time.Time) *ButtonDebouncer {
	return &ButtonDebouncer{
		window:    window,
		reported:  pressed,
		raw:       pressed,
		changedAt: now,
	}
}

// Observe feeds one raw sample at the given time and returns the edge to
// report, if any. Sub-window flicker is absorbed and never surfaces.
func (d *ButtonDebouncer) Observe(pressed bool, now time.Time) Edge {
	if pressed != d.raw {
		d.raw = pressed
		d.changedAt = now
		return NoEdge
	}
	if pressed == d.reported {
		return NoEdge
	}
	if now.Sub(d.changedAt) < d.window {
		return NoEdge
	}
	d.reported = pressed
	if pressed {
		return Pressed
	}
	return Released
}
