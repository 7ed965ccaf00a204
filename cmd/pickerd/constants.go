package main

import "time"

// Daemon defaults. The input-side constants (poll rates, debounce windows,
// momentum thresholds) live next to their components in the input package;
// these are the daemon-level knobs.
const (
	// defaultTickHz is the UI consumer loop frequency. One drain of the
	// rotation queue per tick.
	defaultTickHz = 30

	// Rotary encoder wiring (periph GPIO registry names).
	defaultClkPin = "GPIO17"
	defaultDtPin  = "GPIO18"
	defaultSwPin  = "GPIO27"

	// ADC button channels of the six-knob board, detected by voltage
	// threshold as a fraction of full scale.
	goButtonChannel     = 3
	resetButtonChannel  = 7
	defaultButtonThresh = 0.2

	// E-paper panel geometry (2.13" hat, landscape).
	displayWidth  = 250
	displayHeight = 122

	// Generator defaults (Stable Diffusion web UI API).
	defaultGeneratorTimeout = 30 * time.Second
	defaultGeneratorSteps   = 20
	defaultGeneratorWidth   = 512
	defaultGeneratorHeight  = 512

	// Queue sizing for the rotary event queue.
	defaultQueueCapacity  = 1024
	defaultQueueSoftLimit = 64
)

// knobMenuChannels maps the six menu knobs to ADC channels, in menu order.
// CH3 and CH7 carry the buttons.
var knobMenuChannels = []int{0, 1, 2, 4, 5, 6}
