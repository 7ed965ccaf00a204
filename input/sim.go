package input

import "sync"

// Simulated signal sources. They satisfy the same interfaces as the hardware
// types, so the pollers run unmodified against them and tests stay free of
// real-clock and GPIO dependencies.

// SimulatedADC is an in-memory stand-in for the MCP3008.
type SimulatedADC struct {
	mu       sync.Mutex
	channels [8]int
}

// NewSimulatedADC returns a simulator with all channels at zero.
func NewSimulatedADC() *SimulatedADC {
	return &SimulatedADC{}
}

// Set updates a channel's raw count, clamped to the 10-bit range.
func (s *SimulatedADC) Set(channel, counts int) {
	if channel < 0 || channel > 7 {
		return
	}
	if counts < 0 {
		counts = 0
	}
	if counts > mcp3008MaxCount {
		counts = mcp3008MaxCount
	}
	s.mu.Lock()
	s.channels[channel] = counts
	s.mu.Unlock()
}

// SetVoltage updates a channel from a voltage against vref.
func (s *SimulatedADC) SetVoltage(channel int, voltage, vref float64) {
	s.Set(channel, int(voltage/vref*mcp3008MaxCount+0.5))
}

// Read returns the channel's current count.
func (s *SimulatedADC) Read(channel int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel > 7 {
		return 0, nil
	}
	return s.channels[channel], nil
}

// SimPin is a settable digital line implementing PinReader.
type SimPin struct {
	mu    sync.Mutex
	level bool
}

// NewSimPin returns a pin at the given level.
func NewSimPin(level bool) *SimPin {
	return &SimPin{level: level}
}

// Set drives the line.
func (p *SimPin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

// Read returns the current line level.
func (p *SimPin) Read() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// SimulatedEncoder injects already-decoded rotary events straight into a
// queue, bypassing the quadrature layer. Useful for driving the coalescer and
// the navigation machine deterministically.
type SimulatedEncoder struct {
	queue *Queue
}

// NewSimulatedEncoder wraps a queue.
func NewSimulatedEncoder(q *Queue) *SimulatedEncoder {
	return &SimulatedEncoder{queue: q}
}

// Rotate injects delta detents; positive is clockwise. Each unit becomes one
// Rotate event, matching the hardware poller's output shape.
func (e *SimulatedEncoder) Rotate(delta int) {
	step := 1
	if delta < 0 {
		step = -1
		delta = -delta
	}
	for i := 0; i < delta; i++ {
		e.queue.Push(Rotate{Delta: step})
	}
}

// Button injects a press (true) or release (false) edge.
func (e *SimulatedEncoder) Button(pressed bool) {
	if pressed {
		e.queue.Push(ButtonDown{})
	} else {
		e.queue.Push(ButtonUp{})
	}
}
