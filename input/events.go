package input

// Events produced by the pollers.
//
// Rotary events are edge-shaped and travel through a Queue to the UI-tick
// consumer. Knob position changes are level-shaped: the knob poller reports
// them directly through a callback, no queue in between.

// Event is the closed set of low-level rotary input events.
type Event interface {
	eventMarker()
}

// Rotate is a single quadrature detent. Delta is +1 for clockwise,
// -1 for counter-clockwise.
type Rotate struct {
	Delta int
}

func (Rotate) eventMarker() {}

// ButtonDown is a debounced press edge of the encoder pushbutton.
type ButtonDown struct{}

func (ButtonDown) eventMarker() {}

// ButtonUp is a debounced release edge. Recorded by the consumer but does not
// drive navigation.
type ButtonUp struct{}

func (ButtonUp) eventMarker() {}

// PositionChanged is a confirmed discrete position change of an analog knob
// channel. Position is in [0, positions-1].
type PositionChanged struct {
	Channel  int
	Position int
}
