package input

// Alternative rotary source: the kernel's gpio-rotary-encoder and gpio-keys
// overlays expose the encoder as /dev/input/event* devices. The kernel driver
// already performs quadrature decoding and contact debounce, so this source
// translates events straight into the queue.

// Linux input event types and codes (from <linux/input.h>).
const (
	evKey = 0x01
	evRel = 0x02

	// relX is the axis the gpio-rotary-encoder overlay reports on unless the
	// device tree overrides linux,axis.
	relX = 0x00

	// relDial is the conventional axis for dedicated dial hardware.
	relDial = 0x07

	// keyEnter is the default keycode for the pushbutton via gpio-keys.
	keyEnter = 28
)

// Input event value constants for EV_KEY.
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// inputEvent mirrors struct input_event on 64-bit Linux:
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// EvdevConfig selects which event codes carry rotation and the button. The
// zero RelCode is REL_X, which is also the kernel driver's default axis, so
// code 0 needs no special casing. A zero KeyCode stands in for KEY_ENTER;
// code 0 is KEY_RESERVED and never carries a real button.
type EvdevConfig struct {
	RelCode uint16
	KeyCode uint16
}

func (c *EvdevConfig) fillDefaults() {
	if c.KeyCode == 0 {
		c.KeyCode = keyEnter
	}
}

// translateInputEvent converts one kernel event into queue events. A relative
// movement of magnitude n becomes n single-step Rotate events so the consumer
// sees the same shape as from the GPIO poller. Key repeats are ignored; the
// navigation machine only acts on the press edge.
func translateInputEvent(ev inputEvent, cfg EvdevConfig, q *Queue) {
	switch ev.Type {
	case evRel:
		if ev.Code != cfg.RelCode || ev.Value == 0 {
			return
		}
		step := 1
		n := int(ev.Value)
		if n < 0 {
			step = -1
			n = -n
		}
		for i := 0; i < n; i++ {
			q.Push(Rotate{Delta: step})
		}
	case evKey:
		if ev.Code != cfg.KeyCode {
			return
		}
		switch ev.Value {
		case evValuePress:
			q.Push(ButtonDown{})
		case evValueRelease:
			q.Push(ButtonUp{})
		}
	}
}
