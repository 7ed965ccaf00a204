package input

import "testing"

// TestTranslateInputEvent_RelativeMovement verifies an EV_REL event of
// magnitude n becomes n unit detents of the right sign, and that the default
// configuration listens on REL_X as the kernel rotary driver emits it.
func TestTranslateInputEvent_RelativeMovement(t *testing.T) {
	var cfg EvdevConfig
	cfg.fillDefaults()
	q := NewQueue(16, 8)

	translateInputEvent(inputEvent{Type: evRel, Code: relX, Value: 3}, cfg, q)
	evs := q.Drain()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	for i, ev := range evs {
		if r, ok := ev.(Rotate); !ok || r.Delta != 1 {
			t.Errorf("event %d: expected Rotate(+1), got %#v", i, ev)
		}
	}

	translateInputEvent(inputEvent{Type: evRel, Code: relX, Value: -2}, cfg, q)
	evs = q.Drain()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	for i, ev := range evs {
		if r, ok := ev.(Rotate); !ok || r.Delta != -1 {
			t.Errorf("event %d: expected Rotate(-1), got %#v", i, ev)
		}
	}
}

// TestTranslateInputEvent_ConfiguredAxis verifies a nonzero rel code routes
// that axis and silences REL_X.
func TestTranslateInputEvent_ConfiguredAxis(t *testing.T) {
	cfg := EvdevConfig{RelCode: relDial}
	cfg.fillDefaults()
	q := NewQueue(16, 8)

	translateInputEvent(inputEvent{Type: evRel, Code: relX, Value: 2}, cfg, q)
	if evs := q.Drain(); len(evs) != 0 {
		t.Fatalf("REL_X leaked through a REL_DIAL config: %d events", len(evs))
	}

	translateInputEvent(inputEvent{Type: evRel, Code: relDial, Value: 1}, cfg, q)
	evs := q.Drain()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if r, ok := evs[0].(Rotate); !ok || r.Delta != 1 {
		t.Errorf("expected Rotate(+1), got %#v", evs[0])
	}
}

// TestTranslateInputEvent_KeyEdges verifies press and release map to button
// events and autorepeat is dropped.
func TestTranslateInputEvent_KeyEdges(t *testing.T) {
	var cfg EvdevConfig
	cfg.fillDefaults()
	q := NewQueue(16, 8)

	translateInputEvent(inputEvent{Type: evKey, Code: keyEnter, Value: evValuePress}, cfg, q)
	translateInputEvent(inputEvent{Type: evKey, Code: keyEnter, Value: evValueRepeat}, cfg, q)
	translateInputEvent(inputEvent{Type: evKey, Code: keyEnter, Value: evValueRelease}, cfg, q)

	evs := q.Drain()
	if len(evs) != 2 {
		t.Fatalf("expected press and release, got %d events", len(evs))
	}
	if _, ok := evs[0].(ButtonDown); !ok {
		t.Errorf("expected ButtonDown, got %#v", evs[0])
	}
	if _, ok := evs[1].(ButtonUp); !ok {
		t.Errorf("expected ButtonUp, got %#v", evs[1])
	}
}

// TestTranslateInputEvent_IgnoresOtherCodes verifies unrelated axes and keys
// are dropped.
func TestTranslateInputEvent_IgnoresOtherCodes(t *testing.T) {
	cfg := EvdevConfig{RelCode: relDial, KeyCode: keyEnter}
	q := NewQueue(16, 8)

	translateInputEvent(inputEvent{Type: evRel, Code: 0x00, Value: 5}, cfg, q)
	translateInputEvent(inputEvent{Type: evKey, Code: 30, Value: evValuePress}, cfg, q)
	translateInputEvent(inputEvent{Type: 0x00, Code: 0, Value: 0}, cfg, q)

	if evs := q.Drain(); len(evs) != 0 {
		t.Errorf("unrelated events leaked: %d queued", len(evs))
	}
}
