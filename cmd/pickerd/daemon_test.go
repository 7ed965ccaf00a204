package main

import (
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"picker/input"
	"picker/menu"
)

// frameRecorder is a Renderer double that counts frames instead of drawing.
type frameRecorder struct {
	frames []*image.Gray
}

func (r *frameRecorder) Render(frame *image.Gray) error {
	r.frames = append(r.frames, frame)
	return nil
}

func (r *frameRecorder) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMenus() []menu.Definition {
	return []menu.Definition{
		{Title: "Age", Values: []string{"Young", "Adult", "Senior"}},
		{Title: "Mood", Values: []string{"Calm", "Wild"}},
	}
}

// newTestDaemon builds a daemon on simulated input with a recording renderer.
// The websocket hub is left nil; broadcasts are skipped.
func newTestDaemon(t *testing.T, mutate func(*Config)) (*Daemon, *frameRecorder) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Input.Mode = "sim"
	cfg.Display.Mode = "log"
	if mutate != nil {
		mutate(&cfg)
	}

	rec := &frameRecorder{}
	q := input.NewQueue(defaultQueueCapacity, defaultQueueSoftLimit)
	d, err := NewDaemon(cfg, testMenus(), q, rec, nil, discardLogger())
	if err != nil {
		t.Fatalf("NewDaemon failed: %v", err)
	}
	return d, rec
}

// TestDaemon_RotateCommandMovesCursor verifies injected detents travel
// through the queue and coalescer into cursor movement.
func TestDaemon_RotateCommandMovesCursor(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	now := time.Now()

	// Default detents_per_item is 2, so two detents move one item.
	d.Commands() <- CmdRotate{Delta: 2}
	d.tick(now)

	snap := d.snapshot()
	if snap.Cursor != 1 {
		t.Errorf("cursor = %d after 2 detents, want 1", snap.Cursor)
	}
	if snap.Mode != "top" {
		t.Errorf("mode = %q, want top", snap.Mode)
	}
}

// TestDaemon_RemainderCarriesToNextTick verifies an odd detent count leaves
// the leftover pending instead of dropping it.
func TestDaemon_RemainderCarriesToNextTick(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	now := time.Now()

	d.Commands() <- CmdRotate{Delta: 3}
	d.tick(now)
	if got := d.snapshot().Cursor; got != 1 {
		t.Fatalf("cursor = %d after 3 detents, want 1", got)
	}

	d.Commands() <- CmdRotate{Delta: 1}
	d.tick(now.Add(33 * time.Millisecond))
	if got := d.snapshot().Cursor; got != 2 {
		t.Errorf("cursor = %d after 4 detents total, want 2", got)
	}
}

// TestDaemon_PressCommandEntersSubmenu verifies an injected press opens the
// submenu under the cursor.
func TestDaemon_PressCommandEntersSubmenu(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	now := time.Now()

	d.Commands() <- CmdRotate{Delta: 2}
	d.tick(now)
	d.Commands() <- CmdPress{}
	d.tick(now.Add(33 * time.Millisecond))

	snap := d.snapshot()
	if snap.Mode != "submenu" {
		t.Fatalf("mode = %q after press on menu entry, want submenu", snap.Mode)
	}
	if snap.Title != "Age" {
		t.Errorf("title = %q, want Age", snap.Title)
	}
}

// TestDaemon_SelectionsCommandRepliesCommittedValues drives a full
// select-and-return pass and reads the result back over the command channel.
func TestDaemon_SelectionsCommandRepliesCommittedValues(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	now := time.Now()

	// Cursor to Age, enter, cursor to Adult, commit.
	d.Commands() <- CmdRotate{Delta: 2}
	d.Commands() <- CmdPress{}
	d.tick(now)

	// Inside the submenu the snap cursor sits one past the saved blank, on
	// the trailing blank slot. Three steps back reaches Adult.
	d.Commands() <- CmdRotate{Delta: -4}
	d.tick(now.Add(33 * time.Millisecond))
	d.Commands() <- CmdPress{}
	d.tick(now.Add(66 * time.Millisecond))

	reply := make(chan map[string]string, 1)
	d.Commands() <- CmdSelections{Reply: reply}
	d.tick(now.Add(99 * time.Millisecond))

	select {
	case sel := <-reply:
		if sel["Age"] != "Adult" {
			t.Errorf("Age selection = %q, want Adult", sel["Age"])
		}
		if sel["Mood"] != "" {
			t.Errorf("Mood selection = %q, want blank", sel["Mood"])
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for selections reply")
	}
}

// TestDaemon_KnobChangeCommitsSelection verifies a confirmed knob position
// lands as a committed selection for the mapped menu.
func TestDaemon_KnobChangeCommitsSelection(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	now := time.Now()

	// Channel 1 maps to the second menu (Mood); position 1 is "Wild".
	d.KnobChanges() <- input.PositionChanged{Channel: 1, Position: 1}
	d.tick(now)

	snap := d.snapshot()
	if snap.Selections["Mood"] != "Wild" {
		t.Errorf("Mood selection = %q after knob change, want Wild", snap.Selections["Mood"])
	}
}

// TestDaemon_KnobChangeOnUnmappedChannelIgnored verifies channels beyond the
// loaded menus are dropped without effect.
func TestDaemon_KnobChangeOnUnmappedChannelIgnored(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	now := time.Now()

	// Channel 4 maps to menu index 3; only two menus are loaded.
	d.KnobChanges() <- input.PositionChanged{Channel: 4, Position: 1}
	d.tick(now)

	for title, v := range d.snapshot().Selections {
		if v != "" {
			t.Errorf("selection %q = %q, want all blank", title, v)
		}
	}
}

// TestDaemon_ADCButtonsFireGo verifies the debounced Go channel press renders
// the action screen and then restores the menu.
func TestDaemon_ADCButtonsFireGo(t *testing.T) {
	d, rec := newTestDaemon(t, nil)
	now := time.Now()

	adc := input.NewSimulatedADC()
	d.AttachADCButtons(adc, defaultButtonThresh)

	d.tick(now)
	before := len(rec.frames)

	// Drive the Go channel above threshold and hold through the debounce
	// window.
	adc.Set(goButtonChannel, 1023)
	d.tick(now.Add(10 * time.Millisecond))
	d.tick(now.Add(70 * time.Millisecond))

	// The press renders the GO screen and queues a menu redisplay on the
	// same tick.
	if got := len(rec.frames) - before; got < 2 {
		t.Errorf("got %d frames after Go press, want >= 2", got)
	}

	// Holding must not re-fire.
	after := len(rec.frames)
	d.tick(now.Add(140 * time.Millisecond))
	if len(rec.frames) != after {
		t.Errorf("held button re-fired: %d new frames", len(rec.frames)-after)
	}
}

// TestDaemon_IdleTimeoutShowsPromptScreen verifies expiry of the idle timer
// renders the prompt screen once.
func TestDaemon_IdleTimeoutShowsPromptScreen(t *testing.T) {
	d, rec := newTestDaemon(t, nil)
	now := time.Now()

	d.tick(now)
	before := len(rec.frames)

	d.tick(now.Add(4 * time.Second))
	if len(rec.frames) == before {
		t.Fatalf("no frame rendered on idle timeout")
	}

	// A second idle tick must not render again.
	after := len(rec.frames)
	d.tick(now.Add(8 * time.Second))
	if len(rec.frames) != after {
		t.Errorf("idle timeout re-fired: %d new frames", len(rec.frames)-after)
	}
}
