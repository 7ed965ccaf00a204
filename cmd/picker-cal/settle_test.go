package main

import (
	"math"
	"testing"
)

func pushRepeated(c *ChannelCalibrator, voltage float64, n int) {
	for i := 0; i < n; i++ {
		c.Push(voltage)
	}
}

// TestChannelCalibrator_RegistersHeldPosition verifies a steady voltage
// registers exactly one breakpoint.
func TestChannelCalibrator_RegistersHeldPosition(t *testing.T) {
	c := NewChannelCalibrator(CalibratorConfig{
		WindowSize:       4,
		SettleThreshold:  0.02,
		ClusterTolerance: 0.05,
		ConfirmRequired:  2,
	})

	pushRepeated(c, 1.0, 10)

	bps := c.Breakpoints()
	if len(bps) != 1 {
		t.Fatalf("got %d breakpoints, want 1: %v", len(bps), bps)
	}
	if math.Abs(bps[0]-1.0) > 1e-9 {
		t.Errorf("breakpoint = %v, want 1.0", bps[0])
	}
}

// TestChannelCalibrator_SweepDoesNotRegister verifies a continuous sweep
// through the range leaves no phantom positions behind.
func TestChannelCalibrator_SweepDoesNotRegister(t *testing.T) {
	c := NewChannelCalibrator(CalibratorConfig{
		WindowSize:       4,
		SettleThreshold:  0.02,
		ClusterTolerance: 0.05,
		ConfirmRequired:  2,
	})

	for v := 0.0; v <= 3.3; v += 0.1 {
		c.Push(v)
	}

	if bps := c.Breakpoints(); len(bps) != 0 {
		t.Errorf("sweep registered %d positions: %v", len(bps), bps)
	}
}

// TestChannelCalibrator_NearbyMediansMergeIntoOneCluster verifies jitter
// within the cluster tolerance averages into a single position.
func TestChannelCalibrator_NearbyMediansMergeIntoOneCluster(t *testing.T) {
	c := NewChannelCalibrator(CalibratorConfig{
		WindowSize:       3,
		SettleThreshold:  0.02,
		ClusterTolerance: 0.05,
		ConfirmRequired:  2,
	})

	pushRepeated(c, 1.00, 6)
	pushRepeated(c, 1.03, 6)

	bps := c.Breakpoints()
	if len(bps) != 1 {
		t.Fatalf("got %d breakpoints, want 1: %v", len(bps), bps)
	}
	if bps[0] < 1.00 || bps[0] > 1.03 {
		t.Errorf("merged breakpoint = %v, want within [1.00, 1.03]", bps[0])
	}
}

// TestChannelCalibrator_DistinctPositionsSorted verifies separate held
// positions come back as sorted breakpoints regardless of visit order.
func TestChannelCalibrator_DistinctPositionsSorted(t *testing.T) {
	c := NewChannelCalibrator(CalibratorConfig{
		WindowSize:       3,
		SettleThreshold:  0.02,
		ClusterTolerance: 0.05,
		ConfirmRequired:  2,
	})

	pushRepeated(c, 2.5, 6)
	pushRepeated(c, 0.5, 6)
	pushRepeated(c, 1.5, 6)

	bps := c.Breakpoints()
	if len(bps) != 3 {
		t.Fatalf("got %d breakpoints, want 3: %v", len(bps), bps)
	}
	want := []float64{0.5, 1.5, 2.5}
	for i, w := range want {
		if math.Abs(bps[i]-w) > 1e-9 {
			t.Errorf("breakpoint[%d] = %v, want %v", i, bps[i], w)
		}
	}
}

// TestChannelCalibrator_ConfirmationRequiresConsecutiveWindows verifies a
// single settled window is not enough when more are required.
func TestChannelCalibrator_ConfirmationRequiresConsecutiveWindows(t *testing.T) {
	c := NewChannelCalibrator(CalibratorConfig{
		WindowSize:       3,
		SettleThreshold:  0.02,
		ClusterTolerance: 0.05,
		ConfirmRequired:  5,
	})

	// Settle briefly, then get knocked loose before confirmation.
	pushRepeated(c, 1.0, 3)
	c.Push(2.0)

	if bps := c.Breakpoints(); len(bps) != 0 {
		t.Errorf("unconfirmed position registered: %v", bps)
	}
}

// TestMedian covers odd, even and empty inputs.
func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{2}, 2},
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		if got := median(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
