package core

import "testing"

func TestMovingAverageIsDeterministic(t *testing.T) {
	var a movingAverage

	// Cumulative counter sequence with deltas 10, 20, 30.
	steps := []struct {
		cumulative uint64
		want       uint64
	}{
		{10, 10},  // {10}
		{30, 15},  // {10, 20}
		{60, 20},  // {10, 20, 30}
		{60, 15},  // {10, 20, 30, 0}
		{60, 12},  // {10, 20, 30, 0, 0}
		{110, 20}, // {50, 20, 30, 0, 0} oldest sample replaced
	}
	for i, step := range steps {
		if got := a.update(step.cumulative); got != step.want {
			t.Fatalf("step %d: update(%d) = %d, want %d", i, step.cumulative, got, step.want)
		}
	}
}

func TestMovingAverageConstantRate(t *testing.T) {
	var a movingAverage

	var cumulative uint64
	for i := 0; i < 20; i++ {
		cumulative += 1000
		if got := a.update(cumulative); got != 1000 {
			t.Fatalf("tick %d: rate = %d, want steady 1000", i, got)
		}
	}
}
