package voice

import (
	"math"
	"testing"
)

func TestVolumeMapping(t *testing.T) {
	const tmin, tmax = 300, 10000
	cases := []struct {
		attackTime float64
		want       float64
	}{
		{300, 1.0},
		{10000, 0.1},
		{5150, 0.55}, // midpoint
		{0, 1.0},     // clamped below
		{50000, 0.1}, // clamped above
	}
	for _, tc := range cases {
		got := Volume(tc.attackTime, tmin, tmax)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Volume(%v) = %v, want %v", tc.attackTime, got, tc.want)
		}
	}
}

func TestVolumeMonotonicallyDecreasing(t *testing.T) {
	const tmin, tmax = 300, 10000
	prev := Volume(tmin, tmin, tmax)
	for at := tmin + 100; at <= tmax; at += 100 {
		v := Volume(float64(at), tmin, tmax)
		if v > prev {
			t.Fatalf("Volume(%d) = %v rose above %v", at, v, prev)
		}
		prev = v
	}
}
