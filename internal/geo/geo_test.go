package geo

import "testing"

func TestDistanceSymmetric(t *testing.T) {
	a := Distance(37.7749, -122.4194, 37.7849, -122.4094)
	b := Distance(37.7849, -122.4094, 37.7749, -122.4194)
	if a != b {
		t.Fatalf("distance not symmetric: %d vs %d", a, b)
	}
}

func TestDistanceSamePoint(t *testing.T) {
	if d := Distance(51.5074, -0.1278, 51.5074, -0.1278); d != 0 {
		t.Fatalf("expected 0 for identical points, got %d", d)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Paris to London, roughly 343 km great-circle.
	d := Distance(48.8566, 2.3522, 51.5074, -0.1278)
	if d < 340000 || d > 346000 {
		t.Fatalf("Paris-London distance out of range: %d", d)
	}
}

func TestFormatDistanceZero(t *testing.T) {
	if got := FormatDistance(0); got != "0 m" {
		t.Fatalf("expected \"0 m\", got %q", got)
	}
}

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		meters int
		want   string
	}{
		{420, "420 m"},
		{999, "999 m"},
		{1000, "1.0 km"},
		{1550, "1.6 km"},
	}
	for _, c := range cases {
		if got := FormatDistance(c.meters); got != c.want {
			t.Fatalf("FormatDistance(%d) = %q, want %q", c.meters, got, c.want)
		}
	}
}

func TestWalkingTime(t *testing.T) {
	cases := []struct {
		meters int
		want   string
	}{
		{0, "1 min walk"},
		{400, "5 min walk"},
		{4720, "59 min walk"},
		{4800, "1 h walk"},
		{4880, "1 h 1 min walk"},
		{9600, "2 h walk"},
	}
	for _, c := range cases {
		if got := WalkingTime(c.meters); got != c.want {
			t.Fatalf("WalkingTime(%d) = %q, want %q", c.meters, got, c.want)
		}
	}
}
