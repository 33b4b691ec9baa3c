package race

import "testing"

func TestLerperConvergesTowardTarget(t *testing.T) {
	l := NewLerper(0.3, 0.2, 100, 0)
	l.Target = 50

	for i := 0; i < 200; i++ {
		l.Step()
	}
	if diff := l.Target - l.Position; diff > 0.5 || diff < -0.5 {
		t.Fatalf("Position = %f after 200 steps, want close to %f", l.Position, l.Target)
	}
}

func TestLerperClampsToMaxVelocity(t *testing.T) {
	l := NewLerper(1, 0, 1, 0)
	l.Target = 1000
	l.Step()
	if l.Position > 1.0001 {
		t.Fatalf("Position after one step = %f, should be bounded by MaxVelocity", l.Position)
	}
}

func TestLerperStartsAtTarget(t *testing.T) {
	l := NewLerper(0.5, 0.1, 10, 42)
	if l.Position != 42 || l.Target != 42 {
		t.Fatalf("NewLerper should start at rest on its initial target, got %+v", l)
	}
}
