package race

// Lerper critically-damps a scalar toward a target: acceleration pulls the
// value toward Target, DampenAmount bleeds off velocity each step, and the
// last 4 velocities are averaged before being applied, smoothing out the
// single-step jitter a live position feed produces.
type Lerper struct {
	Position float64
	Target   float64

	lastVelocity [4]float64

	Acceleration float64
	DampenAmount float64
	MaxVelocity  float64
}

// NewLerper returns a Lerper with the given tuning parameters, positioned at
// target.
func NewLerper(acceleration, dampenAmount, maxVelocity, target float64) *Lerper {
	return &Lerper{
		Position:     target,
		Target:       target,
		Acceleration: acceleration,
		DampenAmount: dampenAmount,
		MaxVelocity:  maxVelocity,
	}
}

// Step advances Position one tick toward Target.
func (l *Lerper) Step() {
	delta := l.Target - l.Position
	velocity := delta * l.Acceleration

	if velocity > l.MaxVelocity {
		velocity = l.MaxVelocity
	} else if velocity < -l.MaxVelocity {
		velocity = -l.MaxVelocity
	}

	l.lastVelocity[0], l.lastVelocity[1], l.lastVelocity[2], l.lastVelocity[3] =
		velocity, l.lastVelocity[0], l.lastVelocity[1], l.lastVelocity[2]

	avg := (l.lastVelocity[0] + l.lastVelocity[1] + l.lastVelocity[2] + l.lastVelocity[3]) / 4
	avg *= 1 - l.DampenAmount

	l.Position += avg
}
