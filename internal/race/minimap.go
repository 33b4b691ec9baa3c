package race

// FollowMethod selects how the minimap camera's horizontal position is
// driven.
type FollowMethod int

const (
	FollowNone FollowMethod = iota
	FollowPlayer
	FollowFarthest
)

// Minimap tracks a horizontally scrolling camera over a route category's
// composed width, critically damped via a Lerper so the view doesn't snap
// when its target player changes position or the followed player changes.
type Minimap struct {
	camera *Lerper

	Width      int32
	TotalWidth int32

	FollowMethod FollowMethod
	PlayerID     uint32
}

// NewMinimap returns a Minimap sized to width within a route category
// composed to totalWidth, with the given Lerper tuning for camera motion.
func NewMinimap(width, totalWidth int32, acceleration, dampen, maxVelocity float64) *Minimap {
	return &Minimap{
		camera:     NewLerper(acceleration, dampen, maxVelocity, 0),
		Width:      width,
		TotalWidth: totalWidth,
	}
}

// Step retargets the camera per FollowMethod, advances it one tick, and
// returns the animated left-edge x position clamped to the composed route
// width.
func (m *Minimap) Step(categoryXByPlayer map[uint32]int32) float64 {
	var target int32
	switch m.FollowMethod {
	case FollowPlayer:
		target = categoryXByPlayer[m.PlayerID]
	case FollowFarthest:
		for _, x := range categoryXByPlayer {
			if x > target {
				target = x
			}
		}
	case FollowNone:
		target = int32(m.camera.Target) + m.Width/2
	}

	desired := float64(target) - float64(m.Width)/2
	maxLeft := float64(m.TotalWidth - m.Width)
	if maxLeft < 0 {
		maxLeft = 0
	}
	if desired < 0 {
		desired = 0
	}
	if desired > maxLeft {
		desired = maxLeft
	}

	m.camera.Target = desired
	m.camera.Step()
	return m.camera.Position
}

// smartSwitchFrames is the default hysteresis countdown: how many
// consecutive steps a new candidate must lead by before the combined view
// actually switches to them, so a brief lead change (e.g. crossing pipes)
// doesn't cause visible flicker.
const smartSwitchFrames = 40

// smartSwitchSectionCrossingDivisor shortens the countdown when the
// candidate has moved into a different route section than the current
// leader -- a section change is a stronger signal of a genuine lead change
// than a same-section x-position wobble, so it's allowed to win faster.
const smartSwitchSectionCrossingDivisor = 4

// CombinedView auto-selects which single player's feed to show in a
// combined view, hysteresis-gated against rapid lead changes.
type CombinedView struct {
	FollowSmart bool

	current        uint32
	currentSection int
	haveCurrent    bool
	candidate      uint32
	candidateCount int
}

// SetManual disables FollowSmart autoselection and pins the view to a
// specific player.
func (c *CombinedView) SetManual(playerID uint32) {
	c.FollowSmart = false
	c.current = playerID
	c.haveCurrent = true
}

// Step feeds the current frontrunner (usually the minimap's FollowFarthest
// candidate) and the route section they're in through the hysteresis gate,
// returning the player the combined view should currently show.
func (c *CombinedView) Step(frontrunner uint32, frontrunnerSection int) uint32 {
	if !c.FollowSmart {
		return c.current
	}
	if !c.haveCurrent {
		c.current = frontrunner
		c.currentSection = frontrunnerSection
		c.haveCurrent = true
		return c.current
	}
	if frontrunner == c.current {
		c.candidateCount = 0
		c.currentSection = frontrunnerSection
		return c.current
	}

	threshold := smartSwitchFrames
	if frontrunnerSection != c.currentSection {
		threshold = smartSwitchFrames / smartSwitchSectionCrossingDivisor
	}

	if frontrunner == c.candidate {
		c.candidateCount++
	} else {
		c.candidate = frontrunner
		c.candidateCount = 1
	}
	if c.candidateCount >= threshold {
		c.current = c.candidate
		c.currentSection = frontrunnerSection
		c.candidateCount = 0
	}
	return c.current
}
