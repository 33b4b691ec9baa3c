package smb

// IsStartOfRun reports whether a frame matches the fixed 1-1 start
// signature: standing near the left edge of the overworld 1-1 area with the
// in-game timer freshly initialized to 399 or 400. Both the timing state
// machine (route-agnostic "Running" transition) and the userM2
// start-detection heuristic key off this exact condition.
func IsStartOfRun(aid AreaID, apx int32, t int32) bool {
	return aid == GroundArea6 && apx < 15 && (t == 399 || t == 400)
}

// StartDetector converts an absolute m2 cycle count into the worker-local
// "userM2" relative counter: 0 until the fixed 1-1 start signature is first
// observed, then m2 minus the m2 of that first frame from then on.
type StartDetector struct {
	started bool
	startM2 uint64
}

// Observe folds one frame's (aid, apx, time, m2) into the detector and
// returns the userM2 value for that frame.
func (d *StartDetector) Observe(aid AreaID, apx int32, t int32, m2 uint64) uint64 {
	if !d.started && IsStartOfRun(aid, apx, t) {
		d.started = true
		d.startM2 = m2
	}
	if !d.started {
		return 0
	}
	return m2 - d.startM2
}

// Reset returns the detector to its pre-start state, e.g. after an RstLow.
func (d *StartDetector) Reset() {
	d.started = false
	d.startM2 = 0
}
