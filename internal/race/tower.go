package race

import "sort"

// TowerYSpacing is the pixel spacing between consecutive timing tower rows,
// before any display scaling.
const TowerYSpacing = 12

// m2ClockHz is the NES's phi2/M2 CPU clock rate (NTSC), used to convert a
// delta of M2 cycles into wall-clock milliseconds for interval display.
const m2ClockHz = 1789773.0

func m2ToMillis(deltaM2 int64) int64 {
	return int64(float64(deltaM2) / m2ClockHz * 1000)
}

func bucket100ms(ms int64) int64 {
	return (ms / 100) * 100
}

// TowerEntry is one player's row in the timing tower: its rank, name,
// color, and interval behind the player ranked immediately ahead.
type TowerEntry struct {
	PlayerID    uint32
	Name        string
	Color       uint8
	Position    int   // 0-indexed rank, 0 is the leader
	IntervalMS  int64 // -1 means "unknown yet" (blank), 0 means leader/tied
	IsFinalTime bool
	InSection   bool
	IsHighlight bool
	Y           float64 // animated row position, filled in by Tower.Step
}

// TowerState is a fully built snapshot of the timing tower, ready to
// render.
type TowerState struct {
	Title    string
	Subtitle string
	Entries  []TowerEntry
}

// rankable is the minimal view of a player Step needs to rank and
// interval-compare it against the field.
type rankable struct {
	ID      uint32
	Name    string
	Color   uint8
	Section int
	Page    int
	Timing  *TimingRecord
	Done    bool
}

// buildTowerTarget ranks players by route progress (section desc, page
// desc), tie-broken by whoever reached that page first, and computes each
// trailing player's interval behind the player ranked immediately ahead,
// measured at the trailing player's (section, page).
func buildTowerTarget(players []rankable) TowerState {
	ranked := make([]rankable, len(players))
	copy(ranked, players)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Section != b.Section {
			return a.Section > b.Section
		}
		if a.Page != b.Page {
			return a.Page > b.Page
		}
		am, aok := a.Timing.M2At(a.Section, a.Page)
		bm, bok := b.Timing.M2At(b.Section, b.Page)
		if aok && bok && am != bm {
			return am < bm
		}
		return false
	})

	var state TowerState
	if len(ranked) == 0 {
		return state
	}

	for i, p := range ranked {
		entry := TowerEntry{
			PlayerID:    p.ID,
			Name:        p.Name,
			Color:       p.Color,
			Position:    i,
			IsFinalTime: p.Done,
			InSection:   p.Timing.State == Running,
		}

		splits := p.Timing.SplitsByM2
		switch {
		case len(splits) == 0:
			// Hasn't started the run yet.
			entry.IntervalMS = -1
		case p.Done:
			entry.IntervalMS = m2ToMillis(int64(splits[len(splits)-1]) - int64(splits[0]))
		case i == 0:
			entry.IntervalMS = 0
		default:
			// Gap to the player immediately ahead, measured at the trailing
			// player's current page -- the furthest point both have reached.
			ahead := ranked[i-1]
			aheadM2, aok := ahead.Timing.M2At(p.Section, p.Page)
			playerM2, pok := p.Timing.M2At(p.Section, p.Page)
			if !aok || !pok {
				entry.IntervalMS = -1
			} else {
				entry.IntervalMS = bucket100ms(m2ToMillis(int64(playerM2) - int64(aheadM2)))
			}
		}

		state.Entries = append(state.Entries, entry)
	}

	return state
}

// Tower holds per-player Y-position lerpers so the displayed tower
// animates smoothly between rank changes instead of snapping.
type Tower struct {
	lerpers map[uint32]*Lerper

	acceleration float64
	dampen       float64
	maxVelocity  float64
}

// NewTower returns a Tower using the given Lerper tuning for every row's
// vertical animation.
func NewTower(acceleration, dampen, maxVelocity float64) *Tower {
	return &Tower{
		lerpers:      make(map[uint32]*Lerper),
		acceleration: acceleration,
		dampen:       dampen,
		maxVelocity:  maxVelocity,
	}
}

// Step re-targets each entry's row lerper to its new rank and advances
// every lerper by one tick, filling each entry's animated Y position in
// place and returning the same positions keyed by player.
func (t *Tower) Step(target TowerState) map[uint32]float64 {
	seen := make(map[uint32]bool, len(target.Entries))
	ys := make(map[uint32]float64, len(target.Entries))

	for i := range target.Entries {
		e := &target.Entries[i]
		seen[e.PlayerID] = true
		l, ok := t.lerpers[e.PlayerID]
		if !ok {
			l = NewLerper(t.acceleration, t.dampen, t.maxVelocity, float64(e.Position))
			t.lerpers[e.PlayerID] = l
		}
		l.Target = float64(e.Position)
		l.Step()
		e.Y = l.Position * TowerYSpacing
		ys[e.PlayerID] = e.Y
	}

	for id := range t.lerpers {
		if !seen[id] {
			delete(t.lerpers, id)
		}
	}

	return ys
}
