// Package race implements the per-player timing state machine and the
// cross-player orchestration (standings, camera/minimap, replay buffer,
// timing tower reconciliation) that consumes it.
package race

import (
	"github.com/nesceptor/raceline/internal/codec"
	"github.com/nesceptor/raceline/internal/route"
	"github.com/nesceptor/raceline/internal/smb"
)

// TimingState is the per-player timing finite state machine's position.
type TimingState int

const (
	WaitingFor1_1 TimingState = iota
	Running
)

// endOfGameWorld/Level/APX/OperMode mark completion of the category.
const (
	endOfGameWorld    = 8
	endOfGameLevel    = 4
	endOfGameAPXMin   = 4096
	endOfGameOperMode = 0x02
)

// TimingRecord is one player's split ledger.
//
// SplitsPerPageByM2 is kept parallel to SplitsByM2 (always the same
// length): entry i holds the page-indexed m2 ledger for whichever
// section was active at split i. Because route sections are only ever
// traversed forward, that per-section ledger is itself non-decreasing, so
// SplitsPerPageByM2[i][p] <= SplitsPerPageByM2[i][p+1] holds by
// construction.
type TimingRecord struct {
	State             TimingState
	SplitsByM2        []uint64
	SplitsPerPageByM2 [][]uint64

	lastSection int
	lastPage    int
	sectionPage map[int][]uint64
	finished    bool
}

// NewTimingRecord returns a fresh, WaitingFor1_1 TimingRecord.
func NewTimingRecord() *TimingRecord {
	return &TimingRecord{sectionPage: make(map[int][]uint64)}
}

// reset returns the record to WaitingFor1_1 without discarding the ledger:
// splits stay available for display after end-of-game, and a plain
// power-off doesn't erase history either -- only the *state* resets.
func (t *TimingRecord) reset() {
	t.State = WaitingFor1_1
}

// Step feeds one Output into the timing FSM for a given route category. A
// powered-off frame returns a Running record to WaitingFor1_1, keeping the
// ledger, and is otherwise ignored.
func (t *TimingRecord) Step(out *codec.Output, cat route.Category) {
	if !out.PoweredOn {
		if t.State == Running {
			t.reset()
		}
		return
	}

	fi := out.Frame

	switch t.State {
	case WaitingFor1_1:
		if smb.IsStartOfRun(fi.AID, fi.APX, fi.Time) {
			t.State = Running
			t.finished = false
			t.SplitsByM2 = []uint64{out.M2}
			t.sectionPage = map[int][]uint64{0: {out.M2}}
			t.SplitsPerPageByM2 = [][]uint64{t.sectionPage[0]}
			t.lastSection = 0
			t.lastPage = 0
		}

	case Running:
		if fi.World == endOfGameWorld && fi.Level == endOfGameLevel &&
			fi.APX > endOfGameAPXMin && fi.OperMode == endOfGameOperMode {
			t.padFinal(len(cat.Sections), out.M2)
			t.finished = true
			t.reset()
			return
		}

		sectionIdx, _, ok := cat.InCategory(fi.AID, fi.APX, fi.World, fi.Level)
		if !ok {
			return
		}
		page := cat.Sections[sectionIdx].Page(fi.APX)
		if sectionIdx == t.lastSection && page == t.lastPage {
			return
		}
		if cat.SkipsSplit(t.lastSection, t.lastPage, sectionIdx, page) {
			t.lastSection, t.lastPage = sectionIdx, page
			return
		}

		t.SplitsByM2 = append(t.SplitsByM2, out.M2)
		// Keep the per-section ledger indexed by page: pages skipped over
		// (or entered mid-section) take this arrival's m2, and a page
		// already in the ledger keeps its first arrival.
		pages := t.sectionPage[sectionIdx]
		for len(pages) <= page {
			pages = append(pages, out.M2)
		}
		t.sectionPage[sectionIdx] = pages
		t.SplitsPerPageByM2 = append(t.SplitsPerPageByM2, pages)
		t.lastSection, t.lastPage = sectionIdx, page
	}
}

// padFinal extends SplitsByM2 to routeLen+1 entries and records m2 as the
// final split, so a run that ends mid-route still yields a full split list.
func (t *TimingRecord) padFinal(routeLen int, m2 uint64) {
	for len(t.SplitsByM2) < routeLen {
		t.SplitsByM2 = append(t.SplitsByM2, m2)
		t.SplitsPerPageByM2 = append(t.SplitsPerPageByM2, t.SplitsPerPageByM2[len(t.SplitsPerPageByM2)-1])
	}
	t.SplitsByM2 = append(t.SplitsByM2, m2)
	if len(t.SplitsPerPageByM2) > 0 {
		t.SplitsPerPageByM2 = append(t.SplitsPerPageByM2, t.SplitsPerPageByM2[len(t.SplitsPerPageByM2)-1])
	} else {
		t.SplitsPerPageByM2 = append(t.SplitsPerPageByM2, []uint64{m2})
	}
}

// Finished reports whether the most recent run reached the end of the
// category; stays true until a new run starts.
func (t *TimingRecord) Finished() bool { return t.finished }

// CurrentSectionPage returns the last recorded (section, page) coordinate.
func (t *TimingRecord) CurrentSectionPage() (section, page int) {
	return t.lastSection, t.lastPage
}

// M2At returns the cumulative m2 recorded when the player first reached
// (section, page), and whether such a split exists.
func (t *TimingRecord) M2At(section, page int) (uint64, bool) {
	pages, ok := t.sectionPage[section]
	if !ok || page >= len(pages) {
		return 0, false
	}
	return pages[page], true
}
