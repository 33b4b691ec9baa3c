package race

import (
	"testing"

	"github.com/nesceptor/raceline/internal/codec"
	"github.com/nesceptor/raceline/internal/route"
	"github.com/nesceptor/raceline/internal/smb"
)

func output(m2 uint64, aid smb.AreaID, apx int32, world, level uint8, t int32) *codec.Output {
	return &codec.Output{
		PoweredOn: true,
		M2:        m2,
		Frame: smb.FrameInfo{
			AID: aid, APX: apx, World: world, Level: level, Time: t,
		},
	}
}

func twoSectionCategory() route.Category {
	return route.Category{
		Sections: []route.Section{
			{AID: smb.GroundArea6, Left: 0, Right: 512, World: 1, Level: 1},
			{AID: smb.UndergroundArea1, Left: 0, Right: 512, World: 1, Level: 2},
		},
	}
}

func TestTimingStartOfRunDetection(t *testing.T) {
	tr := NewTimingRecord()
	cat := twoSectionCategory()

	// Not yet the start signature: stays waiting.
	tr.Step(output(100, smb.GroundArea6, 10, 1, 1, 200), cat)
	if tr.State != WaitingFor1_1 {
		t.Fatal("expected WaitingFor1_1 before the start signature")
	}

	// AID, apx < 15, and time of 399 or 400 is the documented 1-1 start signature.
	tr.Step(output(500, smb.GroundArea6, 5, 1, 1, 400), cat)
	if tr.State != Running {
		t.Fatal("expected Running after the start signature")
	}
	if len(tr.SplitsByM2) != 1 || tr.SplitsByM2[0] != 500 {
		t.Fatalf("SplitsByM2 = %v, want [500]", tr.SplitsByM2)
	}
}

func TestTimingSplitsAreNonDecreasing(t *testing.T) {
	tr := NewTimingRecord()
	cat := twoSectionCategory()

	tr.Step(output(100, smb.GroundArea6, 5, 1, 1, 400), cat) // start
	tr.Step(output(200, smb.GroundArea6, 300, 1, 1, 350), cat)
	tr.Step(output(300, smb.UndergroundArea1, 10, 1, 2, 300), cat)
	tr.Step(output(400, smb.UndergroundArea1, 300, 1, 2, 250), cat)

	for i := 1; i < len(tr.SplitsByM2); i++ {
		if tr.SplitsByM2[i] < tr.SplitsByM2[i-1] {
			t.Fatalf("SplitsByM2 decreased at %d: %v", i, tr.SplitsByM2)
		}
	}
	if len(tr.SplitsByM2) != len(tr.SplitsPerPageByM2) {
		t.Fatalf("len(SplitsByM2)=%d != len(SplitsPerPageByM2)=%d", len(tr.SplitsByM2), len(tr.SplitsPerPageByM2))
	}
}

func TestTimingShortcutSkipSuppressesSplit(t *testing.T) {
	tr := NewTimingRecord()
	cat := route.Category{
		Sections: []route.Section{
			{AID: smb.GroundArea6, Left: 0, Right: 1024, World: 1, Level: 1},
		},
		ShortcutSkip: []route.ShortcutSkip{
			{From: route.SectionPage{Section: 0, Page: 0}, To: route.SectionPage{Section: 0, Page: 2}},
		},
	}

	tr.Step(output(100, smb.GroundArea6, 5, 1, 1, 400), cat) // start, page 0
	tr.Step(output(200, smb.GroundArea6, 600, 1, 1, 350), cat) // jumps straight to page 2, a documented skip

	if len(tr.SplitsByM2) != 1 {
		t.Fatalf("expected the skipped transition to record no new split, got %v", tr.SplitsByM2)
	}
	section, page := tr.CurrentSectionPage()
	if section != 0 || page != 2 {
		t.Fatalf("current position = (%d, %d), want (0, 2)", section, page)
	}
}

func TestTimingPowerOffMidRunResetsStateButKeepsLedger(t *testing.T) {
	tr := NewTimingRecord()
	cat := twoSectionCategory()

	tr.Step(output(100, smb.GroundArea6, 5, 1, 1, 400), cat)
	if tr.State != Running {
		t.Fatal("expected Running")
	}

	tr.Step(&codec.Output{PoweredOn: false}, cat)
	if tr.State != WaitingFor1_1 {
		t.Fatal("expected WaitingFor1_1 after power-off")
	}
	if len(tr.SplitsByM2) != 1 {
		t.Fatalf("ledger should be preserved across a power-off reset, got %v", tr.SplitsByM2)
	}
}

func TestTimingEndOfGamePadsFinalSplit(t *testing.T) {
	tr := NewTimingRecord()
	cat := twoSectionCategory()

	tr.Step(output(100, smb.GroundArea6, 5, 1, 1, 400), cat)
	end := output(900, 0, 5000, 8, 4, 0)
	end.Frame.OperMode = 0x02
	tr.Step(end, cat)

	if tr.State != WaitingFor1_1 {
		t.Fatal("end of game should return the FSM to WaitingFor1_1")
	}
	if !tr.Finished() {
		t.Fatal("end of game should mark the run finished")
	}
	last := tr.SplitsByM2[len(tr.SplitsByM2)-1]
	if last != 900 {
		t.Fatalf("final split = %d, want 900", last)
	}
	if len(tr.SplitsByM2) != len(cat.Sections)+1 {
		t.Fatalf("SplitsByM2 length = %d, want %d (route length + 1)", len(tr.SplitsByM2), len(cat.Sections)+1)
	}
}
