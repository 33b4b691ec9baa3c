package race

import (
	"testing"

	"github.com/nesceptor/raceline/internal/codec"
	"github.com/nesceptor/raceline/internal/route"
	"github.com/nesceptor/raceline/internal/smb"
)

// fakeSource hands back a fixed batch of Outputs on the first GetNext call
// and nothing thereafter, standing in for a live ingest.Source in tests.
type fakeSource struct {
	outs []*codec.Output
	sent bool
}

func (f *fakeSource) GetLatest() *codec.Output {
	if len(f.outs) == 0 {
		return nil
	}
	return f.outs[len(f.outs)-1]
}

func (f *fakeSource) GetNext() []*codec.Output {
	if f.sent {
		return nil
	}
	f.sent = true
	return f.outs
}

func raceOutput(m2 uint64, apx int32) *codec.Output {
	return &codec.Output{
		PoweredOn: true,
		M2:        m2,
		Frame:     smb.FrameInfo{AID: smb.GroundArea6, APX: apx, World: 1, Level: 1, Time: 400},
	}
}

func singleSectionCategory() route.Category {
	return route.Category{
		Sections: []route.Section{
			{AID: smb.GroundArea6, Left: 0, Right: 2048, World: 1, Level: 1},
		},
	}
}

func TestOrchestratorStepRanksPlayersByProgress(t *testing.T) {
	orch := NewOrchestrator(singleSectionCategory(), 16, [3]float64{0.3, 0.2, 6}, [3]float64{0.15, 0.2, 12})

	ahead := &fakeSource{outs: []*codec.Output{raceOutput(100, 10), raceOutput(200, 1000)}}
	behind := &fakeSource{outs: []*codec.Output{raceOutput(100, 10), raceOutput(150, 100)}}

	orch.AddPlayer(1, "ahead", 1, ahead)
	orch.AddPlayer(2, "behind", 2, behind)

	orch.Step()

	standings := orch.Standings()
	if len(standings) != 2 {
		t.Fatalf("got %d standings, want 2", len(standings))
	}
	if standings[0].PlayerID != 1 {
		t.Fatalf("expected player 1 to lead, got standings %+v", standings)
	}
}

func TestOrchestratorRemovePlayerDropsFromStandings(t *testing.T) {
	orch := NewOrchestrator(singleSectionCategory(), 16, [3]float64{0.3, 0.2, 6}, [3]float64{0.15, 0.2, 12})
	orch.AddPlayer(1, "a", 1, &fakeSource{})
	orch.AddPlayer(2, "b", 2, &fakeSource{})
	orch.RemovePlayer(1)
	orch.Step()

	standings := orch.Standings()
	if len(standings) != 1 || standings[0].PlayerID != 2 {
		t.Fatalf("expected only player 2 remaining, got %+v", standings)
	}
}

func TestOrchestratorReplayBufferAccumulates(t *testing.T) {
	orch := NewOrchestrator(singleSectionCategory(), 16, [3]float64{0.3, 0.2, 6}, [3]float64{0.15, 0.2, 12})
	src := &fakeSource{outs: []*codec.Output{raceOutput(100, 10), raceOutput(150, 50)}}
	orch.AddPlayer(1, "a", 1, src)
	orch.Step()

	if got := orch.Replay().Len(1); got != 2 {
		t.Fatalf("replay buffer length = %d, want 2", got)
	}
}
