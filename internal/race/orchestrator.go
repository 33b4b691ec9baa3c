package race

import (
	"sort"

	"github.com/nesceptor/raceline/internal/codec"
	"github.com/nesceptor/raceline/internal/ingest"
	"github.com/nesceptor/raceline/internal/route"
	"github.com/nesceptor/raceline/internal/sound"
)

// Source is the subset of an ingestion worker's API the orchestrator
// drains: a lossless queue of Outputs produced since the last drain. Every
// concrete ingest source (serial, recording, broadcast) satisfies this.
type Source = ingest.Source

// Player is one competitor's registration with the orchestrator.
type Player struct {
	ID     uint32
	Name   string
	Color  uint8
	Source Source

	timing *TimingRecord
	last   *codec.Output
}

// Orchestrator fans multiple players' ingested streams into race-wide
// standings, a timing tower, a followable minimap/combined view, and a
// shared replay buffer.
type Orchestrator struct {
	category route.Category

	players map[uint32]*Player
	order   []uint32 // insertion order, for stable iteration

	sound    *sound.Dispatcher
	replay   *ReplayBuffer
	tower    *Tower
	minimap  *Minimap
	combined CombinedView
}

// NewOrchestrator returns an Orchestrator for the given route category.
// replayCapacity <= 0 uses DefaultReplayCapacity.
func NewOrchestrator(category route.Category, replayCapacity int, towerTuning, cameraTuning [3]float64) *Orchestrator {
	return &Orchestrator{
		category: category,
		players:  make(map[uint32]*Player),
		sound:    sound.New(),
		replay:   NewReplayBuffer(replayCapacity),
		tower:    NewTower(towerTuning[0], towerTuning[1], towerTuning[2]),
		minimap:  NewMinimap(256, category.TotalWidth(), cameraTuning[0], cameraTuning[1], cameraTuning[2]),
	}
}

// AddPlayer registers a new competitor, starting them in WaitingFor1_1.
func (o *Orchestrator) AddPlayer(id uint32, name string, color uint8, src Source) {
	o.players[id] = &Player{
		ID:     id,
		Name:   name,
		Color:  color,
		Source: src,
		timing: NewTimingRecord(),
	}
	o.order = append(o.order, id)
}

// RemovePlayer drops a disconnected competitor from every subsystem.
func (o *Orchestrator) RemovePlayer(id uint32) {
	delete(o.players, id)
	o.sound.RemovePlayer(id)
	for i, pid := range o.order {
		if pid == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// Step drains every player's queued Outputs, feeds the timing state
// machine, sound dispatcher, and replay buffer, and re-derives the timing
// tower and minimap camera. Call once per orchestrator tick.
func (o *Orchestrator) Step() {
	for _, p := range o.players {
		outs := p.Source.GetNext()
		for _, out := range outs {
			p.timing.Step(out, o.category)
			o.replay.Push(p.ID, out)
			if out.PoweredOn {
				o.sound.Step(p.ID, soundSnapshot(out))
			}
			p.last = out
		}
	}

	target := buildTowerTarget(o.rankables())
	target.Title = o.category.Name
	o.tower.Step(target)

	categoryX := make(map[uint32]int32, len(o.players))
	categorySection := make(map[uint32]int, len(o.players))
	for id, p := range o.players {
		if p.last == nil || !p.last.PoweredOn {
			continue
		}
		if section, x, ok := o.category.InCategory(p.last.Frame.AID, p.last.Frame.APX, p.last.Frame.World, p.last.Frame.Level); ok {
			categoryX[id] = x
			categorySection[id] = section
		}
	}
	o.minimap.Step(categoryX)

	var frontrunner uint32
	var frontrunnerX int32 = -1
	for id, x := range categoryX {
		if x > frontrunnerX {
			frontrunnerX = x
			frontrunner = id
		}
	}
	if frontrunnerX >= 0 {
		o.combined.Step(frontrunner, categorySection[frontrunner])
	}
}

func soundSnapshot(out *codec.Output) sound.SoundQueueSnapshot {
	sq := out.Frame.SoundQueues
	return sound.SoundQueueSnapshot{
		Pause:      sq.Pause,
		AreaMusic:  sq.AreaMusic,
		EventMusic: sq.EventMusic,
		Noise:      sq.Noise,
		Square2:    sq.Square2,
		Square1:    sq.Square1,
	}
}

func (o *Orchestrator) rankables() []rankable {
	rs := make([]rankable, 0, len(o.players))
	for _, id := range o.order {
		p, ok := o.players[id]
		if !ok {
			continue
		}
		section, page := p.timing.CurrentSectionPage()
		rs = append(rs, rankable{
			ID:      p.ID,
			Name:    p.Name,
			Color:   p.Color,
			Section: section,
			Page:    page,
			Timing:  p.timing,
			Done:    p.timing.Finished(),
		})
	}
	return rs
}

// Standings returns the current field ranked best-to-worst: highest
// section, then highest page, then earliest arrival at that page.
func (o *Orchestrator) Standings() []TowerEntry {
	state := buildTowerTarget(o.rankables())
	sort.SliceStable(state.Entries, func(i, j int) bool {
		return state.Entries[i].Position < state.Entries[j].Position
	})
	return state.Entries
}

// CurrentMusic returns a player's currently resolved music state.
func (o *Orchestrator) CurrentMusic(playerID uint32) sound.PlayerMusic {
	return o.sound.CurrentMusic(playerID)
}

// Replay returns the shared replay buffer.
func (o *Orchestrator) Replay() *ReplayBuffer {
	return o.replay
}

// MinimapCamera returns the minimap's current animated left-edge x.
func (o *Orchestrator) MinimapCamera() float64 {
	return o.minimap.camera.Position
}

// SetFollow configures the minimap's camera follow behavior.
func (o *Orchestrator) SetFollow(method FollowMethod, playerID uint32) {
	o.minimap.FollowMethod = method
	o.minimap.PlayerID = playerID
}

// SetCombinedFollowSmart toggles the combined view's hysteresis-based
// autoselection.
func (o *Orchestrator) SetCombinedFollowSmart(smart bool) {
	o.combined.FollowSmart = smart
}

// CombinedViewPlayer returns the player the combined view should currently
// display.
func (o *Orchestrator) CombinedViewPlayer() uint32 {
	return o.combined.current
}
