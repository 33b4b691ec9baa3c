// Package sound turns a player's sound-queue snapshots into music-track and
// sound-effect lifecycle events. It decides *what* is queued; actually
// mixing or playing audio is a downstream concern this package doesn't
// touch -- it classifies a queued code rather than synthesizing audio.
package sound

// Silence is the sentinel sound-queue byte that stops the current music
// track; a zero byte, by contrast, means nothing was queued.
const Silence uint8 = 0x80

// TrackKind distinguishes looping background/area music from one-shot
// event/cue music.
type TrackKind int

const (
	TrackKindNone TrackKind = iota
	TrackKindArea           // loops indefinitely
	TrackKindEvent          // plays exactly once
)

// Track identifies one resolved music track.
type Track struct {
	Kind TrackKind
	Code uint8
}

// Effect identifies one fire-and-forget sound effect trigger, keyed by its
// raw queue byte; effects share playback channels and never block or loop.
type Effect struct {
	Channel string
	Code    uint8
}

// resolveMusic folds a single music-queue byte into the player's current
// track for that channel. A zero byte means nothing was queued this frame
// (the current track keeps playing); Silence stops it; any other value
// starts that track. Area music uses the raw area code; event music lives
// in its own kind so area and event codes never collide in a track table.
func resolveMusic(kind TrackKind, current Track, queueByte uint8) Track {
	switch queueByte {
	case 0:
		return current
	case Silence:
		return Track{Kind: TrackKindNone}
	default:
		return Track{Kind: kind, Code: queueByte}
	}
}

// PlayerMusic is the resolved current-music state for one player: at most
// one area track and at most one event track can be queued at a time, and
// an event track takes priority over area music for as long as it plays.
type PlayerMusic struct {
	Area  Track
	Event Track
}

// Dispatcher tracks, per player, the currently queued music and surfaces
// fire-and-forget effect triggers for each incoming Output. Which player's
// music actually gets sent to an audio mixer is a policy decision made by
// the caller (e.g. "honor the race leader's music"); the dispatcher only
// classifies.
type Dispatcher struct {
	current map[uint32]PlayerMusic
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{current: make(map[uint32]PlayerMusic)}
}

// SoundQueueSnapshot mirrors smb.SoundQueues without importing the smb
// package, so this package can be reused by any caller that already has
// the six latched bytes in hand.
type SoundQueueSnapshot struct {
	Pause      uint8
	AreaMusic  uint8
	EventMusic uint8
	Noise      uint8
	Square2    uint8
	Square1    uint8
}

// Step classifies one player's latest sound-queue snapshot, updates the
// dispatcher's current-music map for that player, and returns any
// fire-and-forget effects to trigger this frame.
func (d *Dispatcher) Step(playerID uint32, q SoundQueueSnapshot) (music PlayerMusic, effects []Effect) {
	prev := d.current[playerID]
	music = PlayerMusic{
		Area:  resolveMusic(TrackKindArea, prev.Area, q.AreaMusic),
		Event: resolveMusic(TrackKindEvent, prev.Event, q.EventMusic),
	}
	d.current[playerID] = music

	if q.Pause != 0 && q.Pause != Silence {
		effects = append(effects, Effect{Channel: "pause", Code: q.Pause})
	}
	if q.Noise != 0 && q.Noise != Silence {
		effects = append(effects, Effect{Channel: "noise", Code: q.Noise})
	}
	if q.Square2 != 0 && q.Square2 != Silence {
		effects = append(effects, Effect{Channel: "square2", Code: q.Square2})
	}
	if q.Square1 != 0 && q.Square1 != Silence {
		effects = append(effects, Effect{Channel: "square1", Code: q.Square1})
	}

	return music, effects
}

// CurrentMusic returns the last-resolved music state for a player.
func (d *Dispatcher) CurrentMusic(playerID uint32) PlayerMusic {
	return d.current[playerID]
}

// RemovePlayer drops a disconnected player's dispatcher state.
func (d *Dispatcher) RemovePlayer(playerID uint32) {
	delete(d.current, playerID)
}
