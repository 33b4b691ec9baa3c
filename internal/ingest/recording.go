package ingest

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/nesceptor/raceline/internal/codec"
	"github.com/nesceptor/raceline/internal/nesmodel"
	"github.com/nesceptor/raceline/internal/protocol"
	"github.com/nesceptor/raceline/internal/smb"
)

// record is one recorded read() call: the raw bytes observed and the
// elapsed milliseconds (since the original recording began) at which they
// arrived.
type record struct {
	elapsedMs int64
	data      []byte
}

// RecordingReader replays a previously captured byte stream at its
// originally recorded pace, reusing the same parser/reducer/projector
// pipeline a live SerialWorker runs, so a recording and a live session are
// indistinguishable to downstream consumers.
type RecordingReader struct {
	*outputSlot

	records []record

	parser    *protocol.Parser
	model     *nesmodel.Model
	projector *smb.Projector
	startDet  smb.StartDetector

	dataIndex int

	anchorWall      time.Time
	anchorRecordeMs int64
	paused          bool
	pausedAtMs      int64

	// startOfRunMs is the recorded timestamp of the first frame matching
	// the 1-1 start signature, discovered on an initial offline pass; -1 if
	// the recording never reaches 1-1.
	startOfRunMs int64
}

// NewRecordingReader reads the whole recording file into memory and
// prepares a reader positioned at its start, playing.
func NewRecordingReader(path string, baseline *smb.BaselineCache) (*RecordingReader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read recording %q: %w", path, err)
	}

	records, err := parseRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("ingest: parse recording %q: %w", path, err)
	}

	r := &RecordingReader{
		outputSlot: newOutputSlot(DefaultNextQueueCapacity),
		records:    records,
		projector:  smb.NewProjector(baseline),
	}
	r.startOfRunMs = r.findStartOfRun()
	r.Reset()
	return r, nil
}

func parseRecords(raw []byte) ([]record, error) {
	var records []record
	for len(raw) > 0 {
		if len(raw) < 16 {
			return nil, fmt.Errorf("truncated record header")
		}
		elapsedMs := int64(binary.LittleEndian.Uint64(raw[0:8]))
		n := binary.LittleEndian.Uint64(raw[8:16])
		raw = raw[16:]
		if uint64(len(raw)) < n {
			return nil, fmt.Errorf("truncated record payload")
		}
		records = append(records, record{elapsedMs: elapsedMs, data: raw[:n]})
		raw = raw[n:]
	}
	return records, nil
}

// Reset rewinds playback to the beginning and clears all reducer state, as
// if the session had just begun.
func (r *RecordingReader) Reset() {
	r.parser = &protocol.Parser{}
	r.model = nesmodel.New()
	r.projector.Reset()
	r.startDet.Reset()
	r.dataIndex = 0
	r.anchorWall = time.Now()
	r.anchorRecordeMs = 0
	r.paused = false
	r.pausedAtMs = 0
}

// SetPaused freezes or resumes the playback clock in place.
func (r *RecordingReader) SetPaused(paused bool) {
	if paused == r.paused {
		return
	}
	now := r.playbackMs(time.Now())
	if paused {
		r.pausedAtMs = now
	} else {
		r.anchorWall = time.Now()
		r.anchorRecordeMs = r.pausedAtMs
	}
	r.paused = paused
}

// StartAt establishes the wall-clock anchor at recorded timestamp ms,
// without replaying any records. Intended to be called once, immediately
// after construction, to skip a recording's pre-roll.
func (r *RecordingReader) StartAt(ms int64) {
	r.anchorWall = time.Now()
	r.anchorRecordeMs = ms
	r.pausedAtMs = ms
	for r.dataIndex < len(r.records) && r.records[r.dataIndex].elapsedMs < ms {
		r.dataIndex++
	}
}

// StartOfRunMs returns the recorded timestamp at which the run first
// reached the 1-1 start signature, or -1 if it never does.
func (r *RecordingReader) StartOfRunMs() int64 { return r.startOfRunMs }

// SeekFromStartTo jumps playback to ms milliseconds past the recording's
// beginning-of-1-1 timestamp, silently replaying every record up to that
// point so the cumulative reducer state (RAM, PPU, sound latches) matches
// what a live session would have accumulated, without pushing intermediate
// Outputs.
func (r *RecordingReader) SeekFromStartTo(ms int64) {
	base := r.startOfRunMs
	if base < 0 {
		base = 0
	}
	r.seekTo(base + ms)
}

func (r *RecordingReader) seekTo(ms int64) {
	r.parser = &protocol.Parser{}
	r.model = nesmodel.New()
	r.projector.Reset()
	r.startDet.Reset()

	i := 0
	for ; i < len(r.records) && r.records[i].elapsedMs < ms; i++ {
		r.feed(r.records[i].elapsedMs, r.records[i].data, false)
	}
	r.dataIndex = i
	r.anchorWall = time.Now()
	r.anchorRecordeMs = ms
	r.pausedAtMs = ms
}

func (r *RecordingReader) playbackMs(now time.Time) int64 {
	if r.paused {
		return r.pausedAtMs
	}
	return r.anchorRecordeMs + now.Sub(r.anchorWall).Milliseconds()
}

// GetLatest steps playback up to the current wall clock, then returns the
// most recent Output, or nil if none is due yet.
func (r *RecordingReader) GetLatest() *codec.Output {
	r.step()
	return r.outputSlot.GetLatest()
}

// GetNext steps playback up to the current wall clock, then drains every
// Output that has become due since the last call.
func (r *RecordingReader) GetNext() []*codec.Output {
	r.step()
	return r.outputSlot.GetNext()
}

// step advances playback up to the current wall clock, pushing any newly
// due Outputs onto the shared latest/next slot. No-op while paused or once
// the recording is exhausted.
func (r *RecordingReader) step() {
	if r.paused {
		return
	}
	nowMs := r.playbackMs(time.Now())
	for r.dataIndex < len(r.records) && r.records[r.dataIndex].elapsedMs <= nowMs {
		rec := r.records[r.dataIndex]
		r.feed(rec.elapsedMs, rec.data, true)
		r.dataIndex++
	}
}

// feed parses and reduces one recorded chunk, pushing an Output for each
// resulting frame boundary when push is true.
func (r *RecordingReader) feed(elapsedMs int64, data []byte, push bool) {
	for _, b := range data {
		msg, status := r.parser.Feed(b)
		if status != protocol.Success {
			continue
		}
		boundary := r.model.Apply(msg)
		if msg.Type == protocol.RstLow {
			r.startDet.Reset()
			r.projector.Reset()
		}
		if !r.projector.ShouldEmit(r.model, boundary) {
			continue
		}

		out := &codec.Output{
			Elapsed:    elapsedMs,
			PoweredOn:  r.model.PoweredOn,
			M2:         r.model.M2,
			Controller: r.model.Controller.State,
		}
		if out.PoweredOn {
			out.Frame = r.projector.Project(r.model)
			out.FramePalette = r.model.PPU.FramePalette
			out.UserM2 = r.startDet.Observe(out.Frame.AID, out.Frame.APX, out.Frame.Time, out.M2)
		}
		if push {
			r.push(out)
		}
	}
}

// findStartOfRun makes a full offline pass over the recording and returns
// the elapsed timestamp of the first frame matching the 1-1 start
// signature, or -1.
func (r *RecordingReader) findStartOfRun() int64 {
	for _, out := range r.GetAllOutputs() {
		if out.PoweredOn && smb.IsStartOfRun(out.Frame.AID, out.Frame.APX, out.Frame.Time) {
			return out.Elapsed
		}
	}
	return -1
}

// GetAllOutputs replays the entire recording from the beginning, ignoring
// wall-clock pacing, and returns every Output it produces in chronological
// order. Does not disturb the reader's live playback position.
func (r *RecordingReader) GetAllOutputs() []*codec.Output {
	parser := &protocol.Parser{}
	model := nesmodel.New()
	projector := smb.NewProjector(r.projector.BaselineCache())
	var startDet smb.StartDetector

	var outs []*codec.Output
	for _, rec := range r.records {
		for _, b := range rec.data {
			msg, status := parser.Feed(b)
			if status != protocol.Success {
				continue
			}
			boundary := model.Apply(msg)
			if msg.Type == protocol.RstLow {
				startDet.Reset()
				projector.Reset()
			}
			if !projector.ShouldEmit(model, boundary) {
				continue
			}
			out := &codec.Output{
				Elapsed:    rec.elapsedMs,
				PoweredOn:  model.PoweredOn,
				M2:         model.M2,
				Controller: model.Controller.State,
			}
			if out.PoweredOn {
				out.Frame = projector.Project(model)
				out.FramePalette = model.PPU.FramePalette
				out.UserM2 = startDet.Observe(out.Frame.AID, out.Frame.APX, out.Frame.Time, out.M2)
			}
			outs = append(outs, out)
		}
	}
	return outs
}
