package sound

import "testing"

func TestStepClassifiesAreaAndEventMusic(t *testing.T) {
	d := New()
	music, effects := d.Step(1, SoundQueueSnapshot{AreaMusic: 5, EventMusic: 9})

	if music.Area != (Track{Kind: TrackKindArea, Code: 5}) {
		t.Errorf("Area = %+v", music.Area)
	}
	if music.Event != (Track{Kind: TrackKindEvent, Code: 9}) {
		t.Errorf("Event = %+v", music.Event)
	}
	if len(effects) != 0 {
		t.Errorf("unexpected effects: %+v", effects)
	}
}

func TestStepZeroKeepsCurrentTrackSilenceStopsIt(t *testing.T) {
	d := New()
	d.Step(1, SoundQueueSnapshot{AreaMusic: 5})

	// A zero queue byte means nothing new was queued: the track keeps going.
	music, _ := d.Step(1, SoundQueueSnapshot{})
	if music.Area != (Track{Kind: TrackKindArea, Code: 5}) {
		t.Fatalf("zero byte should keep the current track, got %+v", music.Area)
	}

	// Silence explicitly stops it.
	music, _ = d.Step(1, SoundQueueSnapshot{AreaMusic: Silence})
	if music.Area.Kind != TrackKindNone {
		t.Fatalf("expected no track after silence, got %+v", music.Area)
	}
}

func TestStepReportsFireAndForgetEffects(t *testing.T) {
	d := New()
	_, effects := d.Step(1, SoundQueueSnapshot{Pause: 1, Noise: 2, Square2: 3, Square1: 4})
	want := map[string]uint8{"pause": 1, "noise": 2, "square2": 3, "square1": 4}
	if len(effects) != len(want) {
		t.Fatalf("got %d effects, want %d: %+v", len(effects), len(want), effects)
	}
	for _, e := range effects {
		if want[e.Channel] != e.Code {
			t.Errorf("effect %+v does not match expected code %d", e, want[e.Channel])
		}
	}
}

func TestStepIgnoresSilenceEffectCode(t *testing.T) {
	d := New()
	_, effects := d.Step(1, SoundQueueSnapshot{Pause: Silence, Noise: 0})
	if len(effects) != 0 {
		t.Errorf("expected no effects for silence/zero codes, got %+v", effects)
	}
}

func TestCurrentMusicAndRemovePlayer(t *testing.T) {
	d := New()
	d.Step(7, SoundQueueSnapshot{AreaMusic: 3})
	if got := d.CurrentMusic(7); got.Area.Code != 3 {
		t.Fatalf("CurrentMusic = %+v", got)
	}
	d.RemovePlayer(7)
	if got := d.CurrentMusic(7); got != (PlayerMusic{}) {
		t.Fatalf("expected zero value after RemovePlayer, got %+v", got)
	}
}
