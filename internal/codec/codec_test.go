package codec

import (
	"testing"

	"github.com/nesceptor/raceline/internal/smb"
)

func sampleOutput() *Output {
	out := &Output{
		Elapsed:    1234,
		PoweredOn:  true,
		M2:         987654321,
		UserM2:     42,
		Controller: 0x81,
	}
	for i := range out.FramePalette {
		out.FramePalette[i] = uint8(i)
	}
	out.Frame = smb.FrameInfo{
		AID:                  smb.CastleArea6,
		PrevAPX:              100,
		APX:                  356,
		GameEngineSubroutine: 4,
		OperMode:             1,
		IntervalTimerControl: 2,
		World:                8,
		Level:                4,
		Time:                 399,
		SoundQueues:          smb.SoundQueues{Pause: 1, AreaMusic: 2, EventMusic: 3, Noise: 4, Square2: 5, Square1: 6},
	}
	out.Frame.TitleScreen.WorldTile = 7
	out.Frame.TitleScreen.LevelTile = 3
	out.Frame.OamExt = []smb.OamX{
		{X: 10, Y: 20, TileIndex: 0x30, Attributes: 0x01, PatternTableIndex: 1, TilePalette: [4]uint8{1, 2, 3, 4}},
		{X: -5, Y: 0, TileIndex: 0x00, Attributes: 0x03, PatternTableIndex: 0, TilePalette: [4]uint8{5, 6, 7, 8}},
	}
	out.Frame.NtDiffs = []smb.NtDiff{
		{NametablePage: 0, Offset: 64, Value: 0x42},
		{NametablePage: 1, Offset: 0x3c0, Value: 0x0f},
	}
	out.Frame.TopRows = make([]uint8, 32*5)
	for i := range out.Frame.TopRows {
		out.Frame.TopRows[i] = uint8(i)
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleOutput()
	buf := Encode(want, nil)

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !Equal(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestEncodeDecodeRoundTripPoweredOff(t *testing.T) {
	want := &Output{PoweredOn: false, Elapsed: 5, M2: 0, UserM2: 0, Controller: 0}
	buf := Encode(want, nil)

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !Equal(want, got) {
		t.Fatalf("round trip mismatch: want %+v got %+v", want, got)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0})
	if err != ErrBadMagic {
		t.Fatalf("got %v, want ErrBadMagic", err)
	}
}

func TestDecodeShortInput(t *testing.T) {
	full := Encode(sampleOutput(), nil)
	for n := 0; n < len(full); n++ {
		_, err := Decode(full[:n])
		if err == nil {
			t.Fatalf("truncated to %d bytes decoded without error", n)
		}
	}
}

func TestEncodeAppendsToExistingBuffer(t *testing.T) {
	prefix := []byte{0xde, 0xad}
	buf := Encode(sampleOutput(), append([]byte(nil), prefix...))
	if buf[0] != prefix[0] || buf[1] != prefix[1] {
		t.Fatal("Encode did not preserve the caller's existing buffer prefix")
	}
	_, err := Decode(buf[2:])
	if err != nil {
		t.Fatalf("Decode after prefix: %v", err)
	}
}
