package codec

import (
	"encoding/binary"
	"errors"

	"github.com/nesceptor/raceline/internal/smb"
)

// Magic header bytes identifying the Output wire encoding.
var Magic = [3]byte{0x69, 0x04, 0x20}

// ErrShortInput is returned when the byte slice is truncated mid-record.
var ErrShortInput = errors.New("codec: short input")

// ErrBadMagic is returned when the leading magic bytes don't match.
var ErrBadMagic = errors.New("codec: bad magic")

// Encode appends the deterministic binary encoding of out to buf and
// returns the extended slice.
func Encode(out *Output, buf []byte) []byte {
	buf = append(buf, Magic[:]...)
	buf = appendBool(buf, out.PoweredOn)
	buf = appendInt64(buf, out.Elapsed)
	buf = appendUint64(buf, out.M2)
	buf = appendUint64(buf, out.UserM2)
	buf = append(buf, out.Controller)

	if !out.PoweredOn {
		return buf
	}

	buf = append(buf, out.FramePalette[:]...)
	buf = appendUint16(buf, uint16(out.Frame.AID))
	buf = appendInt32(buf, out.Frame.PrevAPX)
	buf = appendInt32(buf, out.Frame.APX)
	buf = append(buf, out.Frame.GameEngineSubroutine, out.Frame.OperMode, out.Frame.IntervalTimerControl)
	buf = appendUint64(buf, uint64(len(out.Frame.OamExt)))
	buf = appendUint64(buf, uint64(len(out.Frame.NtDiffs)))
	buf = appendUint64(buf, uint64(len(out.Frame.TopRows)))
	buf = append(buf, out.Frame.World, out.Frame.Level)

	ts := out.Frame.TitleScreen
	buf = append(buf, ts.ScoreTiles[:]...)
	buf = append(buf, ts.CoinTiles[:]...)
	buf = append(buf, ts.WorldTile, ts.LevelTile)
	buf = append(buf, ts.LifeTiles[:]...)

	buf = appendInt32(buf, out.Frame.Time)

	sq := out.Frame.SoundQueues
	buf = append(buf, sq.Pause, sq.AreaMusic, sq.EventMusic, sq.Noise, sq.Square2, sq.Square1)

	for _, o := range out.Frame.OamExt {
		buf = appendInt32(buf, o.X)
		buf = appendInt32(buf, o.Y)
		buf = append(buf, o.TileIndex, o.Attributes)
		buf = appendInt32(buf, int32(o.PatternTableIndex))
		buf = append(buf, o.TilePalette[:]...)
	}
	for _, d := range out.Frame.NtDiffs {
		buf = appendInt32(buf, d.NametablePage)
		buf = appendInt32(buf, d.Offset)
		buf = append(buf, d.Value)
	}
	buf = append(buf, out.Frame.TopRows...)

	return buf
}

// Decode parses an Output from the head of b, returning nil on any
// shortfall or magic mismatch.
func Decode(b []byte) (*Output, error) {
	if len(b) < 3 || b[0] != Magic[0] || b[1] != Magic[1] || b[2] != Magic[2] {
		return nil, ErrBadMagic
	}
	b = b[3:]

	out := &Output{}
	var ok bool

	if out.PoweredOn, b, ok = readBool(b); !ok {
		return nil, ErrShortInput
	}
	if out.Elapsed, b, ok = readInt64(b); !ok {
		return nil, ErrShortInput
	}
	if out.M2, b, ok = readUint64(b); !ok {
		return nil, ErrShortInput
	}
	if out.UserM2, b, ok = readUint64(b); !ok {
		return nil, ErrShortInput
	}
	if len(b) < 1 {
		return nil, ErrShortInput
	}
	out.Controller = b[0]
	b = b[1:]

	if !out.PoweredOn {
		return out, nil
	}

	if len(b) < 32 {
		return nil, ErrShortInput
	}
	copy(out.FramePalette[:], b[:32])
	b = b[32:]

	var aid uint16
	if aid, b, ok = readUint16(b); !ok {
		return nil, ErrShortInput
	}
	out.Frame.AID = smb.AreaID(aid)

	if out.Frame.PrevAPX, b, ok = readInt32(b); !ok {
		return nil, ErrShortInput
	}
	if out.Frame.APX, b, ok = readInt32(b); !ok {
		return nil, ErrShortInput
	}
	if len(b) < 3 {
		return nil, ErrShortInput
	}
	out.Frame.GameEngineSubroutine, out.Frame.OperMode, out.Frame.IntervalTimerControl = b[0], b[1], b[2]
	b = b[3:]

	var oamLen, diffLen, topLen uint64
	if oamLen, b, ok = readUint64(b); !ok {
		return nil, ErrShortInput
	}
	if diffLen, b, ok = readUint64(b); !ok {
		return nil, ErrShortInput
	}
	if topLen, b, ok = readUint64(b); !ok {
		return nil, ErrShortInput
	}

	if len(b) < 2 {
		return nil, ErrShortInput
	}
	out.Frame.World, out.Frame.Level = b[0], b[1]
	b = b[2:]

	if len(b) < 7+2+1+1+2 {
		return nil, ErrShortInput
	}
	copy(out.Frame.TitleScreen.ScoreTiles[:], b[:7])
	b = b[7:]
	copy(out.Frame.TitleScreen.CoinTiles[:], b[:2])
	b = b[2:]
	out.Frame.TitleScreen.WorldTile = b[0]
	out.Frame.TitleScreen.LevelTile = b[1]
	b = b[2:]
	copy(out.Frame.TitleScreen.LifeTiles[:], b[:2])
	b = b[2:]

	if out.Frame.Time, b, ok = readInt32(b); !ok {
		return nil, ErrShortInput
	}

	if len(b) < 6 {
		return nil, ErrShortInput
	}
	sq := &out.Frame.SoundQueues
	sq.Pause, sq.AreaMusic, sq.EventMusic, sq.Noise, sq.Square2, sq.Square1 = b[0], b[1], b[2], b[3], b[4], b[5]
	b = b[6:]

	const oamEntrySize = 4 + 4 + 1 + 1 + 4 + 4
	if oamLen > uint64(len(b))/oamEntrySize {
		return nil, ErrShortInput
	}
	out.Frame.OamExt = make([]smb.OamX, 0, oamLen)
	for i := uint64(0); i < oamLen; i++ {
		var o smb.OamX
		o.X, b, ok = readInt32(b)
		if !ok {
			return nil, ErrShortInput
		}
		o.Y, b, ok = readInt32(b)
		if !ok {
			return nil, ErrShortInput
		}
		o.TileIndex, o.Attributes = b[0], b[1]
		b = b[2:]
		var pt int32
		pt, b, ok = readInt32(b)
		if !ok {
			return nil, ErrShortInput
		}
		o.PatternTableIndex = uint8(pt)
		copy(o.TilePalette[:], b[:4])
		b = b[4:]
		out.Frame.OamExt = append(out.Frame.OamExt, o)
	}

	const diffEntrySize = 4 + 4 + 1
	if diffLen > uint64(len(b))/diffEntrySize {
		return nil, ErrShortInput
	}
	out.Frame.NtDiffs = make([]smb.NtDiff, 0, diffLen)
	for i := uint64(0); i < diffLen; i++ {
		var d smb.NtDiff
		d.NametablePage, b, ok = readInt32(b)
		if !ok {
			return nil, ErrShortInput
		}
		d.Offset, b, ok = readInt32(b)
		if !ok {
			return nil, ErrShortInput
		}
		d.Value = b[0]
		b = b[1:]
		out.Frame.NtDiffs = append(out.Frame.NtDiffs, d)
	}

	if uint64(len(b)) < topLen {
		return nil, ErrShortInput
	}
	out.Frame.TopRows = append([]byte(nil), b[:topLen]...)

	return out, nil
}

// Equal compares two Outputs field by field, order-sensitive for the
// variable-length trailer vectors.
func Equal(a, b *Output) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.PoweredOn != b.PoweredOn || a.Elapsed != b.Elapsed || a.M2 != b.M2 ||
		a.UserM2 != b.UserM2 || a.Controller != b.Controller {
		return false
	}
	if !a.PoweredOn {
		return true
	}
	if a.FramePalette != b.FramePalette {
		return false
	}
	fa, fb := a.Frame, b.Frame
	if fa.AID != fb.AID || fa.PrevAPX != fb.PrevAPX || fa.APX != fb.APX ||
		fa.GameEngineSubroutine != fb.GameEngineSubroutine || fa.OperMode != fb.OperMode ||
		fa.IntervalTimerControl != fb.IntervalTimerControl || fa.World != fb.World ||
		fa.Level != fb.Level || fa.Time != fb.Time || fa.TitleScreen != fb.TitleScreen ||
		fa.SoundQueues != fb.SoundQueues {
		return false
	}
	if len(fa.OamExt) != len(fb.OamExt) || len(fa.NtDiffs) != len(fb.NtDiffs) || len(fa.TopRows) != len(fb.TopRows) {
		return false
	}
	for i := range fa.OamExt {
		if fa.OamExt[i] != fb.OamExt[i] {
			return false
		}
	}
	for i := range fa.NtDiffs {
		if fa.NtDiffs[i] != fb.NtDiffs[i] {
			return false
		}
	}
	for i := range fa.TopRows {
		if fa.TopRows[i] != fb.TopRows[i] {
			return false
		}
	}
	return true
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendInt32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	return appendUint64(buf, uint64(v))
}

func readBool(b []byte) (bool, []byte, bool) {
	if len(b) < 1 {
		return false, b, false
	}
	return b[0] != 0, b[1:], true
}

func readUint16(b []byte) (uint16, []byte, bool) {
	if len(b) < 2 {
		return 0, b, false
	}
	return binary.LittleEndian.Uint16(b), b[2:], true
}

func readInt32(b []byte) (int32, []byte, bool) {
	if len(b) < 4 {
		return 0, b, false
	}
	return int32(binary.LittleEndian.Uint32(b)), b[4:], true
}

func readUint64(b []byte) (uint64, []byte, bool) {
	if len(b) < 8 {
		return 0, b, false
	}
	return binary.LittleEndian.Uint64(b), b[8:], true
}

func readInt64(b []byte) (int64, []byte, bool) {
	v, rest, ok := readUint64(b)
	return int64(v), rest, ok
}
