package smb

import "github.com/nesceptor/raceline/internal/nesmodel"

// Nametable cells the title/demo screen's score, coin, world/level, and
// life counters are rendered through, in nametable 0.
const (
	titleScoreX = 0x02
	titleScoreY = 0x03
	titleCoinX  = 0x0d
	titleCoinY  = 0x03
	titleWorldX = 0x13
	titleWorldY = 0x03
	titleLevelX = 0x15
	titleLevelY = 0x03
	titleLifeX  = 0x11
	titleLifeY  = 0x0e
)

// In-game timer digit cells, status bar row of nametable 0.
const (
	timeHundredsX = 0x19
	timeTensX     = 0x1a
	timeOnesX     = 0x1b
	timeY         = 0x03
)

func ntCell(nt nesmodel.NameTable, x, y int) uint8 {
	return nt[y*32+x]
}

func ntCellDigit(nt nesmodel.NameTable, x, y int) int32 {
	return int32(ntCell(nt, x, y) & 0x0f)
}

// The "top rows" status-bar snapshot is the first 4 tile rows of nametable
// 0 followed by the first 32 bytes of its attribute table, 32*5 bytes total.
const (
	topRowsTileLen = 32 * 4
	topRowsAttrLen = 32
	topRowsLen     = topRowsTileLen + topRowsAttrLen

	statusBarRows = 4
)

// Projector folds a reduced NESModel, plus a nametable baseline cache, into
// per-frame FrameInfo snapshots.
type Projector struct {
	baseline *BaselineCache

	lastOutM2 uint64
	haveLast  bool

	lastAPX     int32
	haveLastAPX bool
}

// NewProjector returns a Projector backed by the given baseline cache.
func NewProjector(baseline *BaselineCache) *Projector {
	return &Projector{baseline: baseline}
}

// Reset clears the last-emitted-m2 bookkeeping, e.g. after an RstLow.
func (p *Projector) Reset() {
	p.haveLast = false
	p.lastOutM2 = 0
	p.haveLastAPX = false
	p.lastAPX = 0
}

// BaselineCache returns the nametable baseline cache this projector was
// constructed with, so a caller can spin up a second, independent Projector
// sharing the same baselines.
func (p *Projector) BaselineCache() *BaselineCache {
	return p.baseline
}

// ShouldEmit reports whether a frame boundary should actually produce an
// emission: boundary must be true (an RstLow, or a ControllerInfo 1->0
// readWrite edge), and if the console was already powered on with an
// unchanged m2 since the last emission, it's skipped.
func (p *Projector) ShouldEmit(model *nesmodel.Model, boundary bool) bool {
	if !boundary {
		return false
	}
	if model.PoweredOn && p.haveLast && model.M2 == p.lastOutM2 {
		return false
	}
	return true
}

// Project builds a FrameInfo from the current model state. Call only after
// ShouldEmit has returned true for this message.
func (p *Projector) Project(model *nesmodel.Model) FrameInfo {
	p.lastOutM2 = model.M2
	p.haveLast = true

	aid := areaIDFromData(model.RAM[addrAreaDataLow], model.RAM[addrAreaDataHigh])
	apx := areaPointerX(model.RAM[addrScreenEdgePageLoc], model.RAM[addrScreenEdgeX], aid, model.RAM[addrBlockBuffer84Disc])

	prevAPX := apx
	if p.haveLastAPX {
		prevAPX = p.lastAPX
	}
	p.lastAPX = apx
	p.haveLastAPX = true

	fi := FrameInfo{
		AID:                  aid,
		PrevAPX:              prevAPX,
		APX:                  apx,
		GameEngineSubroutine: model.RAM[addrGameEngineSubroutine],
		OperMode:             model.RAM[addrOperMode],
		IntervalTimerControl: model.RAM[addrIntervalTimerControl],
		World:                model.RAM[addrWorld] + 1,
		Level:                model.RAM[addrLevel] + 1,
		SoundQueues:          soundQueuesFromLatch(model.FlushSoundQueues()),
	}

	nt0 := model.PPU.Nametables[0]

	fi.Time = ntCellDigit(nt0, timeHundredsX, timeY)*100 +
		ntCellDigit(nt0, timeTensX, timeY)*10 +
		ntCellDigit(nt0, timeOnesX, timeY)

	fi.TitleScreen.WorldTile = ntCell(nt0, titleWorldX, titleWorldY)
	fi.TitleScreen.LevelTile = ntCell(nt0, titleLevelX, titleLevelY)
	for i := 0; i < 7; i++ {
		fi.TitleScreen.ScoreTiles[i] = ntCell(nt0, titleScoreX+i, titleScoreY)
	}
	for i := 0; i < 2; i++ {
		fi.TitleScreen.CoinTiles[i] = ntCell(nt0, titleCoinX+i, titleCoinY)
		fi.TitleScreen.LifeTiles[i] = ntCell(nt0, titleLifeX+i, titleLifeY)
	}

	fi.TopRows = append(fi.TopRows, nt0[:topRowsTileLen]...)
	fi.TopRows = append(fi.TopRows, nt0[0x3c0:0x3c0+topRowsAttrLen]...)

	fi.OamExt = buildOamExt(model.PPU.OAM, model.PPU.FramePalette, model.PPU.Ctrl)
	fi.NtDiffs = p.nametableDiffs(model, aid, apx)

	return fi
}

// areaPointerX reconstructs the 32-bit horizontal progress measure,
// preserving the reverse-engineered CASTLE_AREA_6 wraparound correction
// exactly as documented: do not generalize it to other area ids.
func areaPointerX(screenEdgePageLoc, screenEdgeX uint8, aid AreaID, blockBuffer84Disc uint8) int32 {
	apx := int32(256)*int32(screenEdgePageLoc) + int32(screenEdgeX)
	if apx < 512 && aid == CastleArea6 && blockBuffer84Disc != 0 {
		apx += 1024
	}
	return apx
}

func soundQueuesFromLatch(latch [6]uint8) SoundQueues {
	return SoundQueues{
		Pause:      latch[0],
		AreaMusic:  latch[1],
		EventMusic: latch[2],
		Noise:      latch[3],
		Square2:    latch[4],
		Square1:    latch[5],
	}
}

// buildOamExt extends each live OAM entry (y<=240, excluding sprite 0, the
// coin-bottom sprite that is always skipped) with its resolved palette.
func buildOamExt(oam nesmodel.OAM, palette nesmodel.FramePalette, ppuCtrl uint8) []OamX {
	patternTable := (ppuCtrl >> 3) & 1

	var out []OamX
	for i := 1; i < 64; i++ {
		base := i * 4
		y := oam[base]
		if y > 240 {
			continue
		}
		tile := oam[base+1]
		attr := oam[base+2]
		x := oam[base+3]

		var tp [4]uint8
		tp[0] = palette[0x10]
		bank := attr & 0x03
		for j := 1; j < 4; j++ {
			tp[j] = palette[0x10+uint16(bank)*4+uint16(j)]
		}

		out = append(out, OamX{
			X:                 int32(x),
			Y:                 int32(y),
			TileIndex:         tile,
			Attributes:        attr,
			PatternTableIndex: patternTable,
			TilePalette:       tp,
		})
	}
	return out
}

// nametableDiffs compares the live nametables against the baseline cache,
// restricted to the visible window (apx-8, apx+256) and excluding the
// status bar rows. Area page P scrolls through live nametable P mod 2; the
// baseline cache is keyed by the area page, and NtDiff reports it.
func (p *Projector) nametableDiffs(model *nesmodel.Model, aid AreaID, apx int32) []NtDiff {
	var diffs []NtDiff
	if p.baseline == nil {
		return diffs
	}

	firstPage := (apx - 7) / 256
	if firstPage < 0 {
		firstPage = 0
	}
	lastPage := (apx + 255) / 256

	seenAttr := make(map[int32]bool)

	for page := firstPage; page <= lastPage; page++ {
		live := model.PPU.Nametables[page%2]
		baseline, ok := p.baseline.Get(aid, page)
		if !ok {
			continue
		}

		for offset := 0; offset < 0x3c0; offset++ {
			row := offset / 32
			if row < statusBarRows {
				continue
			}
			col := offset % 32
			x := page*256 + int32(col)*8
			if x <= apx-8 || x >= apx+256 {
				continue
			}
			if live[offset] == baseline[offset] {
				continue
			}
			diffs = append(diffs, NtDiff{NametablePage: page, Offset: int32(offset), Value: live[offset]})

			attrOffset := 0x3c0 + (row/4)*8 + col/4
			key := page*1024 + int32(attrOffset)
			if !seenAttr[key] && live[attrOffset] != baseline[attrOffset] {
				seenAttr[key] = true
				diffs = append(diffs, NtDiff{NametablePage: page, Offset: int32(attrOffset), Value: live[attrOffset]})
			}
		}
	}

	return diffs
}
