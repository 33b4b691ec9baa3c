package smb

// OamX extends one raw OAM entry with the resolved sprite palette, since
// the frame palette needed to interpret attribute bits lives elsewhere in
// PPU state.
type OamX struct {
	X                 int32
	Y                 int32
	TileIndex         uint8
	Attributes        uint8
	PatternTableIndex uint8
	TilePalette       [4]uint8
}

// NtDiff is one background-tile (or attribute) byte that differs from the
// baseline nametable cache for this area/page.
type NtDiff struct {
	NametablePage int32
	Offset        int32
	Value         uint8
}

// TitleScreen carries the handful of nametable cells the title/demo screen
// renders its score, coins, world/level, and remaining lives through.
type TitleScreen struct {
	ScoreTiles [7]uint8
	CoinTiles  [2]uint8
	WorldTile  uint8
	LevelTile  uint8
	LifeTiles  [2]uint8
}

// SoundQueues is the latched snapshot of the 6 SMB sound-queue RAM bytes at
// the moment an Output was emitted.
type SoundQueues struct {
	Pause      uint8
	AreaMusic  uint8
	EventMusic uint8
	Noise      uint8
	Square2    uint8
	Square1    uint8
}

// FrameInfo is the semantic snapshot the projector produces once per
// observed game frame.
type FrameInfo struct {
	AID      AreaID
	PrevAPX  int32
	APX      int32

	GameEngineSubroutine uint8
	OperMode             uint8
	IntervalTimerControl uint8

	OamExt   []OamX
	NtDiffs  []NtDiff
	TopRows  []uint8 // 32*5 bytes: status-bar tiles + attributes, nametable 0.

	World uint8
	Level uint8

	TitleScreen TitleScreen

	Time int32

	SoundQueues SoundQueues
}
