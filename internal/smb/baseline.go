package smb

import "github.com/nesceptor/raceline/internal/nesmodel"

// baselineKey keys the nametable baseline cache by area and scroll page.
type baselineKey struct {
	aid  AreaID
	page int32
}

// BaselineCache holds a known-good nametable snapshot per (area, page),
// against which the projector diffs the live PPU nametables to produce
// NtDiffs. It is supplied by the caller -- the static ROM/nametable asset
// store lives outside this package -- and is safe for concurrent read
// access once populated.
type BaselineCache struct {
	pages map[baselineKey]nesmodel.NameTable
}

// NewBaselineCache returns an empty cache; call Put to seed known pages.
func NewBaselineCache() *BaselineCache {
	return &BaselineCache{pages: make(map[baselineKey]nesmodel.NameTable)}
}

// Put registers the baseline nametable for the given area/page.
func (c *BaselineCache) Put(aid AreaID, page int32, nt nesmodel.NameTable) {
	c.pages[baselineKey{aid, page}] = nt
}

// Get returns the baseline nametable for (aid, page) and whether it was
// found; a miss means no diffs can be computed for that page (treated as
// "no diff available", not an error).
func (c *BaselineCache) Get(aid AreaID, page int32) (nesmodel.NameTable, bool) {
	nt, ok := c.pages[baselineKey{aid, page}]
	return nt, ok
}
