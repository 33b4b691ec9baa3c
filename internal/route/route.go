// Package route models a race category: an ordered sequence of level
// sections a player's run is expected to pass through, used by the timing
// state machine and the minimap to resolve an observed position into a
// (section, page) coordinate.
package route

import "github.com/nesceptor/raceline/internal/smb"

// Section is one entry of a Category's route: a contiguous horizontal span
// of a single area.
type Section struct {
	Name  string     `json:"name"`
	AID   smb.AreaID `json:"aid"`
	Left  int32      `json:"left"`  // inclusive
	Right int32      `json:"right"` // exclusive
	World uint8      `json:"world"`
	Level uint8      `json:"level"`
}

// Width returns the pixel span of the section, excluding the final pixel
// (right-left-1); TotalWidth sums these across every section.
func (s Section) Width() int32 {
	return s.Right - s.Left - 1
}

// SectionPage names one (section index, page index) coordinate; used for
// the shortcut-skip exception list.
type SectionPage struct {
	Section int `json:"section"`
	Page    int `json:"page"`
}

// ShortcutSkip names one (from, to) section/page transition that must not
// record a timing split -- a documented category shortcut (e.g. a warp
// pipe) rather than ordinary forward progress.
type ShortcutSkip struct {
	From SectionPage `json:"from"`
	To   SectionPage `json:"to"`
}

// Category is an externally supplied ordered route plus any section/page
// transitions that must not record a timing split -- shortcuts like a
// section-2-page-2-to-section-5-page-1 warp are named as data here rather
// than hard-coded as a literal condition in the timing state machine.
type Category struct {
	Name         string         `json:"name"`
	Sections     []Section      `json:"sections"`
	ShortcutSkip []ShortcutSkip `json:"shortcut_skip"`
}

// TotalWidth computes the minimap composition width: the sum of each
// section's width plus a 16-pixel buffer between consecutive sections.
func (c Category) TotalWidth() int32 {
	var total int32
	for i, s := range c.Sections {
		total += s.Width()
		if i > 0 {
			total += 16
		}
	}
	return total
}

// InCategory resolves an observed (aid, apx, world, level) into the route
// section it belongs to, plus the category-relative x position used by the
// minimap and FollowFarthest camera mode. ok is false on a lookup miss,
// which callers treat as "not in category" -- no timing update, no
// minimap marker this frame.
func (c Category) InCategory(aid smb.AreaID, apx int32, world, level uint8) (sectionIndex int, categoryX int32, ok bool) {
	var accumulated int32
	for i, s := range c.Sections {
		if s.AID == aid && s.World == world && s.Level == level && apx >= s.Left && apx < s.Right {
			return i, accumulated + (apx - s.Left), true
		}
		accumulated += s.Width()
		if i < len(c.Sections)-1 {
			accumulated += 16
		}
	}
	return 0, 0, false
}

// Page returns the 256-pixel page index of apx within the given section.
func (s Section) Page(apx int32) int {
	return int((apx - s.Left) / 256)
}

// SkipsSplit reports whether the transition from (fromSection, fromPage) to
// (toSection, toPage) is a documented category shortcut that must not
// record a timing split.
func (c Category) SkipsSplit(fromSection, fromPage, toSection, toPage int) bool {
	from := SectionPage{Section: fromSection, Page: fromPage}
	to := SectionPage{Section: toSection, Page: toPage}
	for _, skip := range c.ShortcutSkip {
		if skip.From == from && skip.To == to {
			return true
		}
	}
	return false
}
