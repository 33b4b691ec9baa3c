package route

import (
	"testing"

	"github.com/nesceptor/raceline/internal/smb"
)

func testCategory() Category {
	return Category{
		Name: "any%",
		Sections: []Section{
			{Name: "1-1", AID: smb.GroundArea6, Left: 0, Right: 512, World: 1, Level: 1},
			{Name: "1-2", AID: smb.UndergroundArea1, Left: 0, Right: 768, World: 1, Level: 2},
		},
		ShortcutSkip: []ShortcutSkip{
			{From: SectionPage{Section: 0, Page: 1}, To: SectionPage{Section: 1, Page: 2}},
		},
	}
}

func TestTotalWidth(t *testing.T) {
	cat := testCategory()
	want := cat.Sections[0].Width() + 16 + cat.Sections[1].Width()
	if got := cat.TotalWidth(); got != want {
		t.Errorf("TotalWidth = %d, want %d", got, want)
	}
}

func TestInCategoryMatchAndMiss(t *testing.T) {
	cat := testCategory()

	idx, x, ok := cat.InCategory(smb.GroundArea6, 100, 1, 1)
	if !ok || idx != 0 || x != 100 {
		t.Errorf("section 0 lookup = (%d, %d, %v), want (0, 100, true)", idx, x, ok)
	}

	idx, x, ok = cat.InCategory(smb.UndergroundArea1, 50, 1, 2)
	if !ok || idx != 1 {
		t.Errorf("section 1 lookup = (%d, %d, %v), want idx 1", idx, x, ok)
	}
	wantX := cat.Sections[0].Width() + 16 + 50
	if x != wantX {
		t.Errorf("section 1 categoryX = %d, want %d", x, wantX)
	}

	_, _, ok = cat.InCategory(smb.GroundArea6, 9999, 1, 1)
	if ok {
		t.Error("out-of-range apx should miss")
	}
	_, _, ok = cat.InCategory(smb.WaterArea8, 10, 1, 1)
	if ok {
		t.Error("wrong area id should miss")
	}
}

func TestSectionPage(t *testing.T) {
	s := Section{Left: 100, Right: 900}
	cases := map[int32]int{100: 0, 355: 0, 356: 1, 611: 1, 612: 2}
	for apx, want := range cases {
		if got := s.Page(apx); got != want {
			t.Errorf("Page(%d) = %d, want %d", apx, got, want)
		}
	}
}

func TestSkipsSplit(t *testing.T) {
	cat := testCategory()
	if !cat.SkipsSplit(0, 1, 1, 2) {
		t.Error("documented shortcut should be skipped")
	}
	if cat.SkipsSplit(0, 1, 1, 3) {
		t.Error("undocumented transition should not be skipped")
	}
}
