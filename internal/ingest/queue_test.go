package ingest

import (
	"testing"

	"github.com/nesceptor/raceline/internal/codec"
)

func TestOutputSlotGetNextDrainsOnce(t *testing.T) {
	s := newOutputSlot(4)
	a := &codec.Output{Elapsed: 1}
	b := &codec.Output{Elapsed: 2}
	s.push(a)
	s.push(b)

	got := s.GetNext()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("GetNext = %+v, want [a, b]", got)
	}
	if got := s.GetNext(); got != nil {
		t.Fatalf("second GetNext = %+v, want nil (already drained)", got)
	}
}

func TestOutputSlotGetLatestIsLossy(t *testing.T) {
	s := newOutputSlot(4)
	a := &codec.Output{Elapsed: 1}
	b := &codec.Output{Elapsed: 2}
	s.push(a)
	s.push(b)

	if got := s.GetLatest(); got != b {
		t.Fatalf("GetLatest = %+v, want most recent push", got)
	}
}

func TestOutputSlotEvictsOldestWhenFull(t *testing.T) {
	s := newOutputSlot(2)
	a := &codec.Output{Elapsed: 1}
	b := &codec.Output{Elapsed: 2}
	c := &codec.Output{Elapsed: 3}
	s.push(a)
	s.push(b)
	s.push(c)

	got := s.GetNext()
	if len(got) != 2 || got[0] != b || got[1] != c {
		t.Fatalf("GetNext after overflow = %+v, want [b, c]", got)
	}
}

func TestNewOutputSlotDefaultsCapacity(t *testing.T) {
	s := newOutputSlot(0)
	if s.capacity != DefaultNextQueueCapacity {
		t.Fatalf("capacity = %d, want %d", s.capacity, DefaultNextQueueCapacity)
	}
}
