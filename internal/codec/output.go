// Package codec defines the message-processor Output snapshot and its
// deterministic, versioned binary encoding.
package codec

import (
	"github.com/nesceptor/raceline/internal/nesmodel"
	"github.com/nesceptor/raceline/internal/smb"
)

// Output is one immutable snapshot produced by a worker each time the
// projector fires. Once constructed it is never mutated; callers share it
// by holding a *Output reference.
type Output struct {
	Elapsed    int64 // milliseconds since the producer started
	PoweredOn  bool
	M2         uint64
	UserM2     uint64
	Controller uint8

	Frame        smb.FrameInfo
	FramePalette nesmodel.FramePalette
}
