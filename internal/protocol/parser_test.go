package protocol

import "testing"

func TestParserIdleSizeOnlyMessage(t *testing.T) {
	var p Parser

	_, status := p.Feed(0x8A)
	if status != Again {
		t.Fatalf("type byte: got %v, want Again", status)
	}

	msg, status := p.Feed(0x00)
	if status != Success {
		t.Fatalf("size byte: got %v, want Success", status)
	}
	want := Message{Type: 0x0A, Size: 0, Data: [4]uint8{0, 0, 0, 0}}
	if msg != want {
		t.Fatalf("got %+v, want %+v", msg, want)
	}
}

func TestParserSizeOneReconstructedData(t *testing.T) {
	var p Parser

	if _, status := p.Feed(0xA1); status != Again {
		t.Fatalf("type byte: got %v", status)
	}
	if _, status := p.Feed(0x18); status != Again {
		t.Fatalf("size byte: got %v", status)
	}
	msg, status := p.Feed(0x7F)
	if status != Success {
		t.Fatalf("data byte: got %v, want Success", status)
	}
	if msg.Type != 0x21 || msg.Size != 1 {
		t.Fatalf("got type=0x%02x size=%d", msg.Type, msg.Size)
	}
	if msg.Data[0] != 0xFF {
		t.Fatalf("data[0] = 0x%02x, want 0xFF", msg.Data[0])
	}
}

func TestParserResyncOnBadDataByte(t *testing.T) {
	var p Parser
	bytes := []uint8{0xA9, 0x3A, 0x0F, 0x8F}
	want := []Status{Again, Again, Again, InvalidDataHighBitSet}

	for i, b := range bytes {
		_, status := p.Feed(b)
		if status != want[i] {
			t.Fatalf("byte %d (0x%02x): got %v, want %v", i, b, status, want[i])
		}
	}
	if p.State() != Waiting {
		t.Fatalf("state after resync = %v, want Waiting", p.State())
	}
	if p.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", p.ErrorCount())
	}
}

func TestParserRejectsOutOfRangeSize(t *testing.T) {
	var p Parser
	if _, status := p.Feed(0x81); status != Again {
		t.Fatalf("type byte: got %v", status)
	}
	_, status := p.Feed(0x50) // size bits claim 5, beyond the 4-byte data array
	if status != InvalidSizeTooLarge {
		t.Fatalf("got %v, want InvalidSizeTooLarge", status)
	}
	if p.State() != Waiting {
		t.Fatalf("state = %v, want Waiting", p.State())
	}
}

func TestParserNeverPanics(t *testing.T) {
	var p Parser
	seqs := [][]uint8{
		{0x00, 0x00, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x81, 0xFF, 0x00, 0x00, 0x00, 0x00},
		{0x81, 0x00, 0x80, 0x80, 0x80, 0x80},
	}
	for _, seq := range seqs {
		for _, b := range seq {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Feed(0x%02x) panicked: %v", b, r)
					}
				}()
				msg, status := p.Feed(b)
				if status == Success {
					if msg.Type > 0x7F {
						t.Fatalf("success message type 0x%02x exceeds 0x7F", msg.Type)
					}
					if msg.Size > 4 {
						t.Fatalf("success message size %d exceeds 4", msg.Size)
					}
					for i := 0; i < int(msg.Size); i++ {
						if msg.Data[i] >= 0x80 {
							t.Fatalf("data[%d] = 0x%02x has high bit set", i, msg.Data[i])
						}
					}
				}
			}()
		}
	}
}

func TestStatusIsError(t *testing.T) {
	cases := map[Status]bool{
		Again:                 false,
		Success:               false,
		WarningByteIgnored:    false,
		InvalidTypeNoHighBit:  true,
		InvalidSizeHighBitSet: true,
		InvalidSizeTooLarge:   true,
		InvalidDataHighBitSet: true,
	}
	for status, want := range cases {
		if got := status.IsError(); got != want {
			t.Errorf("%v.IsError() = %v, want %v", status, got, want)
		}
	}
}
