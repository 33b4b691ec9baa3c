package nesmodel

import (
	"testing"

	"github.com/nesceptor/raceline/internal/protocol"
)

func TestResetOnRstLow(t *testing.T) {
	m := New()
	m.PoweredOn = true
	m.M2 = 12345
	m.RAM[10] = 0xAB
	m.PPU.Ctrl = 0xFF

	boundary := m.Apply(protocol.Message{Type: protocol.RstLow})
	if !boundary {
		t.Fatal("RstLow did not report a frame boundary")
	}
	if m.PoweredOn {
		t.Error("poweredOn should be false after RstLow")
	}
	if m.M2 != 0 {
		t.Errorf("m2 = %d, want 0", m.M2)
	}
	if m.RAM[10] != 0 {
		t.Errorf("RAM[10] = 0x%02x, want 0", m.RAM[10])
	}
	if m.PPU.Ctrl != 0 {
		t.Errorf("PPU.Ctrl = 0x%02x, want 0", m.PPU.Ctrl)
	}
}

func TestM2CountApply(t *testing.T) {
	m := New()
	m.Apply(protocol.Message{Type: protocol.M2Count, Data: [4]uint8{0x01, 0x02, 0x03, 0x04}})
	want := uint64(0x01)<<8 | uint64(0x02)<<16 | uint64(0x03)<<24 | uint64(0x04)<<32
	if m.M2 != want {
		t.Errorf("M2 = %d, want %d", m.M2, want)
	}
	if !m.PoweredOn {
		t.Error("expected PoweredOn after a non-RstLow message")
	}
}

func TestControllerInfoEdgeIsFrameBoundary(t *testing.T) {
	m := New()

	// Latch in button A (bit 0) as pressed.
	boundary := m.Apply(protocol.Message{Type: protocol.ControllerInfo,
		Data: [4]uint8{protocol.ControllerInfoReadWrite | protocol.ControllerInfoButtonPressed}})
	if boundary {
		t.Fatal("read/write high should not be a boundary")
	}
	if m.Controller.State&protocol.ButtonA == 0 {
		t.Error("button A should be latched pressed")
	}

	// The 1->0 edge on readWrite is the frame boundary.
	boundary = m.Apply(protocol.Message{Type: protocol.ControllerInfo, Data: [4]uint8{0}})
	if !boundary {
		t.Fatal("1->0 readWrite edge should report a frame boundary")
	}

	// A second low readWrite message in a row is not a new edge.
	boundary = m.Apply(protocol.Message{Type: protocol.ControllerInfo, Data: [4]uint8{0}})
	if boundary {
		t.Fatal("repeated low readWrite should not re-report a boundary")
	}
}

func TestPaletteMirroring(t *testing.T) {
	m := New()
	setAddr(m, 0x3F00)
	m.Apply(protocol.Message{Type: protocol.PpuDataWrite, Data: [4]uint8{0x20}})
	if m.PPU.FramePalette[0x00] != 0x20 || m.PPU.FramePalette[0x10] != 0x20 {
		t.Errorf("universal background write not mirrored: %v", m.PPU.FramePalette)
	}
}

func TestNametableAddressFolding(t *testing.T) {
	m := New()
	setAddr(m, 0x2c00) // mirror of 0x2400, table 1
	m.Apply(protocol.Message{Type: protocol.PpuDataWrite, Data: [4]uint8{0x55}})
	if m.PPU.Nametables[1][0] != 0x55 {
		t.Errorf("folded nametable write landed wrong: %v", m.PPU.Nametables[1][0])
	}
}

func TestSoundQueueLatchesFirstNonZeroPerBatch(t *testing.T) {
	m := New()
	write(m, SoundQueueBaseAddress+1, 5) // area music
	write(m, SoundQueueBaseAddress+1, 9) // should be ignored, already latched
	latch := m.FlushSoundQueues()
	if latch[1] != 5 {
		t.Errorf("area music latch = %d, want 5", latch[1])
	}

	// Flushing clears the latch for the next batch.
	write(m, SoundQueueBaseAddress+1, 9)
	latch = m.FlushSoundQueues()
	if latch[1] != 9 {
		t.Errorf("area music latch after flush = %d, want 9", latch[1])
	}
}

func TestOamDmaCopiesRAMPage(t *testing.T) {
	m := New()
	write(m, 0x0200, 100)  // sprite 0 y
	write(m, 0x0203, 40)   // sprite 0 x
	m.Apply(protocol.Message{Type: protocol.OamDmaWrite, Data: [4]uint8{0x02}})

	if m.PPU.OAM[0] != 100 || m.PPU.OAM[3] != 40 {
		t.Fatalf("OAM after DMA = %v %v, want 100 40", m.PPU.OAM[0], m.PPU.OAM[3])
	}
}

func TestOamDataWriteAdvancesAddr(t *testing.T) {
	m := New()
	m.Apply(protocol.Message{Type: protocol.OamAddrWrite, Data: [4]uint8{4}})
	m.Apply(protocol.Message{Type: protocol.OamDataWrite, Data: [4]uint8{0xAA}})
	m.Apply(protocol.Message{Type: protocol.OamDataWrite, Data: [4]uint8{0xBB}})

	if m.PPU.OAM[4] != 0xAA || m.PPU.OAM[5] != 0xBB {
		t.Fatalf("OAM[4..5] = %v %v, want AA BB", m.PPU.OAM[4], m.PPU.OAM[5])
	}
}

func setAddr(m *Model, addr uint16) {
	m.Apply(protocol.Message{Type: protocol.PpuAddrWrite, Data: [4]uint8{uint8(addr >> 8)}})
	m.Apply(protocol.Message{Type: protocol.PpuAddrWrite, Data: [4]uint8{uint8(addr & 0xff)}})
}

func write(m *Model, addr uint16, value uint8) {
	m.Apply(protocol.Message{Type: protocol.RamWrite, Data: [4]uint8{value, uint8(addr & 0xff), uint8(addr >> 8)}})
}
