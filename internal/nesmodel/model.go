// Package nesmodel folds parsed protocol messages into a running model of
// the observed console's CPU RAM, PPU registers, nametables, OAM, frame
// palette, and controller latch state.
package nesmodel

import "github.com/nesceptor/raceline/internal/protocol"

// PPU holds the subset of 2C02 register and memory state the NESceptor
// protocol lets us observe: control/mask latches, the scroll/address write
// toggles, sprite memory, palette RAM, and both nametable pages.
type PPU struct {
	Ctrl uint8
	Mask uint8

	Address     uint16
	XScroll     uint8
	YScroll     uint8
	AddrLatch   bool
	ScrollLatch bool

	OAMAddr uint8

	OAM          OAM
	FramePalette FramePalette
	Nametables   [2]NameTable
}

// Controller tracks the $4016-style serial shift-in protocol as observed
// over the bus: one bit is latched per ControllerInfo message while
// ReadWrite is set, and the latch resets to 0 on the write-low edge.
type Controller struct {
	State uint8
	Latch uint8

	prevReadWrite bool
}

// Model is the full reduced state of one observed NES console.
type Model struct {
	PoweredOn  bool
	M2         uint64
	RAM        [2048]byte
	PPU        PPU
	Controller Controller

	// soundLatch holds the first non-zero RamWrite value seen this batch
	// for each of the 6 consecutive SMB sound-queue addresses; soundSeen
	// tracks which slots have already been claimed. Both are cleared by
	// the projector once flushed into a FrameInfo.
	soundLatch [6]uint8
	soundSeen  [6]bool
}

// New returns a freshly reset Model.
func New() *Model {
	m := &Model{}
	m.Reset()
	return m
}

// Reset restores the model to its documented initial state: console
// powered off, m2 zeroed, all RAM/PPU/controller state cleared.
func (m *Model) Reset() {
	*m = Model{}
}

// SoundQueueBaseAddress is the RAM address of the first of 6 consecutive
// SMB sound-queue bytes (PauseSoundQueue, AreaMusicQueue, EventMusicQueue,
// NoiseSoundQueue, Square2SoundQueue, Square1SoundQueue).
const SoundQueueBaseAddress = 0x00fa

// Apply folds one successfully parsed message into the model, per the
// reducer rules. It returns true if this message represents either of the
// projector's two Output triggers: the 1->0 edge of ControllerInfo.ReadWrite,
// or an RstLow.
func (m *Model) Apply(msg protocol.Message) (frameBoundary bool) {
	if msg.Type == protocol.RstLow {
		m.Reset()
		return true
	}

	m.PoweredOn = true

	switch msg.Type {
	case protocol.M2Count:
		m.M2 = msg.M2()

	case protocol.RamWrite:
		address, value := msg.RamWriteFields()
		if int(address) < len(m.RAM) {
			m.RAM[address] = value
		}
		m.latchSoundQueue(address, value)

	case protocol.PpuCtrlWrite:
		m.PPU.Ctrl = msg.Data[0]

	case protocol.PpuMaskWrite:
		m.PPU.Mask = msg.Data[0]

	case protocol.PpuStatusRead:
		m.PPU.AddrLatch = false
		m.PPU.ScrollLatch = false

	case protocol.PpuScrollWrite:
		if !m.PPU.ScrollLatch {
			m.PPU.XScroll = msg.Data[0]
		} else {
			m.PPU.YScroll = msg.Data[0]
		}
		m.PPU.ScrollLatch = !m.PPU.ScrollLatch

	case protocol.PpuAddrWrite:
		if !m.PPU.AddrLatch {
			m.PPU.Address = uint16(msg.Data[0])<<8 | (m.PPU.Address & 0x00ff)
		} else {
			m.PPU.Address = (m.PPU.Address & 0xff00) | uint16(msg.Data[0])
		}
		m.PPU.AddrLatch = !m.PPU.AddrLatch

	case protocol.PpuDataWrite:
		m.writePPUData(msg.Data[0])

	case protocol.OamAddrWrite:
		m.PPU.OAMAddr = msg.Data[0]

	case protocol.OamDataWrite:
		m.PPU.OAM[m.PPU.OAMAddr] = msg.Data[0]
		m.PPU.OAMAddr++

	case protocol.OamDmaWrite:
		// Sprite DMA copies a whole RAM page into OAM; SMB DMAs from $0200
		// every frame rather than writing OAMDATA a byte at a time.
		page := int(msg.Data[0]) << 8
		if page+256 <= len(m.RAM) {
			copy(m.PPU.OAM[:], m.RAM[page:page+256])
		}

	case protocol.ControllerInfo:
		data := msg.Data[0]
		buttonPressed := data&protocol.ControllerInfoButtonPressed != 0
		readWrite := data&protocol.ControllerInfoReadWrite != 0

		if readWrite {
			if m.Controller.Latch < 8 {
				bit := uint8(1) << m.Controller.Latch
				if buttonPressed {
					m.Controller.State |= bit
				} else {
					m.Controller.State &^= bit
				}
				m.Controller.Latch++
			}
		} else {
			edge := m.Controller.prevReadWrite
			m.Controller.Latch = 0
			frameBoundary = edge
		}
		m.Controller.prevReadWrite = readWrite

	default:
		// OamDataRead, PpuDataRead: accepted, no-ops for projection.
	}

	return frameBoundary
}

func (m *Model) latchSoundQueue(address uint16, value uint8) {
	if address < SoundQueueBaseAddress || address >= SoundQueueBaseAddress+6 {
		return
	}
	if value == 0 {
		return
	}
	slot := address - SoundQueueBaseAddress
	if !m.soundSeen[slot] {
		m.soundSeen[slot] = true
		m.soundLatch[slot] = value
	}
}

// FlushSoundQueues returns the latched sound-queue bytes and clears the
// latch, for the projector to fold into a FrameInfo on Output emission.
func (m *Model) FlushSoundQueues() [6]uint8 {
	out := m.soundLatch
	m.soundLatch = [6]uint8{}
	m.soundSeen = [6]bool{}
	return out
}

func (m *Model) writePPUData(value uint8) {
	addr := m.PPU.Address

	switch {
	case addr >= 0x3F00 && addr <= 0x3FFF:
		idx := (addr - 0x3F00) % 32
		m.PPU.FramePalette[idx] = value
		if idx%4 == 0 {
			mirror := idx ^ 0x10
			m.PPU.FramePalette[mirror] = value
		}

	case addr >= 0x2000 && addr <= 0x2FFF:
		folded := addr
		if folded > 0x2800 {
			folded -= 0x800
		}
		folded -= 0x2000
		table := 0
		if folded >= 0x400 {
			table = 1
		}
		offset := folded % 0x400
		m.PPU.Nametables[table][offset] = value

	default:
		// Other PPU address ranges: no-op for projection purposes.
	}

	if m.PPU.Ctrl&0x04 != 0 {
		m.PPU.Address += 32
	} else {
		m.PPU.Address++
	}
}
