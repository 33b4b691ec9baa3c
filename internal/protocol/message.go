// Package protocol decodes the NESceptor wire format: a framed byte stream
// observed off an NES console's CPU/PPU bus and shipped over a serial link.
package protocol

import "fmt"

// MessageType identifies the kind of bus event a Message reports.
type MessageType uint8

// Message type codes as emitted by the NESceptor hardware, bit-exact.
const (
	RstLow         MessageType = 0x01
	M2Count        MessageType = 0x02
	ControllerInfo MessageType = 0x04
	RamWrite       MessageType = 0x05
	PpuCtrlWrite   MessageType = 0x07
	PpuMaskWrite   MessageType = 0x08
	PpuStatusRead  MessageType = 0x09
	OamAddrWrite   MessageType = 0x0a
	OamDataWrite   MessageType = 0x0b
	OamDataRead    MessageType = 0x0c
	PpuScrollWrite MessageType = 0x0d
	PpuAddrWrite   MessageType = 0x0e
	PpuDataWrite   MessageType = 0x0f
	PpuDataRead    MessageType = 0x10
	OamDmaWrite    MessageType = 0x11
)

func (t MessageType) String() string {
	switch t {
	case RstLow:
		return "RstLow"
	case M2Count:
		return "M2Count"
	case ControllerInfo:
		return "ControllerInfo"
	case RamWrite:
		return "RamWrite"
	case PpuCtrlWrite:
		return "PpuCtrlWrite"
	case PpuMaskWrite:
		return "PpuMaskWrite"
	case PpuStatusRead:
		return "PpuStatusRead"
	case OamAddrWrite:
		return "OamAddrWrite"
	case OamDataWrite:
		return "OamDataWrite"
	case OamDataRead:
		return "OamDataRead"
	case PpuScrollWrite:
		return "PpuScrollWrite"
	case PpuAddrWrite:
		return "PpuAddrWrite"
	case PpuDataWrite:
		return "PpuDataWrite"
	case PpuDataRead:
		return "PpuDataRead"
	case OamDmaWrite:
		return "OamDmaWrite"
	default:
		return fmt.Sprintf("MessageType(0x%02x)", uint8(t))
	}
}

// ControllerInfo data[0] bit layout.
const (
	ControllerInfoButtonPressed = 1 << 0
	ControllerInfoReadWrite     = 1 << 1
)

// Controller button bit layout, NES convention.
const (
	ButtonA      uint8 = 0x01
	ButtonB      uint8 = 0x02
	ButtonSelect uint8 = 0x04
	ButtonStart  uint8 = 0x08
	ButtonUp     uint8 = 0x10
	ButtonDown   uint8 = 0x20
	ButtonLeft   uint8 = 0x40
	ButtonRight  uint8 = 0x80
)

// DefaultBaud is the NESceptor's default serial baud rate.
const DefaultBaud = 4_000_000

// Message is a single decoded protocol unit.
type Message struct {
	Type MessageType
	Size uint8
	Data [4]uint8
}

// RamWriteFields extracts the address/value pair from a RamWrite message.
// Valid only when Type == RamWrite (Size == 3).
func (m Message) RamWriteFields() (address uint16, value uint8) {
	value = m.Data[0]
	address = uint16(m.Data[1]) | (uint16(m.Data[2]) & 0x7 << 8)
	return address, value
}

// M2 assembles the cycle count carried by an M2Count message. The hardware
// only reports m2/256, so the low 8 bits are always zero: data[0] fills bits
// 8-15, data[1] bits 16-23, data[2] bits 24-31, data[3] bits 32-39.
func (m Message) M2() uint64 {
	return uint64(m.Data[0])<<8 | uint64(m.Data[1])<<16 | uint64(m.Data[2])<<24 | uint64(m.Data[3])<<32
}
