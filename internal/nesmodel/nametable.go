package nesmodel

// NameTable is one 1KB PPU nametable page: 32x30 tiles (0x3C0 bytes) plus a
// 64-byte attribute table.
type NameTable [0x400]byte

// FramePalette is the 32-byte PPU palette RAM. Entries 0x10, 0x14, 0x18 and
// 0x1c mirror 0x00, 0x04, 0x08 and 0x0c: a write to any index divisible by 4
// is also stored at that index XOR 0x10.
type FramePalette [32]byte

// OAM is the PPU's sprite attribute memory: 64 entries of 4 bytes.
type OAM [256]byte
