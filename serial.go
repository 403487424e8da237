package si7021

import "fmt"

// SerialNumberBuffer holds the two electronic ID transfers back to back:
// bytes 0-7 answer the first ID command, bytes 8-13 the second.
//
// First transfer:  SNA3 crc SNA2 crc SNA1 crc SNA0 crcA
// Second transfer: SNB3 SNB2 crc SNB1 SNB0 crcB
//
// The per-byte checksums at offsets 1, 3, 5 and 10 are not checked. Only
// the trailing checksum of each transfer, computed over its four data
// bytes, is.
type SerialNumberBuffer [14]byte

// GroupA returns the part of the buffer filled by the first ID command.
func (b *SerialNumberBuffer) GroupA() []byte {
	return b[0:8]
}

// GroupB returns the part of the buffer filled by the second ID command.
func (b *SerialNumberBuffer) GroupB() []byte {
	return b[8:14]
}

// Decode validates both transfers and assembles the 64 bit identifier,
// first transfer in the upper half.
func (b *SerialNumberBuffer) Decode() (uint64, error) {
	hi := [4]byte{b[0], b[2], b[4], b[6]}
	if Checksum(hi[:]...) != b[7] {
		return 0, ErrChecksum
	}
	lo := [4]byte{b[8], b[9], b[11], b[12]}
	if Checksum(lo[:]...) != b[13] {
		return 0, ErrChecksum
	}
	return uint64(be32(hi))<<32 | uint64(be32(lo)), nil
}

func be32(p [4]byte) uint32 {
	return uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8 | uint32(p[3])
}

// FormatSerial formats a serial number as 16 hex digits.
func FormatSerial(sn uint64) string {
	return fmt.Sprintf("%016x", sn)
}
