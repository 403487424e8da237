package si7021

import "github.com/sigurn/crc8"

// CRC-8 as used by the Si7021: polynomial x^8 + x^5 + x^4 + 1, initial
// value zero, no reflection, no final XOR.
var crcTable = crc8.MakeTable(crc8.Params{
	Poly:   0x31,
	Init:   0x00,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x00,
	Check:  0xa2,
	Name:   "CRC-8/SI7021",
})

// CRC8 is a running checksum. The zero value is ready to use. Successive
// calls to Update continue where the previous one left off, so a message
// received in several transfers can be checked piece by piece.
type CRC8 struct {
	crc byte
}

// Update feeds p into the checksum and returns the checksum so far.
func (c *CRC8) Update(p []byte) byte {
	c.crc = crc8.Update(c.crc, p, crcTable)
	return c.Sum()
}

// Sum returns the current checksum value.
func (c *CRC8) Sum() byte {
	return crc8.Complete(c.crc, crcTable)
}

// Checksum returns the CRC-8 of p.
func Checksum(p ...byte) byte {
	return crc8.Checksum(p, crcTable)
}
