package si7021

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	cases := []struct {
		in  []byte
		out byte
	}{
		{[]byte{0x84, 0x2c, 0xf9, 0xb1}, 0xa8},
		{[]byte{0x15, 0xff, 0xff, 0xff}, 0xcb},
		{[]byte{0xa1, 0xa6}, 0x51},
		{[]byte{0x66, 0x4c}, 0x4f},
		{nil, 0x00},
	}

	for _, tc := range cases {
		require.Equal(t, tc.out, Checksum(tc.in...), "checksum of % x", tc.in)
	}
}

func TestCRC8Incremental(t *testing.T) {
	// Electronic ID transfer: each data byte is followed by the checksum of
	// all data bytes so far.
	in := []byte{0x84, 0xbe, 0x2c, 0x5b, 0xf9, 0x9e, 0xb1, 0xa8}

	var c CRC8
	for i := 0; i < len(in); i += 2 {
		require.Equal(t, in[i+1], c.Update(in[i:i+1]), "after byte %d", i/2)
	}
	require.Equal(t, Checksum(0x84, 0x2c, 0xf9, 0xb1), c.Sum())
}

func TestCRC8ZeroValue(t *testing.T) {
	var c CRC8
	require.Equal(t, byte(0), c.Sum())
	require.Equal(t, byte(0), c.Update(nil))
}

func TestCRC8SingleBytes(t *testing.T) {
	// Bitwise reference for every one-byte message.
	for i := 0; i < 256; i++ {
		want := byte(i)
		for bit := 0; bit < 8; bit++ {
			if want&0x80 != 0 {
				want = want<<1 ^ 0x31
			} else {
				want <<= 1
			}
		}
		require.Equal(t, want, Checksum(byte(i)), "checksum of %#02x", i)
	}
}

func TestCRC8Check(t *testing.T) {
	// Catalogue check value: checksum of the ASCII digits 1 to 9.
	require.Equal(t, byte(0xa2), Checksum([]byte("123456789")...))
}
