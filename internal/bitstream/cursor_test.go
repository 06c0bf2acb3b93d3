package bitstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZigzagRoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 2, -2, 1000, -1000, 1 << 20, -(1 << 20), 1<<31 - 1, -(1 << 31)}
	for _, c := range cases {
		enc := ZigzagEncode(c)
		require.Equal(t, c, ZigzagDecode(enc), "value %d", c)
	}
}

func TestZigzagSmallMagnitudesStayNarrow(t *testing.T) {
	require.Equal(t, uint32(0), ZigzagEncode(0))
	require.Equal(t, uint32(1), ZigzagEncode(-1))
	require.Equal(t, uint32(2), ZigzagEncode(1))
	require.Equal(t, uint32(3), ZigzagEncode(-2))
	require.Equal(t, uint32(4), ZigzagEncode(2))
}

func encodeUnsignedVB(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func TestReadUnsignedVBRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 300, 1 << 20, 1<<28 - 1}
	for _, v := range values {
		buf := encodeUnsignedVB(v)
		c := NewCursor(buf, 0, len(buf))
		require.Equal(t, v, c.ReadUnsignedVB())
	}
}

func TestReadUnsignedVBTooLongReturnsZero(t *testing.T) {
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	c := NewCursor(buf, 0, len(buf))
	require.Equal(t, uint32(0), c.ReadUnsignedVB())
}

func TestReadUnsignedVBShortReadReturnsZero(t *testing.T) {
	buf := []byte{0x80, 0x80}
	c := NewCursor(buf, 0, len(buf))
	require.Equal(t, uint32(0), c.ReadUnsignedVB())
	require.True(t, c.EOF())
}

func TestReadSignedVBRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 1000, -1000}
	for _, v := range values {
		buf := encodeUnsignedVB(ZigzagEncode(v))
		c := NewCursor(buf, 0, len(buf))
		require.Equal(t, v, c.ReadSignedVB())
	}
}

func TestReadBitsMSBFirst(t *testing.T) {
	buf := []byte{0xB4} // 1011 0100
	c := NewCursor(buf, 0, len(buf))
	for _, want := range []uint32{1, 0, 1, 1, 0, 1, 0, 0} {
		got, ok := c.ReadBit()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestReadBitsAcrossByteBoundary(t *testing.T) {
	buf := []byte{0xFF, 0x00}
	c := NewCursor(buf, 0, len(buf))
	v, ok := c.ReadBits(12)
	require.True(t, ok)
	require.Equal(t, uint32(0xFF0)>>0, v)
}

func TestByteAlignAdvancesToNextByte(t *testing.T) {
	buf := []byte{0xFF, 0xAB}
	c := NewCursor(buf, 0, len(buf))
	_, _ = c.ReadBits(3)
	c.ByteAlign()
	b, ok := c.ReadByte()
	require.True(t, ok)
	require.Equal(t, byte(0xAB), b)
}

func TestPeekByteDoesNotAdvance(t *testing.T) {
	buf := []byte{0x42, 0x43}
	c := NewCursor(buf, 0, len(buf))
	p, ok := c.PeekByte()
	require.True(t, ok)
	require.Equal(t, byte(0x42), p)
	b, ok := c.ReadByte()
	require.True(t, ok)
	require.Equal(t, byte(0x42), b)
}

func TestUnreadByteRewindsOne(t *testing.T) {
	buf := []byte{0x10, 0x20}
	c := NewCursor(buf, 0, len(buf))
	_, _ = c.ReadByte()
	c.UnreadByte()
	b, ok := c.ReadByte()
	require.True(t, ok)
	require.Equal(t, byte(0x10), b)
}

func TestEOFIsSticky(t *testing.T) {
	buf := []byte{0x01}
	c := NewCursor(buf, 0, len(buf))
	_, ok := c.ReadByte()
	require.True(t, ok)
	_, ok = c.ReadByte()
	require.False(t, ok)
	require.True(t, c.EOF())
}

func TestReadS16LELittleEndian(t *testing.T) {
	buf := []byte{0x34, 0x12}
	c := NewCursor(buf, 0, len(buf))
	require.Equal(t, int16(0x1234), c.ReadS16LE())
}

func TestReadF32LE(t *testing.T) {
	// 1.0f = 0x3F800000
	buf := []byte{0x00, 0x00, 0x80, 0x3F}
	c := NewCursor(buf, 0, len(buf))
	require.InDelta(t, float32(1.0), c.ReadF32LE(), 1e-9)
}
