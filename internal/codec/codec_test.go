package codec

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flightlog/blackbox/internal/bitstream"
)

// bitWriter accumulates individual bits MSB-first into bytes, mirroring
// the bit order internal/bitstream.Cursor reads in. Test-only: the
// package under test never writes bits, only decodes them.
type bitWriter struct {
	buf     []byte
	cur     byte
	nFilled int
}

func (w *bitWriter) writeBit(b uint32) {
	w.cur = w.cur<<1 | byte(b&1)
	w.nFilled++
	if w.nFilled == 8 {
		w.buf = append(w.buf, w.cur)
		w.cur = 0
		w.nFilled = 0
	}
}

func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit((v >> uint(i)) & 1)
	}
}

func (w *bitWriter) bytes() []byte {
	out := w.buf
	if w.nFilled > 0 {
		out = append(out, w.cur<<uint(8-w.nFilled))
	}
	return out
}

func newCursorFromBits(w *bitWriter) *bitstream.Cursor {
	buf := w.bytes()
	return bitstream.NewCursor(buf, 0, len(buf))
}

func TestSignExtendProperty(t *testing.T) {
	for _, width := range []uint{2, 4, 6} {
		span := uint32(1) << width
		for v := uint32(0); v < span; v++ {
			got := SignExtend(v, width)
			require.GreaterOrEqual(t, got, -int32(span/2))
			require.Less(t, got, int32(span/2))
			if v < span/2 {
				require.Equal(t, int32(v), got)
			} else {
				require.Equal(t, int32(v)-int32(span), got)
			}
		}
	}
}

func TestSignExtendWideWidthsSampled(t *testing.T) {
	for _, width := range []uint{14, 24} {
		span := uint32(1) << width
		samples := []uint32{0, 1, span/2 - 1, span / 2, span/2 + 1, span - 1}
		for _, v := range samples {
			got := SignExtend(v, width)
			require.GreaterOrEqual(t, got, -int32(span/2))
			require.Less(t, got, int32(span/2))
			if v < span/2 {
				require.Equal(t, int32(v), got)
			} else {
				require.Equal(t, int32(v)-int32(span), got)
			}
		}
	}
}

func TestSignExtend24BitSampled(t *testing.T) {
	cases := []uint32{0, 1, 0x7FFFFF, 0x800000, 0xFFFFFF}
	want := []int32{0, 1, 0x7FFFFF, -0x800000, -1}
	for i, v := range cases {
		require.Equal(t, want[i], SignExtend(v, 24))
	}
}

func TestReadNeg14Bit(t *testing.T) {
	// VB-encode the unsigned value 5: single byte 0x05.
	c := bitstream.NewCursor([]byte{0x05}, 0, 1)
	require.Equal(t, int32(-5), ReadNeg14Bit(c))
}

func TestReadTag2_3S32Scheme0(t *testing.T) {
	// top bits 00, fields (bits5-4,3-2,1-0) = (1, 3, 2) as 2-bit patterns.
	lead := byte(0b00_01_11_10)
	c := bitstream.NewCursor([]byte{lead}, 0, 1)
	got := ReadTag2_3S32(c)
	require.Equal(t, [3]int32{SignExtend(1, 2), SignExtend(3, 2), SignExtend(2, 2)}, got)
}

func TestReadTag2_3S32Scheme3_32bit(t *testing.T) {
	lead := byte(0b11_111111) // scheme 3, all fields 32-bit (size selector 3 repeated)
	buf := []byte{lead,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}
	c := bitstream.NewCursor(buf, 0, len(buf))
	got := ReadTag2_3S32(c)
	require.Equal(t, [3]int32{1, 2, 3}, got)
}

func TestReadTag8_4S16V1(t *testing.T) {
	// selector: field0=ZERO, field1=8BIT, field2=16BIT, field3=ZERO
	selector := byte(fieldZero | field8Bit<<2 | field16Bit<<4 | fieldZero<<6)
	buf := []byte{selector, 0x7F, 0x34, 0x12}
	c := bitstream.NewCursor(buf, 0, len(buf))
	got := ReadTag8_4S16V1(c)
	require.Equal(t, [4]int32{0, 127, int32(int16(0x1234)), 0}, got)
}

func TestReadTag8_4S16V1FourBitPairing(t *testing.T) {
	// both fields are 4-bit: packed into one byte, first value low nibble.
	selector := byte(field4Bit | field4Bit<<2)
	combined := byte(0x3<<4 | 0xE) // high nibble=3 (second value), low nibble=0xE=-2
	buf := []byte{selector, combined}
	c := bitstream.NewCursor(buf, 0, len(buf))
	got := ReadTag8_4S16V1(c)
	require.Equal(t, int32(-2), got[0])
	require.Equal(t, int32(3), got[1])
}

func TestReadTag8_8SVBSingle(t *testing.T) {
	buf := []byte{0x02} // VB(2) zigzag-decoded -> 1
	c := bitstream.NewCursor(buf, 0, len(buf))
	got := ReadTag8_8SVB(c, 1)
	require.Equal(t, int32(1), got[0])
	for i := 1; i < 8; i++ {
		require.Equal(t, int32(0), got[i])
	}
}

func TestReadTag8_8SVBMultiple(t *testing.T) {
	// header selects slots 0 and 2.
	header := byte(0x01 | 0x04)
	buf := []byte{header, 0x02, 0x04} // VB(2)->1 for slot0, VB(4)->2 for slot2
	c := bitstream.NewCursor(buf, 0, len(buf))
	got := ReadTag8_8SVB(c, 8)
	require.Equal(t, int32(1), got[0])
	require.Equal(t, int32(0), got[1])
	require.Equal(t, int32(2), got[2])
}

// eliasDeltaEncode writes the Elias-Delta codeword for v into w, per
// the inverse of ReadEliasDeltaU32's algorithm. v must be in
// [0, 0xFFFFFFFF]; 0xFFFFFFFE and 0xFFFFFFFF share the same normal
// codeword and are disambiguated by a trailing escape bit.
func eliasDeltaEncode(w *bitWriter, v uint32) {
	var result uint32
	if v == 0xFFFFFFFE || v == 0xFFFFFFFF {
		result = 0xFFFFFFFF
	} else {
		result = v + 1
	}

	length := bits.Len32(result) - 1
	lowBits := result &^ (uint32(1) << uint(length))

	m := uint32(length + 1)
	lengthValBits := bits.Len32(m) - 1
	lengthLowBits := m &^ (uint32(1) << uint(lengthValBits))

	for i := 0; i < lengthValBits; i++ {
		w.writeBit(0)
	}
	w.writeBit(1)
	if lengthValBits > 0 {
		w.writeBits(lengthLowBits, lengthValBits)
	}
	if length > 0 {
		w.writeBits(lowBits, length)
	}

	if v == 0xFFFFFFFE {
		w.writeBit(0)
	} else if v == 0xFFFFFFFF {
		w.writeBit(1)
	}
}

func eliasGammaEncode(w *bitWriter, v uint32) {
	var result uint32
	if v == 0xFFFFFFFE || v == 0xFFFFFFFF {
		result = 0xFFFFFFFF
	} else {
		result = v + 1
	}

	valBits := bits.Len32(result)
	lowBits := result &^ (uint32(1) << uint(valBits-1))

	for i := 0; i < valBits-1; i++ {
		w.writeBit(0)
	}
	w.writeBit(1)
	if valBits > 1 {
		w.writeBits(lowBits, valBits-1)
	}

	if v == 0xFFFFFFFE {
		w.writeBit(0)
	} else if v == 0xFFFFFFFF {
		w.writeBit(1)
	}
}

func TestEliasDeltaRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 2, 15, 16, 1000, 1 << 20, 1<<31 - 1, 0xFFFFFFFE, 0xFFFFFFFF}
	for _, v := range values {
		w := &bitWriter{}
		eliasDeltaEncode(w, v)
		c := newCursorFromBits(w)
		require.Equal(t, v, ReadEliasDeltaU32(c), "value %#x", v)
	}
}

func TestEliasGammaRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 2, 15, 16, 1000, 1 << 20, 1<<31 - 1, 0xFFFFFFFE, 0xFFFFFFFF}
	for _, v := range values {
		w := &bitWriter{}
		eliasGammaEncode(w, v)
		c := newCursorFromBits(w)
		require.Equal(t, v, ReadEliasGammaU32(c), "value %#x", v)
	}
}

func TestEliasDeltaSignedRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 1000, -1000}
	for _, v := range values {
		w := &bitWriter{}
		eliasDeltaEncode(w, bitstream.ZigzagEncode(v))
		c := newCursorFromBits(w)
		require.Equal(t, v, ReadEliasDeltaS32(c))
	}
}
