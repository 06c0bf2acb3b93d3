// Package codec implements the eight variable-length integer decoders
// built on top of internal/bitstream: the tag-packed multi-value
// codecs (TAG2_3S32, TAG8_4S16 v1/v2, TAG8_8SVB), NEG_14BIT, and the
// Elias delta/gamma universal codes.
//
// Reference: blackbox-tools/src/decoders.c.
package codec

import "github.com/flightlog/blackbox/internal/bitstream"

// SignExtend interprets the low `bits` bits of value as a two's
// complement integer of that width and sign-extends it to int32.
func SignExtend(value uint32, bits uint) int32 {
	signBit := uint32(1) << (bits - 1)
	mask := (uint32(1) << bits) - 1
	value &= mask
	if value&signBit != 0 {
		return int32(value) - int32(mask) - 1
	}
	return int32(value)
}

// ReadNeg14Bit decodes the NEG_14BIT encoding: an unsigned VB whose low
// 14 bits are sign-extended, then negated.
func ReadNeg14Bit(c *bitstream.Cursor) int32 {
	return -SignExtend(c.ReadUnsignedVB(), 14)
}

// ReadTag2_3S32 decodes three signed 32-bit values packed behind a
// 2-bit scheme selector in the lead byte's top two bits.
func ReadTag2_3S32(c *bitstream.Cursor) [3]int32 {
	var values [3]int32
	lead, ok := c.ReadByte()
	if !ok {
		return values
	}

	switch lead >> 6 {
	case 0:
		values[0] = SignExtend(uint32(lead>>4)&0x03, 2)
		values[1] = SignExtend(uint32(lead>>2)&0x03, 2)
		values[2] = SignExtend(uint32(lead)&0x03, 2)

	case 1:
		values[0] = SignExtend(uint32(lead)&0x0F, 4)
		lead, _ = c.ReadByte()
		values[1] = SignExtend(uint32(lead>>4), 4)
		values[2] = SignExtend(uint32(lead)&0x0F, 4)

	case 2:
		values[0] = SignExtend(uint32(lead)&0x3F, 6)
		lead, _ = c.ReadByte()
		values[1] = SignExtend(uint32(lead)&0x3F, 6)
		lead, _ = c.ReadByte()
		values[2] = SignExtend(uint32(lead)&0x3F, 6)

	case 3:
		for i := 0; i < 3; i++ {
			switch lead & 0x03 {
			case 0: // 8-bit
				b1, _ := c.ReadByte()
				values[i] = int32(int8(b1))
			case 1: // 16-bit
				b1, _ := c.ReadByte()
				b2, _ := c.ReadByte()
				values[i] = int32(int16(uint16(b1) | uint16(b2)<<8))
			case 2: // 24-bit
				b1, _ := c.ReadByte()
				b2, _ := c.ReadByte()
				b3, _ := c.ReadByte()
				values[i] = SignExtend(uint32(b1)|uint32(b2)<<8|uint32(b3)<<16, 24)
			case 3: // 32-bit
				b1, _ := c.ReadByte()
				b2, _ := c.ReadByte()
				b3, _ := c.ReadByte()
				b4, _ := c.ReadByte()
				values[i] = int32(uint32(b1) | uint32(b2)<<8 | uint32(b3)<<16 | uint32(b4)<<24)
			}
			lead >>= 2
		}
	}

	return values
}

const (
	fieldZero  = 0
	field4Bit  = 1
	field8Bit  = 2
	field16Bit = 3
)

// ReadTag8_4S16V1 decodes four signed 16-bit values for data_version < 2.
// A FIELD_4BIT type code consumes one byte and emits two values (low
// nibble into slot i, high nibble into slot i+1), then advances past
// the next field's own type code — it does not re-check it. This is a
// faithful quirk of the source format, not a simplification: 4-bit
// fields of this encoding version only ever appear in adjacent pairs.
func ReadTag8_4S16V1(c *bitstream.Cursor) [4]int32 {
	var values [4]int32
	selector, _ := c.ReadByte()

	i := 0
	for i < 4 {
		switch selector & 0x03 {
		case fieldZero:
			values[i] = 0
		case field4Bit:
			combined, _ := c.ReadByte()
			values[i] = SignExtend(uint32(combined)&0x0F, 4)
			i++
			selector >>= 2
			if i < 4 {
				values[i] = SignExtend(uint32(combined>>4), 4)
			}
		case field8Bit:
			b, _ := c.ReadByte()
			values[i] = int32(int8(b))
		case field16Bit:
			b1, _ := c.ReadByte()
			b2, _ := c.ReadByte()
			values[i] = int32(int16(uint16(b1) | uint16(b2)<<8))
		}
		selector >>= 2
		i++
	}
	return values
}

// ReadTag8_4S16V2 decodes four signed 16-bit values for data_version >= 2.
// Here 4-bit values are packed with the first nibble in the high bits,
// and 8/16-bit values may straddle a one-nibble carry buffer left over
// from a preceding 4-bit field.
func ReadTag8_4S16V2(c *bitstream.Cursor) [4]int32 {
	var values [4]int32
	selector, _ := c.ReadByte()
	nibbleIndex := 0
	var buffer byte

	for i := 0; i < 4; i++ {
		switch selector & 0x03 {
		case fieldZero:
			values[i] = 0

		case field4Bit:
			if nibbleIndex == 0 {
				buffer, _ = c.ReadByte()
				values[i] = SignExtend(uint32(buffer>>4), 4)
				nibbleIndex = 1
			} else {
				values[i] = SignExtend(uint32(buffer)&0x0F, 4)
				nibbleIndex = 0
			}

		case field8Bit:
			if nibbleIndex == 0 {
				b, _ := c.ReadByte()
				values[i] = int32(int8(b))
			} else {
				v := (uint32(buffer) << 4) & 0xFF
				buffer, _ = c.ReadByte()
				v |= uint32(buffer) >> 4
				values[i] = int32(int8(v))
			}

		case field16Bit:
			if nibbleIndex == 0 {
				b1, _ := c.ReadByte()
				b2, _ := c.ReadByte()
				values[i] = int32(int16((uint16(b1) << 8) | uint16(b2)))
			} else {
				b1, _ := c.ReadByte()
				b2, _ := c.ReadByte()
				v := ((uint32(buffer) & 0x0F) << 12) | (uint32(b1) << 4) | (uint32(b2) >> 4)
				values[i] = int32(int16(v))
				buffer = b2
			}
		}
		selector >>= 2
	}
	return values
}

// ReadTag8_8SVB decodes up to 8 signed VB-encoded values. If count == 1
// a single VB is read directly; otherwise a presence header byte is
// read first, LSB first, one bit per slot.
func ReadTag8_8SVB(c *bitstream.Cursor, count int) [8]int32 {
	var values [8]int32
	if count == 1 {
		values[0] = c.ReadSignedVB()
		return values
	}

	header, _ := c.ReadByte()
	for i := 0; i < 8; i++ {
		if header&0x01 != 0 {
			values[i] = c.ReadSignedVB()
		}
		header >>= 1
	}
	return values
}

const maxBitRead = 32

// ReadEliasDeltaU32 decodes an Elias-Delta encoded unsigned 32-bit
// integer: a unary-coded length-of-length prefix, then the length, then
// the value. 0xFFFFFFFF is reserved as a one-bit escape for the two
// largest representable values.
func ReadEliasDeltaU32(c *bitstream.Cursor) uint32 {
	lengthValBits := 0
	for lengthValBits <= maxBitRead {
		bit, ok := c.ReadBit()
		if !ok {
			return 0
		}
		if bit != 0 {
			break
		}
		lengthValBits++
	}
	if c.EOF() || lengthValBits > maxBitRead {
		return 0
	}

	var lengthLowBits uint32
	if lengthValBits > 0 {
		lengthLowBits, _ = c.ReadBits(lengthValBits)
	}
	if c.EOF() {
		return 0
	}

	length := int((uint32(1)<<uint(lengthValBits) | lengthLowBits) - 1)
	if length > maxBitRead {
		return 0
	}

	var resultLowBits uint32
	if length > 0 {
		resultLowBits, _ = c.ReadBits(length)
	}
	if c.EOF() {
		return 0
	}

	result := (uint32(1) << uint(length)) | resultLowBits

	if result == 0xFFFFFFFF {
		escape, ok := c.ReadBit()
		if !ok {
			return 0
		}
		if escape == 0 {
			return 0xFFFFFFFE
		}
		return 0xFFFFFFFF
	}

	return result - 1
}

// ReadEliasDeltaS32 decodes a zigzag-wrapped Elias-Delta value.
func ReadEliasDeltaS32(c *bitstream.Cursor) int32 {
	return bitstream.ZigzagDecode(ReadEliasDeltaU32(c))
}

// ReadEliasGammaU32 decodes an Elias-Gamma encoded unsigned 32-bit
// integer: a unary-coded value-length prefix followed by the value's
// remaining bits. Shares the 0xFFFFFFFF escape with Elias-Delta.
func ReadEliasGammaU32(c *bitstream.Cursor) uint32 {
	valBits := 0
	for valBits <= maxBitRead {
		bit, ok := c.ReadBit()
		if !ok {
			return 0
		}
		valBits++
		if bit != 0 {
			break
		}
	}
	if c.EOF() || valBits > maxBitRead {
		return 0
	}

	var valueLowBits uint32
	if valBits > 1 {
		valueLowBits, _ = c.ReadBits(valBits - 1)
		if c.EOF() {
			return 0
		}
	}

	var result uint32
	if valBits > 0 {
		result = (uint32(1) << uint(valBits-1)) | valueLowBits
	} else {
		result = 1
	}

	if result == 0xFFFFFFFF {
		escape, ok := c.ReadBit()
		if !ok {
			return 0
		}
		if escape == 0 {
			return 0xFFFFFFFE
		}
		return 0xFFFFFFFF
	}

	return result - 1
}

// ReadEliasGammaS32 decodes a zigzag-wrapped Elias-Gamma value.
func ReadEliasGammaS32(c *bitstream.Cursor) int32 {
	return bitstream.ZigzagDecode(ReadEliasGammaU32(c))
}
