package bitstream

// ZigzagEncode maps a signed value onto an unsigned one so small
// magnitudes (either sign) occupy few bits: 0,-1,1,-2,2,... -> 0,1,2,3,4,...
func ZigzagEncode(value int32) uint32 {
	return (uint32(value) << 1) ^ uint32(value>>31)
}

// ZigzagDecode reverses ZigzagEncode.
func ZigzagDecode(value uint32) int32 {
	return int32(value>>1) ^ -int32(value&1)
}
