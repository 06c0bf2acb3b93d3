package frame

import "github.com/flightlog/blackbox/internal/schema"

// applyPredictor adds a predictor's contribution to the raw decoded
// scalar value, using the header's system config, the in-progress
// current row, the two history rows (nil if absent), and the parser's
// GPS-home publish buffer for the two HOME_COORD variants.
func (p *Parser) applyPredictor(fieldIndex int, predictor schema.Predictor, value int64,
	current *[schema.MaxFields]int64, prev, prev2 *[schema.MaxFields]int64) int64 {

	sys := p.header.SysConfig

	switch predictor {
	case schema.PredictorZero:
		// no contribution

	case schema.PredictorMinthrottle:
		value += int64(sys.Minthrottle)

	case schema.PredictorFifteenHundred:
		value += 1500

	case schema.PredictorMotor0:
		if idx := p.header.MainFieldIndexes.Motor[0]; idx >= 0 {
			value += current[idx]
		}

	case schema.PredictorVBatRef:
		value += int64(sys.VBatRef)

	case schema.PredictorMinMotor:
		value += int64(sys.MotorOutputLow)

	case schema.PredictorPrevious:
		if prev != nil {
			value += prev[fieldIndex]
		}

	case schema.PredictorStraightLine:
		if prev != nil && prev2 != nil {
			value += 2*prev[fieldIndex] - prev2[fieldIndex]
		}

	case schema.PredictorAverage2:
		if prev != nil && prev2 != nil {
			value += floorDiv2(prev[fieldIndex] + prev2[fieldIndex])
		}

	case schema.PredictorHomeCoord:
		if idx := p.header.GPSHomeFieldIndexes.GPSHome[0]; idx >= 0 {
			value += p.gpsHomePublished[idx]
		}

	case schema.PredictorHomeCoord1:
		if idx := p.header.GPSHomeFieldIndexes.GPSHome[1]; idx >= 0 {
			value += p.gpsHomePublished[idx]
		}

	case schema.PredictorLastMainFrameTime:
		if main := p.main.prevRow(); main != nil {
			value += main[schema.FieldIndexTime]
		}
	}

	return value
}

// floorDiv2 divides by two rounding towards negative infinity, matching
// Python's // operator on signed integers (Go's / truncates towards
// zero instead).
func floorDiv2(v int64) int64 {
	if v >= 0 {
		return v / 2
	}
	return -((-v + 1) / 2)
}

// truncate masks value to 32 bits (signed or unsigned), matching a
// declared field width other than 8 bytes. Width-8 fields (the time
// column) keep their full 64-bit value across rollover.
func truncate(value int64, signed int) int64 {
	v := uint32(value)
	if signed != 0 {
		return int64(int32(v))
	}
	return int64(v)
}
