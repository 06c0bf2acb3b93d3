package frame

import (
	"github.com/flightlog/blackbox/internal/bitstream"
	"github.com/flightlog/blackbox/internal/codec"
	"github.com/flightlog/blackbox/internal/schema"
	"go.uber.org/zap"
)

// Parser is the stateful decoder for a single log's frame stream: the
// main-frame history ring, GPS/slow/event last-seen state, and the
// rollover/validation counters.
type Parser struct {
	header *schema.Header
	log    *zap.Logger

	main             *historyRing
	mainStreamValid  bool
	lastGPS          [schema.MaxFields]int64
	gpsHomeCurrent   [schema.MaxFields]int64
	gpsHomePublished [schema.MaxFields]int64
	gpsHomeValid     bool
	lastSlow         [schema.MaxFields]int64
	lastEvent        Event

	timeRolloverAccumulator int64
	lastMainFrameIteration  int64
	lastMainFrameTime       int64
	lastSkippedFrames       int

	FrameStats map[byte]*FrameTypeStats
}

// FrameTypeStats accumulates per-frame-type counts, a convenience not
// present in the base row/counter model.
type FrameTypeStats struct {
	Count int
	Bytes int
}

const sentinelNone = -1

// NewParser returns a Parser ready to decode h's frame stream.
func NewParser(h *schema.Header, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		header:                  h,
		log:                     log,
		main:                    newHistoryRing(),
		lastMainFrameIteration:  sentinelNone,
		lastMainFrameTime:       sentinelNone,
		FrameStats:              make(map[byte]*FrameTypeStats),
	}
}

// MainStreamValid reports whether the most recent main-frame commit
// left the stream in a valid (continuous) state.
func (p *Parser) MainStreamValid() bool { return p.mainStreamValid }

// recordStats tallies one decoded frame of frameType spanning nBytes.
func (p *Parser) recordStats(frameType byte, nBytes int) {
	s := p.FrameStats[frameType]
	if s == nil {
		s = &FrameTypeStats{}
		p.FrameStats[frameType] = s
	}
	s.Count++
	s.Bytes += nBytes
}

// parseFrame runs the generic field loop shared by every frame type,
// decoding frame.FieldCount fields from c into row, consulting
// previous/previous2 for predictors that need history.
func (p *Parser) parseFrame(c *bitstream.Cursor, frameType byte, row *[schema.MaxFields]int64,
	previous, previous2 *[schema.MaxFields]int64, skippedFrames int, raw bool) {

	def := p.header.FrameDefs[frameType]
	if def == nil {
		return
	}

	i := 0
	for i < def.FieldCount {
		if def.Predictor[i] == schema.PredictorInc {
			row[i] = int64(skippedFrames + 1)
			if previous != nil {
				row[i] += previous[i]
			}
			i++
			continue
		}

		enc := def.Encoding[i]
		pred := def.Predictor[i]
		if raw {
			pred = schema.PredictorZero
		}

		switch enc {
		case schema.EncodingSignedVB:
			c.ByteAlign()
			v := int64(c.ReadSignedVB())
			row[i] = p.applyPredictor(i, pred, v, row, previous, previous2)
			if def.Width[i] != 8 {
				row[i] = truncate(row[i], def.Signed[i])
			}
			i++

		case schema.EncodingUnsignedVB:
			c.ByteAlign()
			v := int64(c.ReadUnsignedVB())
			row[i] = p.applyPredictor(i, pred, v, row, previous, previous2)
			if def.Width[i] != 8 {
				row[i] = truncate(row[i], def.Signed[i])
			}
			i++

		case schema.EncodingNeg14Bit:
			c.ByteAlign()
			v := int64(codec.ReadNeg14Bit(c))
			row[i] = p.applyPredictor(i, pred, v, row, previous, previous2)
			if def.Width[i] != 8 {
				row[i] = truncate(row[i], def.Signed[i])
			}
			i++

		case schema.EncodingTag8_4S16:
			c.ByteAlign()
			var values [4]int32
			if p.header.DataVersion < 2 {
				values = codec.ReadTag8_4S16V1(c)
			} else {
				values = codec.ReadTag8_4S16V2(c)
			}
			for j := 0; j < 4 && i < def.FieldCount; j++ {
				fp := def.Predictor[i]
				if raw {
					fp = schema.PredictorZero
				}
				row[i] = p.applyPredictor(i, fp, int64(values[j]), row, previous, previous2)
				i++
			}

		case schema.EncodingTag2_3S32:
			c.ByteAlign()
			values := codec.ReadTag2_3S32(c)
			for j := 0; j < 3 && i < def.FieldCount; j++ {
				fp := def.Predictor[i]
				if raw {
					fp = schema.PredictorZero
				}
				row[i] = p.applyPredictor(i, fp, int64(values[j]), row, previous, previous2)
				i++
			}

		case schema.EncodingTag8_8SVB:
			c.ByteAlign()
			groupCount := 1
			for j := i + 1; j < i+8 && j < def.FieldCount; j++ {
				if def.Encoding[j] != schema.EncodingTag8_8SVB {
					break
				}
				groupCount++
			}
			values := codec.ReadTag8_8SVB(c, groupCount)
			for j := 0; j < groupCount && i < def.FieldCount; j++ {
				fp := def.Predictor[i]
				if raw {
					fp = schema.PredictorZero
				}
				row[i] = p.applyPredictor(i, fp, int64(values[j]), row, previous, previous2)
				i++
			}

		case schema.EncodingEliasDeltaU32:
			v := int64(codec.ReadEliasDeltaU32(c))
			row[i] = p.applyPredictor(i, pred, v, row, previous, previous2)
			if def.Width[i] != 8 {
				row[i] = truncate(row[i], def.Signed[i])
			}
			i++

		case schema.EncodingEliasDeltaS32:
			v := int64(codec.ReadEliasDeltaS32(c))
			row[i] = p.applyPredictor(i, pred, v, row, previous, previous2)
			if def.Width[i] != 8 {
				row[i] = truncate(row[i], def.Signed[i])
			}
			i++

		case schema.EncodingEliasGammaU32:
			v := int64(codec.ReadEliasGammaU32(c))
			row[i] = p.applyPredictor(i, pred, v, row, previous, previous2)
			if def.Width[i] != 8 {
				row[i] = truncate(row[i], def.Signed[i])
			}
			i++

		case schema.EncodingEliasGammaS32:
			v := int64(codec.ReadEliasGammaS32(c))
			row[i] = p.applyPredictor(i, pred, v, row, previous, previous2)
			if def.Width[i] != 8 {
				row[i] = truncate(row[i], def.Signed[i])
			}
			i++

		case schema.EncodingNull:
			row[i] = p.applyPredictor(i, pred, 0, row, previous, previous2)
			i++

		default:
			i++
		}
	}

	c.ByteAlign()
}

func (p *Parser) detectTimeRollover(timestamp int64) int64 {
	if p.lastMainFrameTime != sentinelNone {
		ts32 := uint32(timestamp)
		last32 := uint32(p.lastMainFrameTime)
		if ts32 < last32 && (ts32-last32) < schema.MaxTimeJump {
			p.timeRolloverAccumulator += 1 << 32
		}
	}
	return int64(uint32(timestamp)) + p.timeRolloverAccumulator
}

func (p *Parser) validateMainFrame() bool {
	current := p.main.currentRow()
	iteration := uint32(current[schema.FieldIndexIteration])
	timeVal := current[schema.FieldIndexTime]

	if p.lastMainFrameIteration == sentinelNone {
		return true
	}

	lastIter := uint32(p.lastMainFrameIteration)
	return iteration >= lastIter && iteration < lastIter+schema.MaxIterJump &&
		timeVal >= p.lastMainFrameTime && timeVal < p.lastMainFrameTime+schema.MaxTimeJump
}

func (p *Parser) invalidateStream() {
	p.mainStreamValid = false
	p.main.invalidate()
}

func (p *Parser) countSkippedFrames() int {
	if p.lastMainFrameIteration == sentinelNone {
		return 0
	}
	count := 0
	frameIndex := int(p.lastMainFrameIteration) + 1
	for !schema.ShouldHaveFrame(p.header, frameIndex) {
		count++
		frameIndex++
		if count > 10000 {
			break
		}
	}
	return count
}

// ParseIntraframe decodes an I-frame at the cursor's current position
// into the history ring's current row and commits it as the new
// baseline. While the stream is valid the frame is first validated
// against the last committed main frame; after an invalidation the
// next I-frame is accepted as a fresh baseline. Returns true if the
// frame is valid.
func (p *Parser) ParseIntraframe(c *bitstream.Cursor, raw bool) bool {
	start := c.Pos()
	current := p.main.currentRow()
	prev := p.main.prevRow()
	p.parseFrame(c, 'I', current, prev, nil, 0, raw)
	p.recordStats('I', c.Pos()-start+1)

	current[schema.FieldIndexTime] = p.detectTimeRollover(current[schema.FieldIndexTime])

	if !raw && p.mainStreamValid && p.lastMainFrameIteration != sentinelNone && !p.validateMainFrame() {
		p.invalidateStream()
	} else {
		p.mainStreamValid = true
	}

	if p.mainStreamValid {
		p.lastMainFrameIteration = int64(uint32(current[schema.FieldIndexIteration]))
		p.lastMainFrameTime = current[schema.FieldIndexTime]
		p.main.rotate(true)
	}
	return p.mainStreamValid
}

// ParseInterframe decodes a P-frame, using skipped-frame accounting
// for the INC predictor, and on success shifts the history ring.
func (p *Parser) ParseInterframe(c *bitstream.Cursor, raw bool) bool {
	start := c.Pos()
	current := p.main.currentRow()
	prev := p.main.prevRow()
	prev2 := p.main.prev2Row()

	p.lastSkippedFrames = p.countSkippedFrames()
	p.parseFrame(c, 'P', current, prev, prev2, p.lastSkippedFrames, raw)
	p.recordStats('P', c.Pos()-start+1)

	current[schema.FieldIndexTime] = p.detectTimeRollover(current[schema.FieldIndexTime])

	if p.mainStreamValid && !raw && !p.validateMainFrame() {
		p.invalidateStream()
	}

	if p.mainStreamValid {
		p.lastMainFrameIteration = int64(uint32(current[schema.FieldIndexIteration]))
		p.lastMainFrameTime = current[schema.FieldIndexTime]
		p.main.rotate(false)
	}
	return p.mainStreamValid
}

// CommittedMainRow returns the row just committed by ParseIntraframe or
// ParseInterframe (i.e. the slot now referenced as "previous"), or nil
// if nothing has committed yet.
func (p *Parser) CommittedMainRow() *[schema.MaxFields]int64 {
	return p.main.prevRow()
}

// ParseGPSFrame decodes a G-frame into the last-seen GPS row.
func (p *Parser) ParseGPSFrame(c *bitstream.Cursor, raw bool) {
	start := c.Pos()
	p.parseFrame(c, 'G', &p.lastGPS, nil, nil, 0, raw)
	p.recordStats('G', c.Pos()-start+1)
	if idx := p.header.GPSFieldIndexes.Time; idx >= 0 {
		p.lastGPS[idx] = p.detectTimeRollover(p.lastGPS[idx])
	}
}

// LastGPSRow returns the most recently decoded GPS row.
func (p *Parser) LastGPSRow() *[schema.MaxFields]int64 { return &p.lastGPS }

// ParseGPSHomeFrame decodes an H-frame and publishes it for HOME_COORD
// predictors to reference on subsequent frames.
func (p *Parser) ParseGPSHomeFrame(c *bitstream.Cursor, raw bool) {
	start := c.Pos()
	p.parseFrame(c, 'H', &p.gpsHomeCurrent, nil, nil, 0, raw)
	p.recordStats('H', c.Pos()-start+1)
	p.gpsHomePublished = p.gpsHomeCurrent
	p.gpsHomeValid = true
}

// GPSHomeValid reports whether at least one H-frame has been committed.
func (p *Parser) GPSHomeValid() bool { return p.gpsHomeValid }

// LastGPSHomeRow returns the most recently published GPS-home row.
func (p *Parser) LastGPSHomeRow() *[schema.MaxFields]int64 { return &p.gpsHomePublished }

// ParseSlowFrame decodes an S-frame into the last-seen slow row.
func (p *Parser) ParseSlowFrame(c *bitstream.Cursor, raw bool) {
	start := c.Pos()
	p.parseFrame(c, 'S', &p.lastSlow, nil, nil, 0, raw)
	p.recordStats('S', c.Pos()-start+1)
}

// LastSlowRow returns the most recently decoded slow-telemetry row.
func (p *Parser) LastSlowRow() *[schema.MaxFields]int64 { return &p.lastSlow }

// Resync marks the main stream invalid after the log container
// encounters an unrecognised frame tag, clearing history so the next
// I-frame restarts prediction from a fresh baseline.
func (p *Parser) Resync() { p.invalidateStream() }
