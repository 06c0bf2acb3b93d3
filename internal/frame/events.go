package frame

import (
	"github.com/flightlog/blackbox/internal/bitstream"
	"github.com/flightlog/blackbox/internal/schema"
)

// Event is a decoded 'E' frame. EventType is -1 for an unrecognised or
// malformed event, per §7's "silent (tolerated)" policy.
type Event struct {
	EventType int

	SyncBeepTime int64

	AdjustmentFunction byte
	NewValue            int32
	NewFloatValue       float32

	LogIteration uint32
	CurrentTime  int64
}

// ParseEventFrame consumes the event-type byte and its payload,
// dispatching per §4.D. A LOG_END event narrows c's window so the
// caller's main loop terminates before any trailing bytes.
func (p *Parser) ParseEventFrame(c *bitstream.Cursor) Event {
	start := c.Pos()
	eventType, ok := c.ReadByte()
	if !ok {
		event := Event{EventType: -1}
		p.lastEvent = event
		return event
	}
	event := Event{EventType: int(eventType)}

	switch int(eventType) {
	case schema.EventSyncBeep:
		t := c.ReadUnsignedVB()
		event.SyncBeepTime = int64(t) + p.timeRolloverAccumulator

	case schema.EventInflightAdjustment:
		fn, _ := c.ReadByte()
		event.AdjustmentFunction = fn
		if fn > 127 {
			event.NewFloatValue = c.ReadF32LE()
		} else {
			event.NewValue = c.ReadSignedVB()
		}

	case schema.EventLoggingResume:
		iteration := c.ReadUnsignedVB()
		t := c.ReadUnsignedVB()
		event.LogIteration = iteration
		event.CurrentTime = int64(t) + p.timeRolloverAccumulator
		// A logging-resume event is a legal iteration/time jump; update
		// tracking so subsequent frames are validated against it rather
		// than rejected as corrupt.
		p.lastMainFrameIteration = int64(iteration)
		p.lastMainFrameTime = event.CurrentTime

	case schema.EventLogEnd:
		end := c.Read(11)
		if string(end) == "End of log\x00" {
			c.SetEnd(c.Pos())
		} else {
			event.EventType = -1
		}

	default:
		event.EventType = -1
	}

	p.recordStats('E', c.Pos()-start+1)
	p.lastEvent = event
	return event
}

// LastEvent returns the most recently decoded event frame.
func (p *Parser) LastEvent() Event { return p.lastEvent }
