// Package frame implements the stateful frame parser: the history
// ring, predictor dispatch, per-field encoding dispatch, timestamp
// rollover, validation, and frame-type-specific decoders (I, P, G, H,
// S, E).
//
// Reference: blackbox-tools/src/parser.c via the pybox port's
// frames.py.
package frame

import "github.com/flightlog/blackbox/internal/schema"

// historyRing holds the three physical row buffers the main-frame
// parser cycles through. current/prev/prev2 point into it by index;
// -1 means "no history" (nil slot).
type historyRing struct {
	rows    [3][schema.MaxFields]int64
	current int
	prev    int
	prev2   int
}

const noSlot = -1

func newHistoryRing() *historyRing {
	return &historyRing{current: 0, prev: noSlot, prev2: noSlot}
}

func (r *historyRing) reset() {
	for i := range r.rows {
		r.rows[i] = [schema.MaxFields]int64{}
	}
	r.current = 0
	r.prev = noSlot
	r.prev2 = noSlot
}

func (r *historyRing) currentRow() *[schema.MaxFields]int64 { return &r.rows[r.current] }

func (r *historyRing) prevRow() *[schema.MaxFields]int64 {
	if r.prev == noSlot {
		return nil
	}
	return &r.rows[r.prev]
}

func (r *historyRing) prev2Row() *[schema.MaxFields]int64 {
	if r.prev2 == noSlot {
		return nil
	}
	return &r.rows[r.prev2]
}

// invalidate clears prev/prev2 so the next I-frame restarts prediction
// with no history, without disturbing the current row in progress.
func (r *historyRing) invalidate() {
	r.prev = noSlot
	r.prev2 = noSlot
}

// rotate advances to the next physical slot after a successful commit,
// collapsing history for an intraframe or shifting it for an
// interframe.
func (r *historyRing) rotate(isIntraframe bool) {
	if isIntraframe {
		r.prev = r.current
		r.prev2 = r.current
	} else {
		r.prev2 = r.prev
		r.prev = r.current
	}
	r.current = (r.current + 1) % 3
}
