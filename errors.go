package blackbox

import "github.com/pkg/errors"

// Fatal, structural errors surfaced to the caller. Recoverable stream
// corruption (unknown tags, truncated reads, invalid iteration/time
// jumps) is handled internally by incrementing a log's corrupt-frame
// count instead, per the decoder's resync policy.
var (
	// ErrLogIndexOutOfRange is returned by File.Header and File.Decode
	// when the requested log index is not within [0, LogCount()).
	ErrLogIndexOutOfRange = errors.New("blackbox: log index out of range")
)
