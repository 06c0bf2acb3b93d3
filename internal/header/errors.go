package header

import "github.com/pkg/errors"

// ErrMissingIFrameSchema is returned when a log's header prologue ends
// without ever declaring "Field I name" — there is no schema to drive
// the frame parser with.
var ErrMissingIFrameSchema = errors.New("header: missing I-frame field schema")
