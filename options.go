package blackbox

import "go.uber.org/zap"

// options carries the decoder's optional, per-File configuration.
type options struct {
	logger *zap.Logger
}

func defaultOptions() *options {
	return &options{logger: zap.NewNop()}
}

// Option configures a File returned by Open.
type Option func(*options)

// WithLogger injects a logger that reports log-boundary discovery and
// unrecognised-tag resync at Debug level. Stream invalidation caused by
// a failed frame validation is not logged. The default logger discards
// everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}
