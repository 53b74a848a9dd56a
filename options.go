package connections

import (
	"log/slog"
)

type options struct {
	logger      *slog.Logger
	compression CompressionType
	workers     int
}

func defaultOptions() options {
	return options{
		logger:      discardLogger(),
		compression: CompressionNone,
		workers:     1,
	}
}

// Option configures runtime behavior that is not part of the graph state.
type Option func(*options)

// WithLogger sets the structured logger. A nil logger keeps the default,
// which discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCompression sets the payload codec used by Save.
func WithCompression(c CompressionType) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithWorkers sets the default goroutine count for ComputeActivityParallel.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.workers = n
		}
	}
}
