package conv

import "go.uber.org/zap"

// Option configures an Engine.
type Option func(*Engine)

// WithHandler installs the exception handler consulted by numeric kernels.
func WithHandler(h Handler) Option {
	return func(e *Engine) {
		e.handler = h
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithScratchLimit bounds the size of any single scratch buffer grown during
// conversion. Zero means unlimited.
func WithScratchLimit(bytes int) Option {
	return func(e *Engine) {
		if bytes >= 0 {
			e.limit = bytes
		}
	}
}
