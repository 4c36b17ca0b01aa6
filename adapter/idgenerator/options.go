package idgenerator

import "io"

// WithReader sets the reader that provides random bytes to [IDGenerator].
// It has no effect on [UUIDGenerator], which draws its randomness from the
// uuid package.
func WithReader(r io.Reader) Option {
	return func(igo *IDGenerator) {
		igo.reader = r
	}
}

// Option configures the random [IDGenerator] through the functional options
// pattern.
type Option func(*IDGenerator)
