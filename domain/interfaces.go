package domain

import "time"

// IDGenerator produces entity identifiers.
type IDGenerator interface {
	// GenerateID returns a new identifier of the given length.
	GenerateID(l int) (string, error)
}

// TimeGetter provides current time for timestamping operations.
type TimeGetter interface {
	GetTime() time.Time
}
