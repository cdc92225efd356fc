/*
Package glance is the backend for a battery-powered e-ink photo frame.
It converts photos into fixed-palette panel framebuffers, persists them
alongside device telemetry, and serves them to the display client over
HTTP.
*/
package glance

import "log"

type Glance struct {
	db     *DB
	logger *log.Logger
}

// New returns a service using the given store. db may be nil for
// batch-only use; the HTTP handler requires it.
func New(db *DB, logger *log.Logger) *Glance {
	return &Glance{
		db:     db,
		logger: logger,
	}
}
