//go:build !unix

// Package stderr provides a no-op implementation outside Unix.
// Windows audio libraries do not write the stderr noise ALSA does.
package stderr

import "github.com/rs/zerolog"

// Capture does nothing outside Unix.
type Capture struct{}

// Start is a no-op outside Unix.
func Start(_ zerolog.Logger) (*Capture, error) {
	return &Capture{}, nil
}

// Stop is a no-op outside Unix.
func (c *Capture) Stop() {}
