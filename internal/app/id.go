package app

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// newID produces a random record identifier.
func newID() string {
	return uuid.NewString()
}

// options carries the sources of time and randomness shared by the services.
type options struct {
	now  func() time.Time
	draw func() int
}

func defaultOptions() options {
	return options{
		now:  time.Now,
		draw: func() int { return rand.IntN(1000) },
	}
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCodeDraw replaces the random three-digit suffix of generated agent codes.
func WithCodeDraw(draw func() int) Option {
	return func(o *options) { o.draw = draw }
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
