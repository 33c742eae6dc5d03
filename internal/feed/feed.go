// Package feed supplies price bars from files and market data APIs.
package feed

import (
	"context"
	"time"

	"github.com/chanfade/chanfade/internal/core"
)

// Source streams bars in timestamp order.
type Source interface {
	// Name identifies the source in logs and bar metadata.
	Name() string

	// Warmup returns up to count recent bars to seed the channel before the
	// stream starts.
	Warmup(ctx context.Context, count int) ([]core.Bar, error)

	// Next blocks until the next completed bar is available. Returns
	// core.ErrNoData when the stream is exhausted.
	Next(ctx context.Context) (core.Bar, error)
}

// Quote is a point-in-time price observation.
type Quote struct {
	Symbol string
	Price  float64
	Volume int64
	Time   time.Time
}
