package feed

import (
	"context"
	"time"

	"github.com/chanfade/chanfade/internal/core"
	"go.uber.org/zap"
)

const (
	// How long past the bar boundary to wait before asking for the bar.
	barGrace = 3 * time.Second
	// Quote polling cadence while a bar is forming.
	pollEvery = 5 * time.Second
	// Attempts to fetch a completed bar before falling back to quotes.
	fetchAttempts = 3
)

// Live streams completed bars from the gateway in real time. While a bar is
// forming it polls quotes; if the gateway cannot produce the completed bar
// after the boundary, the polled quotes are assembled into one so the stream
// never stalls on a single missing bar.
type Live struct {
	client   *ProjectXClient
	contract string
	interval time.Duration
	logger   *zap.Logger

	lastEnd time.Time
}

// NewLive creates a live source for the contract at the given bar interval.
func NewLive(client *ProjectXClient, contract string, intervalMinutes int, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Live{
		client:   client,
		contract: contract,
		interval: time.Duration(intervalMinutes) * time.Minute,
		logger:   logger,
	}
}

func (l *Live) Name() string {
	return "projectx"
}

// Warmup fetches the most recent completed bars to seed the channel.
func (l *Live) Warmup(ctx context.Context, count int) ([]core.Bar, error) {
	end := time.Now().UTC().Truncate(l.interval)
	// Double window to ride out session gaps.
	start := end.Add(-time.Duration(2*count) * l.interval)

	bars, err := l.client.RetrieveBars(ctx, l.contract, start, end, int(l.interval.Minutes()), 2*count)
	if err != nil {
		return nil, err
	}
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	if len(bars) > 0 {
		l.lastEnd = bars[len(bars)-1].Time.Add(l.interval)
	}
	return bars, nil
}

// Next blocks until the next bar completes and returns it.
func (l *Live) Next(ctx context.Context) (core.Bar, error) {
	barEnd := l.nextBoundary()
	barStart := barEnd.Add(-l.interval)

	var qb quoteBuilder
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return core.Bar{}, err
		}

		now := time.Now().UTC()
		if now.Before(barEnd.Add(barGrace)) {
			if q, err := l.client.Quote(ctx, l.contract); err == nil {
				qb.observe(q)
			}
			if err := sleepCtx(ctx, pollEvery); err != nil {
				return core.Bar{}, err
			}
			continue
		}

		bars, err := l.client.RetrieveBars(ctx, l.contract, barStart, barEnd, int(l.interval.Minutes()), 3)
		if err == nil {
			for _, b := range bars {
				if b.Time.Equal(barStart) {
					l.lastEnd = barEnd
					return b, nil
				}
			}
		} else {
			l.logger.Warn("bar fetch failed", zap.Time("bar_start", barStart), zap.Error(err))
		}

		attempts++
		if attempts < fetchAttempts {
			if err := sleepCtx(ctx, barGrace); err != nil {
				return core.Bar{}, err
			}
			continue
		}

		if qb.seen > 0 {
			l.logger.Warn("assembling bar from quotes",
				zap.Time("bar_start", barStart),
				zap.Int("quotes", qb.seen),
			)
			l.lastEnd = barEnd
			return qb.bar(barStart), nil
		}
		return core.Bar{}, core.WrapError(core.ErrNoData, err)
	}
}

func (l *Live) nextBoundary() time.Time {
	if !l.lastEnd.IsZero() {
		return l.lastEnd.Add(l.interval)
	}
	return time.Now().UTC().Truncate(l.interval).Add(l.interval)
}

// quoteBuilder accumulates polled quotes into an OHLCV bar.
type quoteBuilder struct {
	open, high, low, last float64
	volume                int64
	seen                  int
}

func (q *quoteBuilder) observe(quote Quote) {
	if q.seen == 0 {
		q.open = quote.Price
		q.high = quote.Price
		q.low = quote.Price
	}
	if quote.Price > q.high {
		q.high = quote.Price
	}
	if quote.Price < q.low {
		q.low = quote.Price
	}
	q.last = quote.Price
	q.volume = quote.Volume
	q.seen++
}

func (q *quoteBuilder) bar(start time.Time) core.Bar {
	return core.Bar{
		Time:   start,
		Open:   q.open,
		High:   q.high,
		Low:    q.low,
		Close:  q.last,
		Volume: q.volume,
		Source: "quote_built",
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
