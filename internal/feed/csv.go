package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/chanfade/chanfade/internal/core"
)

// timeLayouts are tried in order when parsing the time column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadCSV reads bars from a CSV file with a header row of
// time,open,high,low,close,volume. Rows are returned sorted by time.
func LoadCSV(path string) ([]core.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bar file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var bars []core.Bar
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar, err := parseRecord(record, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseRecord(record []string, col map[string]int) (core.Bar, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var t time.Time
	var err error
	raw := field("time")
	for _, layout := range timeLayouts {
		if t, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		// Epoch seconds as a last resort.
		secs, serr := strconv.ParseInt(raw, 10, 64)
		if serr != nil {
			return core.Bar{}, fmt.Errorf("unparseable time %q", raw)
		}
		t = time.Unix(secs, 0).UTC()
	}

	prices := make(map[string]float64, 4)
	for _, name := range []string{"open", "high", "low", "close"} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return core.Bar{}, fmt.Errorf("unparseable %s %q", name, field(name))
		}
		prices[name] = v
	}

	var volume int64
	if raw := field("volume"); raw != "" {
		if volume, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return core.Bar{}, fmt.Errorf("unparseable volume %q", raw)
		}
	}

	return core.Bar{
		Time:   t,
		Open:   prices["open"],
		High:   prices["high"],
		Low:    prices["low"],
		Close:  prices["close"],
		Volume: volume,
		Source: "csv",
	}, nil
}

// Resample aggregates bars into buckets of the given interval: first open,
// max high, min low, last close, summed volume. Input must be sorted.
func Resample(bars []core.Bar, interval time.Duration) []core.Bar {
	if interval <= 0 || len(bars) == 0 {
		return bars
	}

	var out []core.Bar
	var cur *core.Bar
	for _, b := range bars {
		bucket := b.Time.Truncate(interval)
		if cur == nil || !cur.Time.Equal(bucket) {
			if cur != nil {
				out = append(out, *cur)
			}
			nb := b
			nb.Time = bucket
			cur = &nb
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	out = append(out, *cur)
	return out
}

// Replay plays a fixed bar slice as a Source. Warmup hands out the leading
// bars; Next walks the remainder.
type Replay struct {
	name string
	bars []core.Bar
	pos  int
}

// NewReplay creates a replay source over the given bars.
func NewReplay(name string, bars []core.Bar) *Replay {
	return &Replay{name: name, bars: bars}
}

func (r *Replay) Name() string {
	return r.name
}

// Warmup returns the first count bars (fewer if the slice is short) and
// positions the stream after them.
func (r *Replay) Warmup(_ context.Context, count int) ([]core.Bar, error) {
	if count > len(r.bars) {
		count = len(r.bars)
	}
	out := r.bars[:count]
	r.pos = count
	return out, nil
}

// Next returns the next bar, or core.ErrNoData at the end of the slice.
func (r *Replay) Next(ctx context.Context) (core.Bar, error) {
	if err := ctx.Err(); err != nil {
		return core.Bar{}, err
	}
	if r.pos >= len(r.bars) {
		return core.Bar{}, core.ErrNoData
	}
	bar := r.bars[r.pos]
	r.pos++
	return bar, nil
}
