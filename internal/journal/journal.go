// Package journal records a trading session as JSONL files: the bar stream,
// the event trail, and one line per completed trade.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chanfade/chanfade/internal/archive"
	"github.com/chanfade/chanfade/internal/config"
	"github.com/chanfade/chanfade/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	barsFile   = "bars.jsonl"
	eventsFile = "events.jsonl"
	tradesFile = "trades.jsonl"
)

type barLine struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Source string    `json:"source"`
}

type eventLine struct {
	Kind      string    `json:"kind"`
	Time      time.Time `json:"time"`
	Direction string    `json:"direction,omitempty"`
	EntryType string    `json:"entry_type,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Level     float64   `json:"level,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type tradeLine struct {
	Direction  string    `json:"direction"`
	EntryType  string    `json:"entry_type"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	ExitPrice  float64   `json:"exit_price"`
	ExitTime   time.Time `json:"exit_time"`
	ExitReason string    `json:"exit_reason"`
	PnLPoints  float64   `json:"pnl_points"`
	BarsHeld   int       `json:"bars_held"`
}

// Journal spools session files to the local journal directory while the
// session runs, then pushes them to the archive store on Close. With localfs
// storage the spool directory already is the archive, so Close only flushes.
type Journal struct {
	cfg       config.JournalConfig
	store     archive.Store
	logger    *zap.Logger
	sessionID string
	dir       string

	mu    sync.Mutex
	files map[string]*os.File
}

// New opens a journal for a fresh session.
func New(cfg config.JournalConfig, store archive.Store, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sessionID := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102-150405"), uuid.NewString()[:8])
	root := cfg.Path
	if root == "" {
		root = "logs"
	}
	dir := filepath.Join(root, "sessions", sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	j := &Journal{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		sessionID: sessionID,
		dir:       dir,
		files:     make(map[string]*os.File),
	}
	logger.Info("journal opened", zap.String("session", sessionID), zap.String("dir", dir))
	return j, nil
}

// SessionID returns the session identifier used in archive keys.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// RecordBar appends the bar to the bar stream file.
func (j *Journal) RecordBar(bar core.Bar) {
	j.append(barsFile, barLine{
		Time:   bar.Time,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
		Source: bar.Source,
	})
}

// Publish appends engine events; channel updates are skipped to keep the
// event file readable. Exit events additionally produce a trade line.
func (j *Journal) Publish(ev core.Event) {
	switch e := ev.(type) {
	case core.ChannelEvent:
		return
	case core.BreakEvent:
		j.append(eventsFile, eventLine{
			Kind:      string(e.Kind()),
			Time:      e.Time,
			Direction: string(e.Direction),
			Price:     e.Price,
			Level:     e.Level,
		})
	case core.DetectorEvent:
		j.append(eventsFile, eventLine{
			Kind:      string(e.Kind()),
			Time:      e.Time,
			Direction: string(e.Direction),
			EntryType: string(e.EntryType),
			Price:     e.Price,
			Level:     e.Level,
			Reason:    e.Reason,
		})
	case core.SignalEvent:
		j.append(eventsFile, eventLine{
			Kind:      string(e.Kind()),
			Time:      e.Time,
			Direction: string(e.Signal.Direction),
			EntryType: string(e.Signal.EntryType),
			Price:     e.Signal.Price,
			Reason:    e.Signal.Reason,
		})
	case core.EntryEvent:
		j.append(eventsFile, eventLine{
			Kind:      string(e.Kind()),
			Time:      e.Time,
			Direction: string(e.Position.Direction),
			EntryType: string(e.Position.EntryType),
			Price:     e.Position.EntryPrice,
		})
	case core.ExitEvent:
		j.append(eventsFile, eventLine{
			Kind:      string(e.Kind()),
			Time:      e.Time,
			Direction: string(e.Direction),
			EntryType: string(e.EntryType),
			Price:     e.Decision.Price,
			Reason:    string(e.Decision.Reason),
		})
		j.append(tradesFile, tradeLine{
			Direction:  string(e.Direction),
			EntryType:  string(e.EntryType),
			EntryPrice: e.EntryPrice,
			EntryTime:  e.EntryTime,
			ExitPrice:  e.Decision.Price,
			ExitTime:   e.Decision.Time,
			ExitReason: string(e.Decision.Reason),
			PnLPoints:  e.Decision.PnLPoints,
			BarsHeld:   e.Decision.BarsHeld,
		})
	}
}

func (j *Journal) append(name string, line any) {
	data, err := json.Marshal(line)
	if err != nil {
		j.logger.Error("journal encode failed", zap.String("file", name), zap.Error(err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, ok := j.files[name]
	if !ok {
		f, err = os.OpenFile(filepath.Join(j.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			j.logger.Error("journal open failed", zap.String("file", name), zap.Error(err))
			return
		}
		j.files[name] = f
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		j.logger.Error("journal write failed", zap.String("file", name), zap.Error(err))
	}
}

// Close flushes the spool files and, for remote storage, uploads them under
// sessions/<id>/.
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	names := make([]string, 0, len(j.files))
	for name, f := range j.files {
		if err := f.Close(); err != nil {
			j.logger.Warn("journal close failed", zap.String("file", name), zap.Error(err))
		}
		names = append(names, name)
	}
	j.files = make(map[string]*os.File)
	j.mu.Unlock()

	if j.cfg.Type != "s3" || j.store == nil {
		return nil
	}

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(j.dir, name))
		if err != nil {
			return fmt.Errorf("reading spool %s: %w", name, err)
		}
		key := fmt.Sprintf("sessions/%s/%s", j.sessionID, name)
		if err := j.store.Put(ctx, key, data); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
		j.logger.Info("session file archived", zap.String("key", key), zap.Int("bytes", len(data)))
	}
	return nil
}
