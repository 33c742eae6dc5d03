package core

import "time"

// EventKind discriminates engine events.
type EventKind string

const (
	EventChannel  EventKind = "channel"
	EventBreak    EventKind = "break"
	EventDetector EventKind = "detector"
	EventSignal   EventKind = "signal"
	EventEntry    EventKind = "entry"
	EventExit     EventKind = "exit"
)

// Event is a single engine event. The engine emits events for every bar in a
// fixed order: channel update, break/detector events, signal, entry/exit.
type Event interface {
	Kind() EventKind
	When() time.Time
}

// ChannelEvent reports the recomputed channel after a bar entered the window.
type ChannelEvent struct {
	Time    time.Time
	Channel Channel
}

func (e ChannelEvent) Kind() EventKind { return EventChannel }
func (e ChannelEvent) When() time.Time { return e.Time }

// BreakEvent reports a bar whose range exceeded the channel on one side.
// Direction is the side that broke: long for a break above the channel high,
// short for a break below the channel low.
type BreakEvent struct {
	Time      time.Time
	Direction Direction
	Level     float64 // channel level that was broken
	Price     float64 // bar extreme that broke it
}

func (e BreakEvent) Kind() EventKind { return EventBreak }
func (e BreakEvent) When() time.Time { return e.Time }

// DetectorEvent is a candidate entry produced by the sweep detector. Candidates
// are resolved to at most one signal per bar by the signal evaluator.
type DetectorEvent struct {
	Time      time.Time
	EntryType EntryType
	Direction Direction
	Level     float64 // channel level the candidate was detected against
	Price     float64 // bar close
	Reason    string
}

func (e DetectorEvent) Kind() EventKind { return EventDetector }
func (e DetectorEvent) When() time.Time { return e.Time }

// SignalEvent reports the signal chosen for a bar.
type SignalEvent struct {
	Time   time.Time
	Signal Signal
}

func (e SignalEvent) Kind() EventKind { return EventSignal }
func (e SignalEvent) When() time.Time { return e.Time }

// EntryEvent reports a newly opened position.
type EntryEvent struct {
	Time     time.Time
	Position Position
}

func (e EntryEvent) Kind() EventKind { return EventEntry }
func (e EntryEvent) When() time.Time { return e.Time }

// ExitEvent reports a closed position.
type ExitEvent struct {
	Time       time.Time
	Direction  Direction
	EntryType  EntryType
	EntryPrice float64
	EntryTime  time.Time
	Decision   ExitDecision
}

func (e ExitEvent) Kind() EventKind { return EventExit }
func (e ExitEvent) When() time.Time { return e.Time }
