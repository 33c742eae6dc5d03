package core

import "time"

// OrderAction distinguishes entry from exit instructions.
type OrderAction string

const (
	OrderEnter OrderAction = "enter"
	OrderExit  OrderAction = "exit"
)

// OrderInstruction is a command to the executor: open or flatten the single
// one-contract position. The engine does not wait for confirmation before
// advancing to the next bar; reconciliation against actual fills is the
// executor's responsibility.
type OrderInstruction struct {
	ID        string // assigned by the executor
	Action    OrderAction
	Direction Direction // side of the order itself, not of the position
	Price     float64
	Size      int // contracts, always 1
	Time      time.Time
	EntryType EntryType // set on entries
	Reason    string    // entry reason or exit rule name
}
