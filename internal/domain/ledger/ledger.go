// Package ledger models failed index writes awaiting reconciliation.
package ledger

import "fmt"

// Op is the kind of write that failed.
type Op string

// Ledger operations.
const (
	OpWrite  Op = "write"
	OpDelete Op = "delete"
)

// IsValid checks if the op is supported.
func (o Op) IsValid() bool { return o == OpWrite || o == OpDelete }

// Ops lists every op in reconciliation order.
func Ops() []Op { return []Op{OpWrite, OpDelete} }

// Entry is one dirty record identity with the cause of its last failure.
type Entry struct {
	Identity string
	Op       Op
	Cause    string
}

// NewEntry validates and creates an Entry.
func NewEntry(identity string, op Op, cause string) (Entry, error) {
	if identity == "" {
		return Entry{}, fmt.Errorf("identity is required")
	}
	if !op.IsValid() {
		return Entry{}, fmt.Errorf("invalid ledger op: %q", op)
	}
	return Entry{Identity: identity, Op: op, Cause: cause}, nil
}
