// Package ledger maintains integer ordering keys among siblings: tasks
// inside a column and columns inside a board.
package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Kind selects which position space a container id refers to.
type Kind int

const (
	// KindColumnTasks is the space of task positions inside one column.
	KindColumnTasks Kind = iota
	// KindBoardColumns is the space of column positions inside one board.
	KindBoardColumns
)

func (k Kind) String() string {
	switch k {
	case KindColumnTasks:
		return "column-tasks"
	case KindBoardColumns:
		return "board-columns"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Open is the upper bound of a Range with no upper limit.
const Open = math.MaxInt32

// MaxPosition is the largest position a caller may ask for. Stored
// positions only grow by one per insert, so they stay well below Open.
const MaxPosition = 1 << 20

// ValidPosition reports whether p may be requested as a position.
func ValidPosition(p int) bool {
	return p >= 0 && p <= MaxPosition
}

const (
	IntakePosition   = 0
	TerminalPosition = 999

	IntakeTitle   = "To Do"
	TerminalTitle = "Done"
)

// Range is the half-open interval [Lo, Hi) of positions.
type Range struct {
	Lo, Hi int
}

func (r Range) Empty() bool { return r.Lo >= r.Hi }

func (r Range) Contains(pos int) bool { return pos >= r.Lo && pos < r.Hi }

func (r Range) String() string {
	if r.Hi == Open {
		return fmt.Sprintf("[%d, +inf)", r.Lo)
	}
	return fmt.Sprintf("[%d, %d)", r.Lo, r.Hi)
}

// Store is the persistence side of the ledger. Implementations apply
// ShiftPositions as one statement against the current transaction, and
// report a missing container from MaxPosition with their own not-found error.
type Store interface {
	MaxPosition(ctx context.Context, kind Kind, containerID string) (pos int, ok bool, err error)
	ShiftPositions(ctx context.Context, kind Kind, containerID string, r Range, delta int) error
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// NextPositionFor returns a position strictly greater than every sibling's,
// or 0 when the container is empty.
func (l *Ledger) NextPositionFor(ctx context.Context, kind Kind, containerID string) (int, error) {
	pos, ok, err := l.store.MaxPosition(ctx, kind, containerID)
	if err != nil {
		return 0, fmt.Errorf("next position in %s %s: %w", kind, containerID, err)
	}
	if !ok {
		return 0, nil
	}
	return pos + 1, nil
}

// ShiftRange adds delta to every sibling whose position lies in r.
func (l *Ledger) ShiftRange(ctx context.Context, kind Kind, containerID string, r Range, delta int) error {
	if delta == 0 || r.Empty() {
		return nil
	}
	if err := l.store.ShiftPositions(ctx, kind, containerID, r, delta); err != nil {
		return fmt.Errorf("shift %s %s by %d in %s: %w", r, kind, delta, containerID, err)
	}
	return nil
}

// OpenSlot makes room at position at by moving it and everything after it up.
func (l *Ledger) OpenSlot(ctx context.Context, kind Kind, containerID string, at int) error {
	return l.ShiftRange(ctx, kind, containerID, Range{Lo: at, Hi: Open}, 1)
}

// CloseGap pulls everything after the vacated position at down by one.
func (l *Ledger) CloseGap(ctx context.Context, kind Kind, containerID string, at int) error {
	return l.ShiftRange(ctx, kind, containerID, Range{Lo: at + 1, Hi: Open}, -1)
}

// Sibling is the part of a column the placement rule looks at.
type Sibling struct {
	Title    string
	Position int
	IsFixed  bool
}

func IsTerminal(s Sibling) bool {
	return s.IsFixed && strings.EqualFold(strings.TrimSpace(s.Title), TerminalTitle)
}

// PlaceColumn decides the position of a new column on a board.
//
// An explicit position is honoured and its slot opened if taken. Otherwise
// the column goes right after the last column sitting below the terminal
// column, and the terminal column is pushed up if the two would collide.
// Boards without a terminal column simply append.
func (l *Ledger) PlaceColumn(ctx context.Context, boardID string, siblings []Sibling, requested *int) (int, error) {
	if requested != nil {
		pos := *requested
		for _, s := range siblings {
			if s.Position == pos {
				if err := l.OpenSlot(ctx, KindBoardColumns, boardID, pos); err != nil {
					return 0, err
				}
				break
			}
		}
		return pos, nil
	}

	terminal := -1
	for _, s := range siblings {
		if IsTerminal(s) {
			terminal = s.Position
			break
		}
	}
	if terminal < 0 {
		return l.NextPositionFor(ctx, KindBoardColumns, boardID)
	}

	pos := 0
	for _, s := range siblings {
		if s.Position < terminal && s.Position+1 > pos {
			pos = s.Position + 1
		}
	}
	if pos >= terminal {
		if err := l.OpenSlot(ctx, KindBoardColumns, boardID, pos); err != nil {
			return 0, err
		}
	}
	return pos, nil
}
