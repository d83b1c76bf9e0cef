package game

import "fmt"

// Side selects one of a player's hands.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "R"
	}
	return "L"
}

// MoveKind tags the two move families. The zero value is no move at all,
// which lets a zero Move mean "none yet" in table entries.
type MoveKind uint8

const (
	NoMove MoveKind = iota
	TapMove
	SplitMove
)

// Move is a tagged record: a tap names the mover's hand and the opponent's
// hand, a split carries the signed change applied to the mover's left hand
// (the right hand takes the negation). Moves are comparable and serve as map
// keys in the transposition table's per-move status maps.
type Move struct {
	Kind  MoveKind
	My    Side // tap: the mover's hand
	Op    Side // tap: the opponent's hand
	Delta int8 // split: change to the left hand
}

// Tap builds a tap move.
func Tap(my, op Side) Move {
	return Move{Kind: TapMove, My: my, Op: op}
}

// Split builds a split move from the left-hand delta.
func Split(leftDelta int8) Move {
	return Move{Kind: SplitMove, Delta: leftDelta}
}

// String renders the move in its displayable form. Taps are two uppercase
// letters, mover's hand first ("LR" taps with the left hand onto the
// opponent's right). Splits are "S", the letter of the hand that gives
// fingers away, and the magnitude: "SL2" moves two fingers from left to
// right, "SR1" moves one from right to left.
func (m Move) String() string {
	switch m.Kind {
	case TapMove:
		return m.My.String() + m.Op.String()
	case SplitMove:
		from, mag := "L", -m.Delta
		if m.Delta > 0 {
			from, mag = "R", m.Delta
		}
		return fmt.Sprintf("S%s%d", from, mag)
	default:
		return "--"
	}
}
