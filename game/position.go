package game

import (
	"errors"
	"fmt"
)

// Sentinel errors for the position model. Every failure returned from this
// package wraps one of them.
var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidHash     = errors.New("invalid hash")
)

// Position is the full game state: both players' hands, the remaining split
// allowance per side, and whose turn it is. It is a plain value type; move
// application mutates the receiver, so callers that need the parent position
// afterwards apply moves to a copy.
type Position struct {
	WL, WR int8 // white's left/right hand, in [0, HandMax)
	BL, BR int8 // black's counterparts
	WS, BS int8 // remaining splits per side; negative when unlimited
	WhiteToMove bool
}

// Initial returns the starting position: one finger on every hand, white to
// move, split allowances at their configured maxima.
func Initial() Position {
	return Position{
		WL: 1, WR: 1, BL: 1, BR: 1,
		WS: WhiteSplitMax, BS: BlackSplitMax,
		WhiteToMove: true,
	}
}

// IsValid reports whether the position lies in the legal state space: every
// hand inside [0, HandMax), bounded split counters nonnegative, and at least
// one hand nonzero.
func (p Position) IsValid() bool {
	hands := p.WL >= 0 && p.WL < HandMax &&
		p.WR >= 0 && p.WR < HandMax &&
		p.BL >= 0 && p.BL < HandMax &&
		p.BR >= 0 && p.BR < HandMax
	splits := (WhiteSplitMax < 0 || (p.WS >= 0 && p.WS <= WhiteSplitMax)) &&
		(BlackSplitMax < 0 || (p.BS >= 0 && p.BS <= BlackSplitMax))
	return hands && splits && (p.WL != 0 || p.WR != 0 || p.BL != 0 || p.BR != 0)
}

// IsOver reports whether exactly one side has both hands eliminated.
func (p Position) IsOver() bool {
	return p.IsValid() &&
		(p.WL == 0 && p.WR == 0) != (p.BL == 0 && p.BR == 0)
}

// Winner returns 'W' or 'B' for a finished game.
func (p Position) Winner() (byte, error) {
	if !p.IsValid() || !p.IsOver() {
		return 0, fmt.Errorf("%w: no winner for ongoing or invalid games", ErrInvalidPosition)
	}
	if p.WL != 0 || p.WR != 0 {
		return 'W', nil
	}
	return 'B', nil
}

// canMove rejects move application on invalid or finished positions.
func (p Position) canMove() error {
	if !p.IsValid() {
		return fmt.Errorf("%w: cannot move", ErrInvalidPosition)
	}
	if p.IsOver() {
		return fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	return nil
}

// afterMove reduces every hand modulo HandMax and flips the turn. Splits keep
// the turn when SplitsAsMoves is off.
func (p *Position) afterMove(fromSplit bool) {
	p.WL %= HandMax
	p.WR %= HandMax
	p.BL %= HandMax
	p.BR %= HandMax
	if !fromSplit || SplitsAsMoves {
		p.WhiteToMove = !p.WhiteToMove
	}
}

// moverHands returns pointers to the mover's hands.
func (p *Position) moverHands() (l, r *int8) {
	if p.WhiteToMove {
		return &p.WL, &p.WR
	}
	return &p.BL, &p.BR
}

// opponentHands returns pointers to the opponent's hands.
func (p *Position) opponentHands() (l, r *int8) {
	if p.WhiteToMove {
		return &p.BL, &p.BR
	}
	return &p.WL, &p.WR
}

// MakeTap applies a tap: the mover's my-side hand adds its count to the
// opponent's op-side hand, modulo HandMax, and the turn flips. Both hands
// involved must be nonzero.
func (p *Position) MakeTap(my, op Side) error {
	if err := p.canMove(); err != nil {
		return err
	}
	if my != Left && my != Right || op != Left && op != Right {
		return fmt.Errorf("%w: tap sides must be L or R", ErrIllegalMove)
	}

	ml, mr := p.moverHands()
	ol, or := p.opponentHands()

	src := ml
	if my == Right {
		src = mr
	}
	dst := ol
	if op == Right {
		dst = or
	}

	if *src == 0 {
		return fmt.Errorf("%w: cannot tap with an eliminated hand", ErrIllegalMove)
	}
	if *dst == 0 {
		return fmt.Errorf("%w: cannot tap an eliminated hand", ErrIllegalMove)
	}

	*dst += *src
	p.afterMove(false)
	return nil
}

// MakeSplit redistributes fingers between the mover's hands. leftDelta is
// applied to the left hand and rightDelta to the right; they must be equal in
// magnitude and opposite in sign. Subject to the split allowance and the
// sacrificial, regenerative and hand-alternation rules.
func (p *Position) MakeSplit(leftDelta, rightDelta int8) error {
	if err := p.canMove(); err != nil {
		return err
	}

	if leftDelta == 0 || rightDelta != -leftDelta {
		return fmt.Errorf("%w: a split decreases one hand and increases the other by the same amount", ErrIllegalMove)
	}

	splitMax, counter := int8(WhiteSplitMax), &p.WS
	if !p.WhiteToMove {
		splitMax, counter = int8(BlackSplitMax), &p.BS
	}
	if splitMax >= 0 && *counter <= 0 {
		return fmt.Errorf("%w: no split moves remaining", ErrIllegalMove)
	}

	ml, mr := p.moverHands()

	if !AllowRegenerativeSplits && (*ml == 0 || *mr == 0) {
		return fmt.Errorf("%w: regenerative splits are not allowed", ErrIllegalMove)
	}

	newL := *ml + leftDelta
	newR := *mr + rightDelta
	if newL < 0 || newR < 0 {
		return fmt.Errorf("%w: cannot give more fingers than a hand holds", ErrIllegalMove)
	}
	if !AllowSacrificialSplits && (newL%HandMax == 0 || newR%HandMax == 0) {
		return fmt.Errorf("%w: sacrificial splits are not allowed", ErrIllegalMove)
	}

	// Swap test runs on pre-reduction values.
	if newL == *mr && newR == *ml {
		return fmt.Errorf("%w: hand-alternating splits are not allowed", ErrIllegalMove)
	}

	*ml, *mr = newL, newR
	if splitMax >= 0 {
		*counter--
	}
	p.afterMove(true)
	return nil
}

// Apply dispatches a tagged move.
func (p *Position) Apply(m Move) error {
	switch m.Kind {
	case TapMove:
		return p.MakeTap(m.My, m.Op)
	case SplitMove:
		return p.MakeSplit(m.Delta, -m.Delta)
	default:
		return fmt.Errorf("%w: empty move", ErrIllegalMove)
	}
}

// String renders the position on one line, e.g. "W[1 1] B[0 2] w".
func (p Position) String() string {
	turn := "b"
	if p.WhiteToMove {
		turn = "w"
	}
	return fmt.Sprintf("W[%d %d] B[%d %d] %s", p.WL, p.WR, p.BL, p.BR, turn)
}
