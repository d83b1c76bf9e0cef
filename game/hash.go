package game

import "fmt"

// Hash encodes the position as a mixed-radix integer over
// (turn, WL, WR, BL, BR, [WS], [BS]). Split counters enter the encoding only
// when their side is bounded; unlimited counters carry no information. The
// encoding is bijective over the valid state space and is the sole position
// identity used across the engine.
func (p Position) Hash() (int, error) {
	if !p.IsValid() {
		return 0, fmt.Errorf("%w: cannot hash", ErrInvalidPosition)
	}

	h := 0
	if p.WhiteToMove {
		h = 1
	}
	h = h*HandMax + int(p.WL)
	h = h*HandMax + int(p.WR)
	h = h*HandMax + int(p.BL)
	h = h*HandMax + int(p.BR)
	if WhiteSplitMax > 0 {
		h = h*(WhiteSplitMax+1) + int(p.WS)
	}
	if BlackSplitMax > 0 {
		h = h*(BlackSplitMax+1) + int(p.BS)
	}
	return h, nil
}

// FromHash decodes a hash back into the position it encodes. Fields are
// peeled in exact reverse encoding order. Ill-formed integers, including any
// that decode to an invalid position, fail with ErrInvalidHash.
func FromHash(h int) (Position, error) {
	if h < 0 {
		return Position{}, fmt.Errorf("%w: negative value %d", ErrInvalidHash, h)
	}

	p := Position{WS: WhiteSplitMax, BS: BlackSplitMax}

	if BlackSplitMax > 0 {
		radix := BlackSplitMax + 1
		p.BS = int8(h % radix)
		h /= radix
	}
	if WhiteSplitMax > 0 {
		radix := WhiteSplitMax + 1
		p.WS = int8(h % radix)
		h /= radix
	}
	p.BR = int8(h % HandMax)
	h /= HandMax
	p.BL = int8(h % HandMax)
	h /= HandMax
	p.WR = int8(h % HandMax)
	h /= HandMax
	p.WL = int8(h % HandMax)
	h /= HandMax

	if h > 1 {
		return Position{}, fmt.Errorf("%w: value %d out of range", ErrInvalidHash, h)
	}
	p.WhiteToMove = h == 1

	if !p.IsValid() {
		return Position{}, fmt.Errorf("%w: decodes to an invalid position", ErrInvalidHash)
	}
	return p, nil
}
