package engine

import (
	"errors"

	"chopsticks/game"
)

// ErrUnknown is returned by queries for positions with no table entry.
var ErrUnknown = errors.New("unknown game state")

// MoveStatus tracks a move's evaluation lifecycle within one top-level call.
// Transitions are monotone: ToBeEvaluated -> Evaluating -> Evaluated.
type MoveStatus uint8

const (
	ToBeEvaluated MoveStatus = iota
	Evaluating
	Evaluated
)

// Entry is one transposition-table record, keyed by position hash. Alpha and
// Beta record the window under which Score was computed; they are metadata
// about the cached score's validity, not shared live search state. Moves
// carries the per-move status machine that keeps two workers from both
// recursing into the same child. Gen gates lazy move-list rebuilds: an entry
// whose Gen disagrees with the engine's regenerates its move list on first
// touch without losing its score.
type Entry struct {
	Score float64
	Depth int // depth at which Score was computed; depthUnknown if never
	Best  game.Move

	Alpha, Beta float64

	Moves map[game.Move]MoveStatus
	Gen   bool
}

// depthUnknown marks entries that have never been scored. Any real
// evaluation writes a depth of at least zero.
const depthUnknown = -1

// NodeData is the queryable slice of an entry.
type NodeData struct {
	Score float64
	Depth int
	Best  game.Move
}
