package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chopsticks/game"
)

func TestLegalMoves_CanonicalOrder(t *testing.T) {
	// From the initial position: four taps, then the two splits that survive
	// the swap and zero-delta rules are the sacrificial ones.
	moves := legalMoves(game.Initial())

	var got []string
	for _, c := range moves {
		got = append(got, c.move.String())
	}
	assert.Equal(t, []string{"LL", "LR", "RL", "RR", "SL1", "SR1"}, got)
}

func TestLegalMoves_FiltersIllegal(t *testing.T) {
	// White (1,0) vs black (0,1): the only tap is L onto R, and the single
	// candidate split is the forbidden hand swap.
	pos := game.Position{WL: 1, BR: 1, WS: game.WhiteSplitMax, BS: game.BlackSplitMax, WhiteToMove: true}
	moves := legalMoves(pos)

	require.Len(t, moves, 1)
	assert.Equal(t, game.Tap(game.Left, game.Right), moves[0].move)
	assert.Equal(t, int8(2), moves[0].child.BR)
}

func TestLegalMoves_ChildrenValid(t *testing.T) {
	for _, pos := range []game.Position{
		game.Initial(),
		{WL: 4, WR: 3, BL: 2, BR: 1, WS: game.WhiteSplitMax, BS: game.BlackSplitMax, WhiteToMove: false},
	} {
		for _, c := range legalMoves(pos) {
			assert.True(t, c.child.IsValid(), "move %v from %v", c.move, pos)

			h, err := c.child.Hash()
			require.NoError(t, err)
			assert.Equal(t, c.hash, h)
		}
	}
}

func TestOrderChildren_Priorities(t *testing.T) {
	e := newTestEngine(t, 1)

	// White (4,0) vs black (0,1): tapping L onto R wins outright and must be
	// ordered first.
	pos := game.Position{WL: 4, BR: 1, WS: game.WhiteSplitMax, BS: game.BlackSplitMax, WhiteToMove: true}
	children := legalMoves(pos)
	require.Greater(t, len(children), 1)

	hash, err := pos.Hash()
	require.NoError(t, err)
	e.orderChildren(pos, e.table.Get(hash), children)

	win := children[0]
	assert.Equal(t, game.Tap(game.Left, game.Right), win.move)
	assert.True(t, win.child.IsOver())
}

func TestOrderChildren_LosingTerminalLast(t *testing.T) {
	e := newTestEngine(t, 1)

	// Black to move with (2,3): the sacrificial splits to (0,5) and (5,0) both
	// reduce to (0,0) and eliminate black itself. They sort after every other
	// move in generation order, so the later one, to (5,0), ends the list.
	pos := game.Position{WL: 1, WR: 1, BL: 2, BR: 3, WS: game.WhiteSplitMax, BS: game.BlackSplitMax, WhiteToMove: false}
	children := legalMoves(pos)

	var selfLoss game.Move
	found := false
	for _, c := range children {
		if c.child.IsOver() {
			if w, err := c.child.Winner(); err == nil && w == 'W' {
				selfLoss, found = c.move, true
			}
		}
	}
	require.True(t, found, "expected a self-eliminating split in %v", pos)

	hash, err := pos.Hash()
	require.NoError(t, err)
	e.orderChildren(pos, e.table.Get(hash), children)
	assert.Equal(t, selfLoss, children[len(children)-1].move)
}

func TestLeafScore(t *testing.T) {
	// Unlimited split budgets on both sides cancel out.
	assert.InDelta(t, 0.0, leafScore(game.Initial()), Epsilon)
}

func TestNormalizeSplit(t *testing.T) {
	assert.Equal(t, 1.0, normalizeSplit(-1, -1), "unlimited normalizes to 1")
	assert.Equal(t, 0.5, normalizeSplit(2, 4))
	assert.Equal(t, 0.0, normalizeSplit(0, 3))
}

func TestHandDiff(t *testing.T) {
	pos := game.Position{WL: 3, WR: 1, BL: 1, BR: 1, WS: game.WhiteSplitMax, BS: game.BlackSplitMax, WhiteToMove: true}
	assert.Equal(t, 2, handDiff(pos, true))
	assert.Equal(t, -2, handDiff(pos, false))
}

// Statuses move only forward within one call. After an
// evaluation, every generated move of the root entry is Evaluated.
func TestSearch_RootMovesAllEvaluated(t *testing.T) {
	e := newTestEngine(t, 2)
	pos := game.Initial()
	require.NoError(t, e.Evaluate(context.Background(), pos))

	hash, err := pos.Hash()
	require.NoError(t, err)

	e.table.Get(hash).Read(func(n Entry) {
		require.NotEmpty(t, n.Moves)
		for mv, st := range n.Moves {
			assert.Equal(t, Evaluated, st, "move %v left in status %d", mv, st)
		}
	})
}

// Reuse: a terminal entry is cached once and served from the table afterwards.
func TestSearch_TerminalReuse(t *testing.T) {
	e := newTestEngine(t, 1)

	term := game.Position{WL: 2, WS: game.WhiteSplitMax, BS: game.BlackSplitMax, WhiteToMove: false}
	require.True(t, term.IsOver())
	hash, err := term.Hash()
	require.NoError(t, err)

	require.NoError(t, e.search(term, []int64{1}, 3, -ScoreRange, ScoreRange, false))
	nd, err := e.QueryHash(hash)
	require.NoError(t, err)
	assert.InDelta(t, AbsScore, nd.Score, Epsilon)
	assert.Equal(t, EvaluationDepth+1, nd.Depth)

	// A later visit at any depth reuses the sentinel entry unchanged.
	require.NoError(t, e.search(term, []int64{2}, 10, -ScoreRange, ScoreRange, true))
	again, err := e.QueryHash(hash)
	require.NoError(t, err)
	assert.Equal(t, nd, again)
}

// Depth zero writes the leaf heuristic rather than expanding children.
func TestSearch_LeafWrite(t *testing.T) {
	e := newTestEngine(t, 1)

	pos := game.Initial()
	hash, err := pos.Hash()
	require.NoError(t, err)

	require.NoError(t, e.search(pos, []int64{1}, 0, -ScoreRange, ScoreRange, true))

	nd, err := e.QueryHash(hash)
	require.NoError(t, err)
	assert.Equal(t, 0, nd.Depth)
	assert.InDelta(t, leafScore(pos), nd.Score, Epsilon)
	assert.Equal(t, game.NoMove, nd.Best.Kind)
}

// An empty branch stack is rejected defensively without touching the table.
func TestSearch_EmptyStack(t *testing.T) {
	e := newTestEngine(t, 1)
	require.NoError(t, e.search(game.Initial(), nil, 3, -ScoreRange, ScoreRange, true))
	assert.Equal(t, 0, e.table.Len())
}
