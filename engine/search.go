package engine

import (
	"sort"

	"chopsticks/cmap"
	"chopsticks/game"
)

// candidate is one legal continuation out of a position.
type candidate struct {
	move  game.Move
	child game.Position
	hash  int
	key   int // ordering key, higher searched first
}

// search runs the alpha-beta fold for pos. At the top of a call
// (depth == EvaluationDepth) it resets the branch set and the visit counter
// and dispatches every root move to the pool; deeper plies recurse inline on
// the calling worker and prune on alpha-beta cutoffs. The returned error is
// non-nil only when root dispatch hits a terminated pool.
func (e *Engine) search(pos game.Position, stack []int64, depth int, alpha, beta float64, maximizing bool) error {
	if depth == EvaluationDepth {
		e.branches.Clear()
		e.visited.Store(0)
		maximizing = pos.WhiteToMove
	}
	if !pos.IsValid() || len(stack) == 0 {
		return nil
	}

	hash, err := pos.Hash()
	if err != nil {
		return nil
	}
	cell := e.table.Get(hash)
	e.visited.Inc()

	// Reuse the cached score when it was computed at least this deep and
	// under a window at least as wide as the current one.
	reusable := false
	cell.Read(func(n Entry) {
		reusable = n.Depth >= depth &&
			n.Alpha <= alpha+Epsilon && n.Beta >= beta-Epsilon
	})
	if reusable {
		return nil
	}

	if pos.IsOver() {
		winner, werr := pos.Winner()
		if werr != nil {
			return nil
		}
		score := AbsScore
		if winner == 'B' {
			score = -AbsScore
		}
		cell.Write(func(n *Entry) {
			n.Score = score
			// Sentinel depth: terminals are never searched again.
			n.Depth = EvaluationDepth + 1
		})
		return nil
	}

	if depth == 0 {
		score := leafScore(pos)
		cell.Write(func(n *Entry) {
			n.Score = score
			n.Depth = 0
		})
		return nil
	}

	moves := legalMoves(pos)

	gen := e.gen.Load()
	cell.Write(func(n *Entry) {
		if n.Gen != gen {
			n.Moves = make(map[game.Move]MoveStatus, len(moves))
			for _, c := range moves {
				n.Moves[c.move] = ToBeEvaluated
			}
			n.Gen = gen
		}
		// Seed the fold so the first child strictly improves it.
		if maximizing {
			n.Score = -ScoreRange
		} else {
			n.Score = ScoreRange
		}
	})

	// Mark this position as active on the current branch.
	top := stack[len(stack)-1]
	e.branches.Get(branchKey{hash, top}).Set(true)

	// Drop children already active above this call on the same branch; the
	// same position reached on a disjoint branch stays searchable.
	children := moves[:0]
	for _, c := range moves {
		cycling := false
		for _, id := range stack {
			if e.branches.Get(branchKey{c.hash, id}).Get() {
				cycling = true
				break
			}
		}
		if !cycling {
			children = append(children, c)
		}
	}

	e.orderChildren(pos, cell, children)

	if depth == EvaluationDepth {
		// The top ply does not prune: every root move is dispatched.
		for _, c := range children {
			c := c
			branch := e.branchSeq.Inc()
			childStack := make([]int64, 0, len(stack)+1)
			childStack = append(append(childStack, stack...), branch)
			a, b := alpha, beta
			if _, serr := e.pool.Submit(func() {
				e.evaluateMove(cell, c, childStack, depth, a, b, maximizing)
			}); serr != nil {
				e.branches.Get(branchKey{hash, top}).Set(false)
				return serr
			}
		}
		e.pool.Drain()
	} else {
		for _, c := range children {
			alpha, beta = e.evaluateMove(cell, c, stack, depth, alpha, beta, maximizing)
			if alpha >= beta-Epsilon {
				break
			}
		}
	}

	e.branches.Get(branchKey{hash, top}).Set(false)
	return nil
}

// evaluateMove resolves one child of the entry held in parent. A move in
// Evaluating is owned by another worker: wait for it to finish, then fold its
// cached result. An unclaimed move is claimed, searched on this worker, and
// released. The returned window carries any alpha/beta improvement back to
// the inline caller.
func (e *Engine) evaluateMove(parent *cmap.Cell[Entry], c candidate, stack []int64, depth int, alpha, beta float64, maximizing bool) (float64, float64) {
	for {
		parent.WaitUntil(func(n Entry) bool {
			return n.Moves[c.move] != Evaluating
		})

		claimed, done := false, false
		parent.Write(func(n *Entry) {
			switch n.Moves[c.move] {
			case ToBeEvaluated:
				n.Moves[c.move] = Evaluating
				claimed = true
			case Evaluated:
				done = true
			}
		})

		if claimed {
			_ = e.search(c.child, stack, depth-1, alpha, beta, !maximizing)
			parent.Write(func(n *Entry) {
				n.Moves[c.move] = Evaluated
			})
			break
		}
		if done {
			break
		}
		// Lost the claim race; the new owner is evaluating. Wait again.
	}

	return e.afterSearch(parent, c, depth, maximizing, alpha, beta)
}

// afterSearch folds the child's cached score into the parent entry under the
// parent lock, replacing score, depth and best move on strict improvement,
// and persists the window that justified the score. The child entry is read
// before the parent lock is taken: parent and child can swap roles across
// branches of a cyclic graph, so holding both cell locks would invert order.
func (e *Engine) afterSearch(parent *cmap.Cell[Entry], c candidate, depth int, maximizing bool, alpha, beta float64) (float64, float64) {
	var childScore float64
	e.table.Get(c.hash).Read(func(n Entry) {
		childScore = n.Score
	})

	parent.Write(func(n *Entry) {
		if maximizing {
			if childScore > n.Score+Epsilon {
				n.Score, n.Depth, n.Best = childScore, depth, c.move
				if n.Score > alpha {
					alpha = n.Score
				}
			}
		} else {
			if childScore < n.Score-Epsilon {
				n.Score, n.Depth, n.Best = childScore, depth, c.move
				if n.Score < beta {
					beta = n.Score
				}
			}
		}
		n.Alpha, n.Beta = alpha, beta
	})

	return alpha, beta
}

// orderChildren sorts children so the likeliest-to-cut moves are searched
// first: immediate wins, then hand-count improvements and moves another
// worker is already evaluating, with immediate losses last. Ties keep
// generation order.
func (e *Engine) orderChildren(pos game.Position, parent *cmap.Cell[Entry], children []candidate) {
	mover := byte('B')
	if pos.WhiteToMove {
		mover = 'W'
	}
	parentDiff := handDiff(pos, pos.WhiteToMove)

	parent.Read(func(n Entry) {
		for i := range children {
			c := &children[i]
			c.key = 0
			if c.child.IsOver() {
				if winner, err := c.child.Winner(); err == nil && winner == mover {
					c.key += 1000
				} else {
					c.key -= 1000
				}
				continue
			}
			if handDiff(c.child, pos.WhiteToMove) > parentDiff {
				c.key += 10
			}
			if n.Moves[c.move] == Evaluating {
				c.key++
			}
		}
	})

	sort.SliceStable(children, func(i, j int) bool {
		return children[i].key > children[j].key
	})
}

// handDiff is the mover's hand total minus the opponent's, from the side
// that is white when whiteMover is true.
func handDiff(p game.Position, whiteMover bool) int {
	d := int(p.WL) + int(p.WR) - int(p.BL) - int(p.BR)
	if !whiteMover {
		return -d
	}
	return d
}

// leafScore is the heuristic for non-terminal positions at depth zero: a
// marginal preference for preserving one's own split budget.
func leafScore(pos game.Position) float64 {
	return SplitPenalty * (normalizeSplit(pos.WS, game.WhiteSplitMax) - normalizeSplit(pos.BS, game.BlackSplitMax))
}

// normalizeSplit maps a remaining split allowance into [0, 1]; unlimited
// allowances normalize to 1.
func normalizeSplit(s int8, limit int) float64 {
	if limit <= 0 {
		return 1.0
	}
	return float64(s) / float64(limit)
}

// legalMoves enumerates pos's legal continuations in canonical order: the
// four taps (LL, LR, RL, RR), then splits by ascending left-hand delta.
// Moves that fail legality are silently omitted.
func legalMoves(pos game.Position) []candidate {
	var out []candidate

	for _, my := range []game.Side{game.Left, game.Right} {
		for _, op := range []game.Side{game.Left, game.Right} {
			child := pos
			if err := child.MakeTap(my, op); err != nil {
				continue
			}
			hash, err := child.Hash()
			if err != nil {
				continue
			}
			out = append(out, candidate{move: game.Tap(my, op), child: child, hash: hash})
		}
	}

	moverL, moverR := pos.WL, pos.WR
	if !pos.WhiteToMove {
		moverL, moverR = pos.BL, pos.BR
	}
	for i := -moverL; i <= moverR; i++ {
		child := pos
		if err := child.MakeSplit(i, -i); err != nil {
			continue
		}
		hash, err := child.Hash()
		if err != nil {
			continue
		}
		out = append(out, candidate{move: game.Split(i), child: child, hash: hash})
	}

	return out
}
