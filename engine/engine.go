// Package engine evaluates chopsticks positions with a fixed-depth alpha-beta
// negamax over the position graph. The transposition table and the branch set
// are shared across a pool of workers; the top ply fans one task per root
// move across the pool and every deeper ply recurses on the worker it landed
// on.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/seekerror/logw"
	"go.uber.org/atomic"

	"chopsticks/cmap"
	"chopsticks/game"
	"chopsticks/pool"
)

const (
	// EvaluationDepth is the fixed search depth of a top-level evaluation.
	EvaluationDepth = 24

	// ScoreRange bounds every score; AbsScore is the terminal magnitude.
	ScoreRange = 10.0
	AbsScore   = 5.0

	// SplitPenalty weighs the leaf preference for preserving split budget.
	SplitPenalty = 0.2

	// Epsilon is the tolerance used by all score and window comparisons.
	Epsilon = 1e-6
)

// branchKey marks one position as active on one search branch.
type branchKey struct {
	hash   int
	branch int64
}

// Engine owns the transposition table, the branch set and the worker pool.
// Entries are created lazily and never deleted during a run, so a parent
// entry outlives every task that holds it.
type Engine struct {
	table    *cmap.Map[int, Entry]
	branches *cmap.Map[branchKey, bool]

	pool    *pool.Pool
	ownPool bool
	workers int // engine-owned pool size; 0 = hardware parallelism

	gen       atomic.Bool  // flipped per Evaluate; gates move-list rebuilds
	visited   atomic.Int64 // entries visited by the most recent Evaluate
	branchSeq atomic.Int64 // branch id source

	log *Logger
}

// Option configures engine construction.
type Option func(*Engine)

// WithPool uses a caller-owned pool; the caller keeps responsibility for
// terminating it.
func WithPool(p *pool.Pool) Option {
	return func(e *Engine) { e.pool = p }
}

// WithParallelism sizes the engine-owned pool. Ignored when WithPool is also
// given.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger attaches an evaluation log.
func WithLogger(l *Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an engine ready to evaluate. Without WithPool it starts its own
// pool, sized by WithParallelism (hardware parallelism when unset), terminated
// by Close.
func New(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{
		branches: cmap.New[branchKey, bool](),
	}
	e.table = cmap.New[int, Entry](cmap.WithFresh(func() Entry {
		return Entry{
			Depth: depthUnknown,
			Alpha: -ScoreRange,
			Beta:  ScoreRange,
			Gen:   !e.gen.Load(), // force a move-list build on first touch
			Moves: make(map[game.Move]MoveStatus),
		}
	}))

	for _, fn := range opts {
		fn(e)
	}
	if e.pool == nil {
		e.pool = pool.New(ctx, e.workers)
		e.ownPool = true
	}

	logw.Infof(ctx, "Initialized engine: depth=%v, workers=%v", EvaluationDepth, e.pool.Workers())
	return e
}

// Close terminates an engine-owned pool and the evaluation log, if any.
func (e *Engine) Close() {
	if e.ownPool {
		e.pool.Terminate()
	}
	if e.log != nil {
		e.log.Close()
	}
}

// Evaluate blocks until the entry for pos is fully evaluated at
// EvaluationDepth. The root ply fans out one pool task per legal root move
// and returns once the pool drains. Terminal and invalid roots are rejected.
func (e *Engine) Evaluate(ctx context.Context, pos game.Position) error {
	if !pos.IsValid() {
		return fmt.Errorf("%w: cannot evaluate", game.ErrInvalidPosition)
	}
	if pos.IsOver() {
		return fmt.Errorf("%w: cannot evaluate a finished game", game.ErrInvalidPosition)
	}

	start := time.Now()
	e.gen.Toggle()

	root := e.branchSeq.Inc()
	if err := e.search(pos, []int64{root}, EvaluationDepth, -ScoreRange, ScoreRange, pos.WhiteToMove); err != nil {
		return err
	}

	hash, err := pos.Hash()
	if err != nil {
		return err
	}
	nd, err := e.QueryHash(hash)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	logw.Infof(ctx, "Evaluated %v: move=%v score=%.2f states=%v in %v",
		pos, nd.Best, nd.Score, e.visited.Load(), elapsed)
	e.log.Record(Record{
		Position: pos.String(),
		Move:     nd.Best.String(),
		Score:    nd.Score,
		States:   e.visited.Load(),
		Duration: elapsed,
	})
	return nil
}

// Query returns the cached evaluation of pos, failing with ErrUnknown when
// the position has never been reached.
func (e *Engine) Query(pos game.Position) (NodeData, error) {
	hash, err := pos.Hash()
	if err != nil {
		return NodeData{}, err
	}
	return e.QueryHash(hash)
}

// QueryHash is Query keyed by position hash.
func (e *Engine) QueryHash(hash int) (NodeData, error) {
	if !e.table.Has(hash) {
		return NodeData{}, fmt.Errorf("%w: no entry for hash %d", ErrUnknown, hash)
	}

	var nd NodeData
	e.table.Get(hash).Read(func(n Entry) {
		nd = NodeData{Score: n.Score, Depth: n.Depth, Best: n.Best}
	})
	return nd, nil
}

// StatesVisited returns the number of entries visited by the most recent
// Evaluate call.
func (e *Engine) StatesVisited() int64 {
	return e.visited.Load()
}
