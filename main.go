package main

import (
	"context"
	"fmt"
	"os"

	"chopsticks/engine"
	"chopsticks/game"
	"chopsticks/pool"
)

// maxPlies caps self-play: with generous split rules both sides can stall a
// lost game indefinitely.
const maxPlies = 100

func main() {
	ctx := context.Background()

	p := pool.New(ctx, 0)
	defer p.Terminate()

	evalLog, err := engine.NewLogger("evaluations.log")
	if err != nil {
		fmt.Printf("Warning: could not create evaluation log: %v\n", err)
	} else {
		defer evalLog.Close()
	}

	e := engine.New(ctx, engine.WithPool(p), engine.WithLogger(evalLog))

	pos := game.Initial()
	fmt.Printf("Self-play from %v (depth %d, %d workers)\n\n", pos, engine.EvaluationDepth, p.Workers())

	for ply := 1; ply <= maxPlies && !pos.IsOver(); ply++ {
		if err := e.Evaluate(ctx, pos); err != nil {
			fmt.Printf("Evaluation failed: %v\n", err)
			os.Exit(1)
		}

		nd, err := e.Query(pos)
		if err != nil {
			fmt.Printf("Query failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%3d. %v  plays %-4s  score %+.2f  (%d states)\n",
			ply, pos, nd.Best, nd.Score, e.StatesVisited())

		if err := pos.Apply(nd.Best); err != nil {
			fmt.Printf("Engine chose an illegal move %v: %v\n", nd.Best, err)
			os.Exit(1)
		}
	}

	fmt.Println()
	if winner, err := pos.Winner(); err == nil {
		fmt.Printf("Final position %v: %c wins\n", pos, winner)
	} else {
		fmt.Printf("Final position %v: no decision after %d plies\n", pos, maxPlies)
	}
}
