// Package env wraps a Board in the environment interface the learner is
// trained against: reset, step with a reward, and a terminal flag.
package env

import (
	"io"

	"lukechampine.com/frand"

	"github.com/domino14/ntuple2048/board"
)

// Info carries extra detail about a step.
type Info struct {
	Illegal bool `json:"illegal"`
}

type StepResult struct {
	State  board.Board
	Reward int
	Done   bool
	Info   Info
}

// Env is a single 2048 game. It is not safe for concurrent use; run one
// Env per goroutine.
type Env struct {
	rng    board.Randomizer
	b      board.Board
	score  int
	moves  int
	render io.Writer
}

// New returns an environment drawing spawns from rng. A nil rng gets a
// fresh entropy-seeded generator.
func New(rng board.Randomizer) *Env {
	if rng == nil {
		rng = frand.New()
	}
	return &Env{rng: rng}
}

// SetRenderer makes the environment print the board to w after every reset
// and step. nil turns rendering off.
func (e *Env) SetRenderer(w io.Writer) {
	e.render = w
}

// Reset starts a new game with two spawned tiles and returns the board.
func (e *Env) Reset() board.Board {
	e.b.Init(e.rng)
	e.score = 0
	e.moves = 0
	e.Render()
	return e.b
}

// Step plays action a. An illegal action scores nothing and spawns nothing
// but still counts as a move. Done is set when no move is legal afterwards.
func (e *Env) Step(a int) StepResult {
	reward := e.b.Move(a)
	illegal := reward == board.Illegal
	if illegal {
		reward = 0
	} else {
		e.b.SpawnTile(e.rng)
	}
	e.score += reward
	e.moves++
	e.Render()
	return StepResult{
		State:  e.b,
		Reward: reward,
		Done:   !e.b.CanMove(),
		Info:   Info{Illegal: illegal},
	}
}

// SampleMove returns a uniformly random action, legal or not.
func (e *Env) SampleMove() int {
	return e.rng.Intn(board.NumActions)
}

func (e *Env) Board() board.Board {
	return e.b
}

// SetBoard replaces the current position. The score and move count are
// left alone.
func (e *Env) SetBoard(b board.Board) {
	e.b = b
}

// Score is the sum of rewards since the last Reset.
func (e *Env) Score() int {
	return e.score
}

func (e *Env) Moves() int {
	return e.moves
}

func (e *Env) Render() {
	if e.render == nil {
		return
	}
	io.WriteString(e.render, e.b.String())
}
