// Package automatic runs whole games: training episodes where the learner
// plays and updates online, and greedy evaluation games played in
// parallel against a fixed set of weights.
package automatic

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/domino14/ntuple2048/board"
	"github.com/domino14/ntuple2048/env"
	"github.com/domino14/ntuple2048/learner"
)

const (
	DefaultEpsilon = 0.1
	DefaultDecay   = 0.9995
	DefaultEpsMin  = 0.01
)

// EpisodeResult summarizes one finished game.
type EpisodeResult struct {
	Score   int `json:"score"`
	MaxTile int `json:"max_tile"`
	Moves   int `json:"moves"`
	// Illegal counts exploratory moves that did not change the board.
	Illegal int     `json:"illegal"`
	Epsilon float64 `json:"epsilon"`
}

// Agent plays epsilon-greedy training episodes, updating the learner after
// every step.
type Agent struct {
	Env     *env.Env
	Learner *learner.TD0

	Epsilon float64
	Decay   float64
	EpsMin  float64

	rng board.Randomizer
}

// NewAgent returns an agent with the default exploration schedule. rng
// drives exploration only; spawns come from the environment's own
// generator.
func NewAgent(e *env.Env, l *learner.TD0, rng board.Randomizer) *Agent {
	return &Agent{
		Env:     e,
		Learner: l,
		Epsilon: DefaultEpsilon,
		Decay:   DefaultDecay,
		EpsMin:  DefaultEpsMin,
		rng:     rng,
	}
}

// RunEpisode plays one game to the end, training as it goes, then decays
// epsilon.
func (a *Agent) RunEpisode() EpisodeResult {
	res := EpisodeResult{Epsilon: a.Epsilon}
	s := a.Env.Reset()
	for {
		act := a.Learner.SelectAction(s, a.Epsilon, a.rng)
		step := a.Env.Step(act)
		a.Learner.Update(s, act, step.Reward, step.State, step.Done)
		if step.Info.Illegal {
			res.Illegal++
		}
		s = step.State
		if step.Done {
			break
		}
	}
	res.Score = a.Env.Score()
	res.Moves = a.Env.Moves()
	res.MaxTile = board.TileValue(s.MaxTile())

	a.Epsilon = max(a.EpsMin, a.Epsilon*a.Decay)
	return res
}

// Train runs episodes and calls cb after each one with its 1-based index.
// It stops early, returning ctx.Err(), if ctx is cancelled between
// episodes.
func (a *Agent) Train(ctx context.Context, episodes int, cb func(ep int, res EpisodeResult)) error {
	for ep := 1; ep <= episodes; ep++ {
		select {
		case <-ctx.Done():
			log.Info().Int("episode", ep-1).Msg("training-interrupted")
			return ctx.Err()
		default:
		}
		res := a.RunEpisode()
		if cb != nil {
			cb(ep, res)
		}
	}
	return nil
}
