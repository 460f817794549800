// Package learner implements an afterstate TD(0) learner over n-tuple
// features. The value of a board is the sum of its features' estimates,
// and moves are chosen by reward plus the discounted value of the
// afterstate they produce.
package learner

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/ntuple2048/board"
	"github.com/domino14/ntuple2048/feature"
)

const (
	DefaultAlpha = 0.1
	DefaultGamma = 0.99
)

// TD0 is the learner. It holds no board state; all lookahead happens on
// value copies of the boards it is given.
type TD0 struct {
	Alpha float64
	Gamma float64

	features []feature.Feature
}

func NewTD0(alpha, gamma float64) *TD0 {
	return &TD0{Alpha: alpha, Gamma: gamma}
}

// New builds a learner with every pattern in ps.
func New(alpha, gamma float64, ps *feature.PatternSet) (*TD0, error) {
	features, err := ps.Build()
	if err != nil {
		return nil, err
	}
	l := NewTD0(alpha, gamma)
	for _, f := range features {
		l.AddFeature(f)
	}
	return l, nil
}

func (l *TD0) AddFeature(f feature.Feature) {
	l.features = append(l.features, f)
	log.Info().Str("feature", f.Name()).
		Str("size", humanize.IBytes(uint64(f.Size())*4)).
		Msg("added-feature")
}

func (l *TD0) Features() []feature.Feature {
	return l.features
}

// Release hands all feature weights back to the allocator. The learner is
// empty afterwards.
func (l *TD0) Release() {
	for _, f := range l.features {
		feature.Release(f)
	}
	l.features = nil
}

// Value is the sum of every feature's estimate of b.
func (l *TD0) Value(b board.Board) float64 {
	return lo.SumBy(l.features, func(f feature.Feature) float64 {
		return f.Estimate(b)
	})
}

// Evaluation is the learner's view of one candidate move.
type Evaluation struct {
	Action     int
	Legal      bool
	Reward     int
	Afterstate board.Board
	// Q is reward + gamma * V(afterstate); zero for illegal moves.
	Q float64
}

// Evaluate returns an Evaluation for each of the four actions, in action
// order.
func (l *TD0) Evaluate(b board.Board) [board.NumActions]Evaluation {
	var evals [board.NumActions]Evaluation
	for a := 0; a < board.NumActions; a++ {
		after := b
		r := after.Move(a)
		evals[a].Action = a
		if r == board.Illegal {
			continue
		}
		evals[a].Legal = true
		evals[a].Reward = r
		evals[a].Afterstate = after
		evals[a].Q = float64(r) + l.Gamma*l.Value(after)
	}
	return evals
}

// BestAction returns the legal action with the highest Q, the lowest index
// on ties, and 0 if nothing is legal.
func (l *TD0) BestAction(b board.Board) int {
	best, _ := l.bestQ(b)
	return best
}

// bestQ returns the greedy action from b and its Q, or (0, 0) when no
// move is legal.
func (l *TD0) bestQ(b board.Board) (int, float64) {
	bestA, bestQ := 0, 0.0
	found := false
	for a := 0; a < board.NumActions; a++ {
		after := b
		r := after.Move(a)
		if r == board.Illegal {
			continue
		}
		q := float64(r) + l.Gamma*l.Value(after)
		if !found || q > bestQ {
			bestA, bestQ, found = a, q, true
		}
	}
	return bestA, bestQ
}

// SelectAction is epsilon-greedy. With probability eps it returns a
// uniformly random action, legal or not. rng is only consulted when eps
// is positive.
func (l *TD0) SelectAction(b board.Board, eps float64, rng board.Randomizer) int {
	if eps > 0 && rng.Float64() < eps {
		return rng.Intn(board.NumActions)
	}
	return l.BestAction(b)
}

// Update applies one TD(0) step on the afterstate of taking a from s.
// sNext is the state the environment moved to, after its spawn. Nothing
// happens if a is illegal from s. It returns the TD error.
func (l *TD0) Update(s board.Board, a int, r int, sNext board.Board, done bool) float64 {
	after := s
	if after.Move(a) == board.Illegal || len(l.features) == 0 {
		return 0
	}
	v0 := l.Value(after)

	target := float64(r)
	if !done {
		// bestQ is 0 when sNext has no legal move.
		_, next := l.bestQ(sNext)
		target += l.Gamma * next
	}
	delta := target - v0
	u := l.Alpha * delta / float64(len(l.features))
	for _, f := range l.features {
		f.Update(after, u)
	}
	return delta
}

func (l *TD0) String() string {
	var cells int
	for _, f := range l.features {
		cells += f.Size()
	}
	return fmt.Sprintf("TD0(alpha=%g, gamma=%g, %d features, %s)",
		l.Alpha, l.Gamma, len(l.features), humanize.IBytes(uint64(cells)*4))
}
