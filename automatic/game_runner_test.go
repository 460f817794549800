package automatic

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/ntuple2048/env"
	"github.com/domino14/ntuple2048/feature"
	"github.com/domino14/ntuple2048/learner"
)

func newTestLearner(t *testing.T) *learner.TD0 {
	t.Helper()
	l, err := learner.New(0.1, 0.99, &feature.PatternSet{Patterns: []feature.PatternSpec{
		{Positions: []int{0, 1, 2, 3}, Iso: 8},
		{Positions: []int{4, 5, 6, 7}, Iso: 8},
	}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(l.Release)
	return l
}

func TestRunEpisode(t *testing.T) {
	is := is.New(t)
	l := newTestLearner(t)
	a := NewAgent(env.New(NewRNG(SeedFromInt(1))), l, NewRNG(SeedFromInt(2)))
	a.Epsilon = 0.5
	a.Decay = 0.5
	a.EpsMin = 0.2

	res := a.RunEpisode()
	is.True(res.Score > 0)
	is.True(res.Moves > 0)
	is.True(res.MaxTile >= 4)
	is.Equal(res.Epsilon, 0.5)
	is.True(!a.Env.Board().CanMove())
	is.Equal(a.Epsilon, 0.25)

	a.RunEpisode()
	is.Equal(a.Epsilon, 0.2)
}

func TestTrainingChangesWeights(t *testing.T) {
	is := is.New(t)
	l := newTestLearner(t)
	a := NewAgent(env.New(NewRNG(SeedFromInt(3))), l, NewRNG(SeedFromInt(4)))
	a.RunEpisode()
	p := l.Features()[0].(*feature.Pattern)
	nonzero := 0
	for i := 0; i < p.Size(); i++ {
		if p.Weight(i) != 0 {
			nonzero++
		}
	}
	is.True(nonzero > 0)
}

func TestTrainCallback(t *testing.T) {
	is := is.New(t)
	l := newTestLearner(t)
	a := NewAgent(env.New(NewRNG(SeedFromInt(5))), l, NewRNG(SeedFromInt(6)))
	var eps []int
	err := a.Train(context.Background(), 3, func(ep int, res EpisodeResult) {
		eps = append(eps, ep)
	})
	is.NoErr(err)
	is.Equal(eps, []int{1, 2, 3})
}

func TestTrainCancelled(t *testing.T) {
	is := is.New(t)
	l := newTestLearner(t)
	a := NewAgent(env.New(NewRNG(SeedFromInt(7))), l, NewRNG(SeedFromInt(8)))
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	err := a.Train(ctx, 100, func(ep int, res EpisodeResult) {
		n++
		if ep == 2 {
			cancel()
		}
	})
	is.Equal(err, context.Canceled)
	is.Equal(n, 2)
}

func TestSameSeedSameGame(t *testing.T) {
	is := is.New(t)
	play := func() EpisodeResult {
		l := newTestLearner(t)
		a := NewAgent(env.New(NewRNG(SeedFromInt(9))), l, NewRNG(SeedFromInt(10)))
		return a.RunEpisode()
	}
	is.Equal(play(), play())
}
