package automatic

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/ntuple2048/env"
)

func TestPlayGreedyGames(t *testing.T) {
	is := is.New(t)
	l := newTestLearner(t)
	seeds := DeriveSeeds(SeedFromInt(42), 8)

	parallel, err := PlayGreedyGames(context.Background(), l, seeds, 4)
	is.NoErr(err)
	is.Equal(len(parallel), len(seeds))

	// each game depends only on its seed, so thread count cannot matter
	serial, err := PlayGreedyGames(context.Background(), l, seeds, 1)
	is.NoErr(err)
	is.Equal(parallel, serial)

	for i, seed := range seeds {
		res, err := PlayGreedyGame(context.Background(), env.New(NewRNG(seed)), l)
		is.NoErr(err)
		is.Equal(res, parallel[i])
		is.True(res.Score > 0)
	}
}

func TestPlayGreedyGamesCancelled(t *testing.T) {
	is := is.New(t)
	l := newTestLearner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PlayGreedyGames(ctx, l, DeriveSeeds(SeedFromInt(1), 4), 2)
	is.Equal(err, context.Canceled)
}
