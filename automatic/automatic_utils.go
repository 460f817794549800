package automatic

// Greedy evaluation games, many at once.

import (
	"context"
	"errors"
	"expvar"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/ntuple2048/board"
	"github.com/domino14/ntuple2048/env"
	"github.com/domino14/ntuple2048/learner"
)

var (
	GamesPlayed *expvar.Int
	IsPlaying   *expvar.Int
)

func init() {
	GamesPlayed = expvar.NewInt("gamesPlayed")
	IsPlaying = expvar.NewInt("isPlaying")
}

// maxGameMoves bounds a greedy game. Greedy play never picks an illegal
// move, so a game can only run this long if something is badly wrong.
const maxGameMoves = 1 << 20

var errRunaway = errors.New("game did not finish")

// PlayGreedyGame plays one game from e's reset position, always taking
// the learner's best move. The learner is only read.
func PlayGreedyGame(ctx context.Context, e *env.Env, l *learner.TD0) (EpisodeResult, error) {
	s := e.Reset()
	for i := 0; i < maxGameMoves; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return EpisodeResult{}, err
			}
		}
		step := e.Step(l.BestAction(s))
		s = step.State
		if step.Done {
			return EpisodeResult{
				Score:   e.Score(),
				MaxTile: board.TileValue(s.MaxTile()),
				Moves:   e.Moves(),
			}, nil
		}
	}
	return EpisodeResult{}, errRunaway
}

// PlayGreedyGames plays one greedy game per seed on up to threads
// goroutines. Results come back in seed order. The learner must not be
// trained while this runs.
func PlayGreedyGames(ctx context.Context, l *learner.TD0, seeds [][32]byte, threads int) ([]EpisodeResult, error) {
	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}
	if threads < 1 {
		threads = 1
	}
	log.Debug().Int("games", len(seeds)).Int("threads", threads).Msg("starting-greedy-games")

	results := make([]EpisodeResult, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)

	for i, seed := range seeds {
		g.Go(func() error {
			res, err := PlayGreedyGame(ctx, env.New(NewRNG(seed)), l)
			if err != nil {
				return err
			}
			results[i] = res
			GamesPlayed.Add(1)
			if n := GamesPlayed.Value(); n%1000 == 0 {
				log.Info().Int64("games", n).Msg("progress")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
