package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/ntuple2048/automatic"
	"github.com/domino14/ntuple2048/config"
	"github.com/domino14/ntuple2048/feature"
	"github.com/domino14/ntuple2048/learner"
	"github.com/domino14/ntuple2048/stats"
)

func setupLogger(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
}

// evaluationSeeds returns the seeds to play. A seeds file is read if it
// exists and written otherwise, so later runs replay the same games.
func evaluationSeeds(cfg *config.Config) ([][32]byte, error) {
	n := cfg.GetInt(config.ConfigEvalGames)
	path := cfg.GetString(config.ConfigSeedsFile)
	if path != "" {
		seeds, err := automatic.LoadSeeds(path)
		if err == nil {
			log.Info().Str("path", path).Int("games", len(seeds)).Msg("loaded-seeds")
			return seeds, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	var seeds [][32]byte
	if s := cfg.GetInt64(config.ConfigSeed); s != 0 {
		seeds = automatic.DeriveSeeds(automatic.SeedFromInt(s), n)
	} else {
		seeds = automatic.GenerateSeeds(n)
	}
	if path != "" {
		if err := automatic.SaveSeeds(seeds, path); err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("saved-seeds")
	}
	return seeds, nil
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogger(cfg.GetBool(config.ConfigDebug))
	cfg.AdjustRelativePaths(filepath.Dir(ex))

	ckpt := cfg.GetString(config.ConfigLoad)
	if ckpt == "" {
		log.Fatal().Msg("--load is required")
	}
	if c := cfg.GetInt64(config.ConfigWeightCap); c > 0 {
		feature.SetWeightCap(c)
	} else {
		feature.SetWeightCap(feature.SystemWeightCap())
	}
	ps := feature.DefaultPatternSet()
	if p := cfg.GetString(config.ConfigPatterns); p != "" {
		ps, err = feature.LoadPatternSet(p)
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-load-patterns")
		}
	}
	l, err := learner.New(cfg.GetFloat64(config.ConfigAlpha), cfg.GetFloat64(config.ConfigGamma), ps)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-build-learner")
	}
	defer l.Release()
	if err := l.Load(ckpt); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-checkpoint")
	}

	seeds, err := evaluationSeeds(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-get-seeds")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	start := time.Now()
	results, err := automatic.PlayGreedyGames(ctx, l, seeds, cfg.GetInt(config.ConfigThreads))
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation-failed")
	}
	log.Info().Int("games", len(results)).Dur("elapsed", time.Since(start)).Msg("evaluation-done")

	scores := lo.Map(results, func(r automatic.EpisodeResult, _ int) int { return r.Score })
	summary := stats.Summarize(lo.Map(scores, func(s int, _ int) float64 { return float64(s) }), 95)
	fmt.Println(summary.String())

	// one block spanning every game gives the tile table
	collector := stats.NewCollector(len(results))
	for i, r := range results {
		blk, err := collector.Push(i+1, r.Score, r.MaxTile, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("statistics")
		}
		if blk != nil {
			fmt.Print(blk.String())
		}
	}
	if h, err := stats.Histogram(scores, 15, 50); err == nil {
		fmt.Print(h)
	}
}
