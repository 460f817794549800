package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/ntuple2048/automatic"
	"github.com/domino14/ntuple2048/board"
	"github.com/domino14/ntuple2048/config"
	"github.com/domino14/ntuple2048/env"
	"github.com/domino14/ntuple2048/feature"
	"github.com/domino14/ntuple2048/learner"
	"github.com/domino14/ntuple2048/stats"
	"github.com/domino14/ntuple2048/trainlog"
)

var (
	GitVersion string
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

	var logger zerolog.Logger
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogger(cfg.GetBool(config.ConfigDebug))
	cfg.AdjustRelativePaths(exPath)
	log.Info().Str("version", GitVersion).Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

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

	if ckpt := cfg.GetString(config.ConfigLoad); ckpt != "" {
		err := l.Load(ckpt)
		if errors.Is(err, learner.ErrNoCheckpoint) {
			log.Warn().Str("path", ckpt).Msg("no-checkpoint-found-training-from-scratch")
		} else if err != nil {
			log.Fatal().Err(err).Msg("could-not-load-checkpoint")
		}
	}

	var envRNG, agentRNG board.Randomizer
	if seed := cfg.GetInt64(config.ConfigSeed); seed != 0 {
		seeds := automatic.DeriveSeeds(automatic.SeedFromInt(seed), 2)
		envRNG, agentRNG = automatic.NewRNG(seeds[0]), automatic.NewRNG(seeds[1])
	} else {
		envRNG, agentRNG = frand.New(), frand.New()
	}
	e := env.New(envRNG)
	if cfg.GetBool(config.ConfigRender) {
		e.SetRenderer(os.Stdout)
	}

	agent := automatic.NewAgent(e, l, agentRNG)
	agent.Epsilon = cfg.GetFloat64(config.ConfigEpsilon)
	agent.Decay = cfg.GetFloat64(config.ConfigEpsilonDecay)
	agent.EpsMin = cfg.GetFloat64(config.ConfigEpsilonMin)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := openSinks(ctx, cfg)
	defer func() {
		if err := sink.Close(); err != nil {
			log.Err(err).Msg("closing-sinks")
		}
	}()

	collector := stats.NewCollector(cfg.GetInt(config.ConfigUnit))
	episodes := cfg.GetInt(config.ConfigEpisodes)
	scores := make([]int, 0, episodes)
	start := time.Now()

	err = agent.Train(ctx, episodes, func(ep int, res automatic.EpisodeResult) {
		scores = append(scores, res.Score)
		blk, err := collector.Push(ep, res.Score, res.MaxTile, res.Epsilon)
		if err != nil {
			log.Fatal().Err(err).Msg("statistics")
		}
		if blk == nil {
			return
		}
		fmt.Fprint(os.Stderr, blk.String())
		log.Debug().Int("episode", ep).Float64("epsilon", agent.Epsilon).
			Dur("elapsed", time.Since(start)).Msg("block-done")
		if err := sink.Record(ctx, blk); err != nil {
			log.Err(err).Msg("could-not-record-block")
		}
	})
	if err != nil {
		log.Info().Err(err).Int("episodes", len(scores)).Msg("stopped-early")
	}

	if h, err := stats.Histogram(scores, 15, 50); err == nil && h != "" {
		fmt.Fprintln(os.Stderr, "score distribution:")
		fmt.Fprint(os.Stderr, h)
	}

	if path := cfg.GetString(config.ConfigSave); path != "" {
		if err := l.Save(path); err != nil {
			log.Fatal().Err(err).Msg("could-not-save-checkpoint")
		}
		log.Info().Str("path", path).Msg("saved-weights")
	}
}

// openSinks opens whichever training-block sinks are configured.
func openSinks(ctx context.Context, cfg *config.Config) trainlog.Sink {
	var sinks []trainlog.Sink
	if db := cfg.GetString(config.ConfigStatsDB); db != "" {
		s, err := trainlog.OpenSQLite(db)
		if err != nil {
			log.Fatal().Err(err).Str("path", db).Msg("could-not-open-stats-db")
		}
		sinks = append(sinks, s)
	}
	if url := cfg.GetString(config.ConfigNatsURL); url != "" {
		s, err := trainlog.ConnectNATS(ctx, url, cfg.GetString(config.ConfigNatsSubject))
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-connect-to-nats")
		}
		sinks = append(sinks, s)
	}
	return trainlog.MultiSink(sinks...)
}
