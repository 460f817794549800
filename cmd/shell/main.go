package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ntuple2048/config"
	"github.com/domino14/ntuple2048/feature"
	"github.com/domino14/ntuple2048/shell"
)

var (
	GitVersion string
)

//go:embed ntuple2048.txt
var banner string

func main() {
	// Relative pattern-set paths that don't exist from the working
	// directory are looked up next to the executable.
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)
	fmt.Println(banner)
	fmt.Println(GitVersion)

	cfg := &config.Config{}
	args := os.Args[1:]
	// flags are for the config; anything left over is a one-shot command
	flagArgs, cmdArgs := splitArgs(args)
	if err := cfg.Load(flagArgs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.AdjustRelativePaths(exPath)

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
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
	log.Info().Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	if c := cfg.GetInt64(config.ConfigWeightCap); c > 0 {
		feature.SetWeightCap(c)
	} else {
		feature.SetWeightCap(feature.SystemWeightCap())
	}

	sc, err := shell.NewShellController(cfg, exPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-start-shell")
	}

	done := make(chan struct{})
	sig := make(chan os.Signal, 2)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(done)
	}()

	if len(cmdArgs) == 0 {
		go sc.Loop(sig)
	} else {
		sc.Execute(sig, strings.Join(cmdArgs, " "))
		select {
		case sig <- syscall.SIGINT:
		default:
		}
	}

	<-done

	if os.Getenv("NTUPLE_MEM_PROFILE") != "" {
		f, err := os.Create(os.Getenv("NTUPLE_MEM_PROFILE"))
		if err != nil {
			panic("could not create memory profile: " + err.Error())
		}
		defer f.Close()
		memstats := &runtime.MemStats{}
		runtime.ReadMemStats(memstats)
		log.Info().Interface("memstats", memstats).Msg("memory-stats")
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic("could not write memory profile: " + err.Error())
		}
	}

	sc.Cleanup()
	log.Info().Msg("bye")
}

// splitArgs separates leading --flags (and their values) from a trailing
// shell command.
func splitArgs(args []string) ([]string, []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--") {
			return args[:i], args[i:]
		}
		if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") && !isBoolFlag(a) {
			i++
		}
	}
	return args, nil
}

func isBoolFlag(a string) bool {
	switch strings.TrimPrefix(a, "--") {
	case config.ConfigDebug, config.ConfigRender:
		return true
	}
	return false
}
