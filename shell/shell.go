// Package shell is an interactive prompt for playing 2048 by hand with
// the learner's evaluations alongside, or watching it play.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/ntuple2048/automatic"
	"github.com/domino14/ntuple2048/config"
	"github.com/domino14/ntuple2048/env"
	"github.com/domino14/ntuple2048/feature"
	"github.com/domino14/ntuple2048/learner"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("quit")
)

type ShellController struct {
	l   *readline.Instance
	out io.Writer

	config   *config.Config
	execPath string

	env     *env.Env
	learner *learner.TD0
	rng     *frand.RNG
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController sets up readline and a fresh game. If the config
// names a checkpoint it is loaded; otherwise the learner starts from zero
// weights.
func NewShellController(cfg *config.Config, execPath string) (*ShellController, error) {
	sc, err := newController(cfg, execPath, nil)
	if err != nil {
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[33mntuple2048>\033[0m ",
		HistoryFile:     "/tmp/ntuple2048_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		sc.Cleanup()
		return nil, err
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc, nil
}

// newController builds everything but the readline instance. Output goes
// to out until NewShellController replaces it.
func newController(cfg *config.Config, execPath string, out io.Writer) (*ShellController, error) {
	sc := &ShellController{config: cfg, execPath: execPath, out: out}
	if seed := cfg.GetInt64(config.ConfigSeed); seed != 0 {
		sc.rng = automatic.NewRNG(automatic.SeedFromInt(seed))
	} else {
		sc.rng = frand.New()
	}
	sc.env = env.New(sc.rng)
	sc.env.Reset()

	l, err := buildLearner(cfg, cfg.GetString(config.ConfigPatterns))
	if err != nil {
		return nil, err
	}
	sc.learner = l
	if ckpt := cfg.GetString(config.ConfigLoad); ckpt != "" {
		if err := l.Load(ckpt); err != nil {
			l.Release()
			return nil, err
		}
	}
	return sc, nil
}

func buildLearner(cfg *config.Config, patterns string) (*learner.TD0, error) {
	ps := feature.DefaultPatternSet()
	if patterns != "" {
		var err error
		ps, err = feature.LoadPatternSet(patterns)
		if err != nil {
			return nil, err
		}
	}
	return learner.New(cfg.GetFloat64(config.ConfigAlpha), cfg.GetFloat64(config.ConfigGamma), ps)
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into the command, its positional arguments
// and its -option value pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") && len(fields[idx]) > 1 {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[idx][1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "quit":
		sig <- syscall.SIGINT
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "move", "m":
		return sc.move(cmd)
	case "hint":
		return sc.hint(cmd)
	case "auto":
		return sc.auto(cmd)
	case "load":
		return sc.load(cmd)
	case "board":
		return sc.setBoard(cmd)
	default:
		// a bare direction is a move
		if _, err := parseDirection(cmd.cmd); err == nil && len(cmd.args) == 0 {
			return sc.move(&shellcmd{cmd: "move", args: []string{cmd.cmd}})
		}
		log.Debug().Msgf("you said: %v", line)
		return nil, fmt.Errorf("unknown command %q; try help", cmd.cmd)
	}
}

// Execute runs a single command line without starting the loop.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(strings.TrimSpace(line), sig)
	if err != nil && !errors.Is(err, errQuit) {
		sc.showError(err)
		return
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msg("exiting readline loop")
}

// Cleanup releases the learner's weights.
func (sc *ShellController) Cleanup() {
	if sc.learner != nil {
		sc.learner.Release()
		sc.learner = nil
	}
}
