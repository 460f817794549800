package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/domino14/ntuple2048/automatic"
	"github.com/domino14/ntuple2048/board"
	"github.com/domino14/ntuple2048/config"
	"github.com/domino14/ntuple2048/env"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func intOption(cmd *shellcmd, key string, def int) (int, error) {
	v, ok := cmd.options[key]
	if !ok {
		return def, nil
	}
	return strconv.Atoi(v)
}

func parseDirection(s string) (int, error) {
	return board.ParseAction(s)
}

func (sc *ShellController) status() string {
	b := sc.env.Board()
	var sb strings.Builder
	sb.WriteString(b.String())
	fmt.Fprintf(&sb, "score: %d  moves: %d  max tile: %d",
		sc.env.Score(), sc.env.Moves(), board.TileValue(b.MaxTile()))
	if !b.CanMove() {
		sb.WriteString("  GAME OVER")
	}
	return sb.String()
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	if s, ok := cmd.options["seed"]; ok {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		sc.rng = automatic.NewRNG(automatic.SeedFromInt(seed))
		sc.env = env.New(sc.rng)
	}
	sc.env.Reset()
	return msg(sc.status()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.status()), nil
}

func (sc *ShellController) move(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: move <up|right|down|left>")
	}
	a, err := parseDirection(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if !sc.env.Board().CanMove() {
		return nil, errors.New("the game is over; start a new one with `new`")
	}
	res := sc.env.Step(a)
	if res.Info.Illegal {
		return msg(board.ActionName(a) + " does not move anything\n" + sc.status()), nil
	}
	return msg(fmt.Sprintf("%s for %d\n%s", board.ActionName(a), res.Reward, sc.status())), nil
}

func (sc *ShellController) hint(cmd *shellcmd) (*Response, error) {
	b := sc.env.Board()
	evals := sc.learner.Evaluate(b)
	best := sc.learner.BestAction(b)
	var sb strings.Builder
	sb.WriteString("      Move  Reward         Value             Q\n")
	for _, e := range evals {
		marker := " "
		if e.Legal && e.Action == best {
			marker = "*"
		}
		if !e.Legal {
			fmt.Fprintf(&sb, "%s %8s  %6s\n", marker, board.ActionName(e.Action), "-")
			continue
		}
		fmt.Fprintf(&sb, "%s %8s  %6d  %12.2f  %12.2f\n", marker, board.ActionName(e.Action),
			e.Reward, sc.learner.Value(e.Afterstate), e.Q)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// auto plays greedy moves, all of them by default.
func (sc *ShellController) auto(cmd *shellcmd) (*Response, error) {
	n := -1
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	played := 0
	for n < 0 || played < n {
		b := sc.env.Board()
		if !b.CanMove() {
			break
		}
		sc.env.Step(sc.learner.BestAction(b))
		played++
	}
	return msg(fmt.Sprintf("played %d moves\n%s", played, sc.status())), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <checkpoint> [-patterns file.yaml]")
	}
	patterns := sc.config.GetString(config.ConfigPatterns)
	if p, ok := cmd.options["patterns"]; ok {
		patterns = p
	}
	l, err := buildLearner(sc.config, patterns)
	if err != nil {
		return nil, err
	}
	if err := l.Load(cmd.args[0]); err != nil {
		l.Release()
		return nil, err
	}
	sc.learner.Release()
	sc.learner = l
	return msg("loaded " + cmd.args[0] + ": " + l.String()), nil
}

func (sc *ShellController) setBoard(cmd *shellcmd) (*Response, error) {
	b, err := board.ParseBoard(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	sc.env.SetBoard(b)
	return msg(sc.status()), nil
}
