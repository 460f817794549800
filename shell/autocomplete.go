package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter completes command names and move directions.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var directions = []string{"up", "right", "down", "left"}

var commandMetadata = map[string]CommandMetadata{
	"new":  {Options: []string{"-seed"}},
	"move": {Args: directions},
	"m":    {Args: directions},
	"load": {Options: []string{"-patterns"}},
	"help": {Args: []string{"hint", "load"}},
}

var commandNames = []string{
	"new", "show", "move", "hint", "auto", "load", "board", "help", "exit",
	"up", "right", "down", "left",
}

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string
	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		if metadata, ok := commandMetadata[fields[0]]; ok {
			if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
				completions = metadata.Options
			} else {
				completions = metadata.Args
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
