package feature

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PatternSpec describes one pattern in a pattern-set file.
type PatternSpec struct {
	Positions []int `yaml:"positions"`
	Iso       int   `yaml:"iso,omitempty"`
}

// A PatternSet is the model shape: which patterns to build, in order.
// Checkpoints are only compatible with the set they were trained with.
type PatternSet struct {
	Patterns []PatternSpec `yaml:"patterns"`
}

// DefaultPatternSet returns four 6-tuples with full symmetry:
//
//	x x x x    . . . .    x x x .    . . . .
//	x x . .    x x x x    x x x .    x x x .
//	. . . .    x x . .    . . . .    x x x .
//	. . . .    . . . .    . . . .    . . . .
func DefaultPatternSet() *PatternSet {
	return &PatternSet{Patterns: []PatternSpec{
		{Positions: []int{0, 1, 2, 3, 4, 5}, Iso: 8},
		{Positions: []int{4, 5, 6, 7, 8, 9}, Iso: 8},
		{Positions: []int{0, 1, 2, 4, 5, 6}, Iso: 8},
		{Positions: []int{4, 5, 6, 8, 9, 10}, Iso: 8},
	}}
}

// ParsePatternSet reads a YAML pattern set. A missing iso means 8.
func ParsePatternSet(data []byte) (*PatternSet, error) {
	ps := &PatternSet{}
	if err := yaml.Unmarshal(data, ps); err != nil {
		return nil, err
	}
	if len(ps.Patterns) == 0 {
		return nil, fmt.Errorf("%w: pattern set is empty", ErrInvalidPattern)
	}
	for i := range ps.Patterns {
		if ps.Patterns[i].Iso == 0 {
			ps.Patterns[i].Iso = 8
		}
	}
	return ps, nil
}

func LoadPatternSet(path string) (*PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ps, err := ParsePatternSet(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ps, nil
}

// Cells returns the number of weight cells Build would allocate, so the
// cap can be checked before any table exists.
func (ps *PatternSet) Cells() int64 {
	var total int64
	for _, spec := range ps.Patterns {
		total += int64(1) << (4 * len(spec.Positions))
	}
	return total
}

// Build allocates every pattern. On error nothing stays allocated.
func (ps *PatternSet) Build() ([]Feature, error) {
	features := make([]Feature, 0, len(ps.Patterns))
	for i, spec := range ps.Patterns {
		p, err := NewPattern(spec.Positions, spec.Iso)
		if err != nil {
			for _, f := range features {
				Release(f)
			}
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		features = append(features, p)
	}
	return features, nil
}
