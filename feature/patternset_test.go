package feature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

const testSetYAML = `
patterns:
  - positions: [0, 1, 2, 3]
  - positions: [4, 5, 6, 7]
    iso: 4
  - positions: [0, 5]
    iso: 1
`

func TestParsePatternSet(t *testing.T) {
	is := is.New(t)
	ps, err := ParsePatternSet([]byte(testSetYAML))
	is.NoErr(err)
	is.Equal(len(ps.Patterns), 3)
	is.Equal(ps.Patterns[0].Iso, 8)
	is.Equal(ps.Patterns[1].Iso, 4)
	is.Equal(ps.Patterns[2].Iso, 1)
	is.Equal(ps.Patterns[2].Positions, []int{0, 5})
	is.Equal(ps.Cells(), int64(65536+65536+256))

	_, err = ParsePatternSet([]byte("patterns: []\n"))
	is.True(errors.Is(err, ErrInvalidPattern))

	_, err = ParsePatternSet([]byte("patterns: {"))
	is.True(err != nil)
}

func TestLoadPatternSet(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "set.yaml")
	is.NoErr(os.WriteFile(path, []byte(testSetYAML), 0o644))
	ps, err := LoadPatternSet(path)
	is.NoErr(err)
	is.Equal(len(ps.Patterns), 3)

	_, err = LoadPatternSet(filepath.Join(t.TempDir(), "missing.yaml"))
	is.True(errors.Is(err, os.ErrNotExist))
}

func TestBuild(t *testing.T) {
	is := is.New(t)
	ps, err := ParsePatternSet([]byte(testSetYAML))
	is.NoErr(err)
	before := WeightCellsAllocated()
	features, err := ps.Build()
	is.NoErr(err)
	is.Equal(len(features), 3)
	is.Equal(WeightCellsAllocated()-before, ps.Cells())
	is.Equal(features[1].Name(), "4-tuple pattern 4567")
	for _, f := range features {
		Release(f)
	}
	is.Equal(WeightCellsAllocated(), before)
}

func TestBuildReleasesOnError(t *testing.T) {
	is := is.New(t)
	ps := &PatternSet{Patterns: []PatternSpec{
		{Positions: []int{0, 1}, Iso: 8},
		{Positions: []int{0, 17}, Iso: 8},
	}}
	before := WeightCellsAllocated()
	_, err := ps.Build()
	is.True(errors.Is(err, ErrInvalidPattern))
	is.Equal(WeightCellsAllocated(), before)
}

func TestDefaultPatternSet(t *testing.T) {
	is := is.New(t)
	ps := DefaultPatternSet()
	is.Equal(len(ps.Patterns), 4)
	is.Equal(ps.Cells(), int64(4<<24))
}
