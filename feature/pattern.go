package feature

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/ntuple2048/board"
)

// MaxPatternLength bounds the tuple length; a 9-tuple would need 2^36
// cells.
const MaxPatternLength = 8

// identityBoard holds value p at position p. Transforming it and reading
// the pattern's positions back gives the positions a symmetric copy of the
// pattern looks at.
const identityBoard = board.Board(0xFEDCBA9876543210)

// A Pattern is an n-tuple feature: a dense table of 16^n weights indexed
// by the tiles at n board positions, shared across 1, 4 or 8 symmetric
// placements of those positions.
type Pattern struct {
	// isom[0] is the pattern as given; the rest are its rotations and,
	// for 8 isomorphisms, the rotations of its mirror image.
	isom   [][]int
	weight []float32
}

// NewPattern allocates a pattern over positions with iso isomorphisms
// (1, 4 or 8). It fails if the global weight cap would be exceeded.
func NewPattern(positions []int, iso int) (*Pattern, error) {
	if len(positions) == 0 || len(positions) > MaxPatternLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidPattern, len(positions))
	}
	for _, p := range positions {
		if p < 0 || p > 15 {
			return nil, fmt.Errorf("%w: position %d", ErrInvalidPattern, p)
		}
	}
	if iso != 1 && iso != 4 && iso != 8 {
		return nil, fmt.Errorf("%w: iso must be 1, 4, or 8, got %d", ErrInvalidPattern, iso)
	}
	weight, err := weightAllocator.alloc(1 << (4 * len(positions)))
	if err != nil {
		return nil, err
	}
	p := &Pattern{weight: weight}

	for r := 0; r < 4; r++ {
		idx := identityBoard
		idx.Rotate(r)
		p.isom = append(p.isom, readPositions(idx, positions))
		if iso == 1 {
			break
		}
	}
	if iso == 8 {
		mirrored := identityBoard
		mirrored.Mirror()
		for r := 0; r < 4; r++ {
			idx := mirrored
			idx.Rotate(r)
			p.isom = append(p.isom, readPositions(idx, positions))
		}
	}
	return p, nil
}

func readPositions(b board.Board, positions []int) []int {
	out := make([]int, len(positions))
	for i, pos := range positions {
		out[i] = b.At(pos)
	}
	return out
}

func (p *Pattern) Estimate(b board.Board) float64 {
	var v float64
	for _, iso := range p.isom {
		v += float64(p.weight[indexOf(iso, b)])
	}
	return v
}

// Update spreads u evenly over the isomorphisms. This is not the exact
// gradient when several isomorphisms hit the same cell, but it is the
// rule the checkpoints were trained with.
func (p *Pattern) Update(b board.Board, u float64) float64 {
	adjust := float32(u / float64(len(p.isom)))
	var v float64
	for _, iso := range p.isom {
		idx := indexOf(iso, b)
		p.weight[idx] += adjust
		v += float64(p.weight[idx])
	}
	return v
}

func (p *Pattern) Name() string {
	return fmt.Sprintf("%d-tuple pattern %s", len(p.isom[0]), nameOf(p.isom[0]))
}

func (p *Pattern) Size() int {
	return len(p.weight)
}

// Positions returns the pattern's own positions.
func (p *Pattern) Positions() []int {
	return append([]int(nil), p.isom[0]...)
}

// Isomorphisms returns the position lists of every symmetric placement.
func (p *Pattern) Isomorphisms() [][]int {
	out := make([][]int, len(p.isom))
	for i, iso := range p.isom {
		out[i] = append([]int(nil), iso...)
	}
	return out
}

// Weight returns the weight at table index i.
func (p *Pattern) Weight(i int) float32 {
	return p.weight[i]
}

// Dump logs the cell each isomorphism reads for b.
func (p *Pattern) Dump(b board.Board) {
	log.Debug().Str("feature", p.Name()).Float64("estimate", p.Estimate(b)).Msg("dump")
	for _, iso := range p.isom {
		idx := indexOf(iso, b)
		tiles := make([]int, len(iso))
		for i := range iso {
			tiles[i] = (idx >> (4 * i)) & 0xF
		}
		log.Debug().Msgf("#%s[%s] = %v", nameOf(iso), nameOf(tiles), p.weight[idx])
	}
}

// indexOf packs the tiles at positions into a table index, the first
// position in the low nibble.
func indexOf(positions []int, b board.Board) int {
	idx := 0
	for i, pos := range positions {
		idx |= b.At(pos) << (4 * i)
	}
	return idx
}

func nameOf(vals []int) string {
	var sb strings.Builder
	for _, v := range vals {
		fmt.Fprintf(&sb, "%x", v)
	}
	return sb.String()
}
