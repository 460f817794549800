package feature

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/frand"

	"github.com/domino14/ntuple2048/board"
)

func newTestPattern(t *testing.T, positions []int, iso int) *Pattern {
	t.Helper()
	p, err := NewPattern(positions, iso)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Release(p) })
	return p
}

func testRNG(b byte) *frand.RNG {
	seed := make([]byte, 32)
	seed[0] = b
	return frand.NewCustom(seed, 1024, 12)
}

func TestNewPatternValidation(t *testing.T) {
	is := is.New(t)
	before := WeightCellsAllocated()
	for _, c := range []struct {
		positions []int
		iso       int
	}{
		{nil, 8},
		{[]int{0, 1, 2, 3, 4, 5, 6, 7, 8}, 8},
		{[]int{0, 16}, 8},
		{[]int{-1, 2}, 8},
		{[]int{0, 1}, 2},
		{[]int{0, 1}, 0},
	} {
		_, err := NewPattern(c.positions, c.iso)
		is.True(errors.Is(err, ErrInvalidPattern))
	}
	is.Equal(WeightCellsAllocated(), before)
}

func TestIsomorphisms(t *testing.T) {
	p := newTestPattern(t, []int{0, 1}, 8)
	assert.Equal(t, [][]int{
		{0, 1}, {12, 8}, {15, 14}, {3, 7},
		{3, 2}, {15, 11}, {12, 13}, {0, 4},
	}, p.Isomorphisms())
	assert.Equal(t, 256, p.Size())
	assert.Equal(t, "2-tuple pattern 01", p.Name())

	p4 := newTestPattern(t, []int{0, 1}, 4)
	assert.Equal(t, [][]int{{0, 1}, {12, 8}, {15, 14}, {3, 7}}, p4.Isomorphisms())

	p1 := newTestPattern(t, []int{4, 5, 6, 10}, 1)
	assert.Equal(t, [][]int{{4, 5, 6, 10}}, p1.Isomorphisms())
	assert.Equal(t, "4-tuple pattern 456a", p1.Name())
	assert.Equal(t, []int{4, 5, 6, 10}, p1.Positions())
}

func TestIndexOf(t *testing.T) {
	is := is.New(t)
	var b board.Board
	b.Set(0, 1)
	b.Set(1, 2)
	b.Set(4, 15)
	is.Equal(indexOf([]int{0, 1}, b), 0x21)
	is.Equal(indexOf([]int{1, 0}, b), 0x12)
	is.Equal(indexOf([]int{4, 0, 2}, b), 0x01F)
}

func TestIndexInRange(t *testing.T) {
	is := is.New(t)
	rng := testRNG(9)
	p := newTestPattern(t, []int{0, 5, 10}, 8)
	for i := 0; i < 1000; i++ {
		b := board.Board(rng.Uint64n(math.MaxUint64))
		for _, iso := range p.isom {
			idx := indexOf(iso, b)
			is.True(idx >= 0 && idx < p.Size())
		}
	}
}

func TestUpdateEstimate(t *testing.T) {
	is := is.New(t)
	p := newTestPattern(t, []int{0, 1}, 8)
	b := identityBoard
	is.Equal(p.Estimate(b), 0.0)

	got := p.Update(b, 8)
	// every placement reads a different cell on this board, so each gets 1
	is.Equal(got, 8.0)
	is.Equal(p.Estimate(b), 8.0)
	is.Equal(p.Weight(0x10), float32(1))
	is.Equal(p.Weight(0x40), float32(1))
	is.Equal(p.Weight(0), float32(0))
}

func TestUpdateSharedCell(t *testing.T) {
	is := is.New(t)
	p := newTestPattern(t, []int{0, 1}, 8)
	var b board.Board
	b.Set(0, 1)
	b.Set(1, 2)
	// six placements read only empty cells and share index 0
	got := p.Update(b, 8)
	is.Equal(got, 1.0+(1+2+3+4+5+6)+1)
	is.Equal(p.Estimate(b), 1.0+6*6+1)
}

func sumWeights(p *Pattern) float64 {
	var s float64
	for _, w := range p.weight {
		s += float64(w)
	}
	return s
}

func TestUpdateConservation(t *testing.T) {
	rng := testRNG(5)
	for _, iso := range []int{1, 4, 8} {
		p := newTestPattern(t, []int{0, 1, 2, 3}, iso)
		for i := 0; i < 200; i++ {
			b := board.Board(rng.Uint64n(math.MaxUint64))
			if i%10 == 0 {
				// a fully symmetric board sends several shares to one cell
				b = 0
			}
			delta := rng.Float64()*10 - 5
			before := sumWeights(p)
			p.Update(b, delta)
			assert.InDelta(t, delta, sumWeights(p)-before, 1e-4)
		}
	}
}

func TestEstimateIsSymmetric(t *testing.T) {
	rng := testRNG(13)
	p := newTestPattern(t, []int{0, 1, 2, 4, 5, 6}, 8)
	for i := 0; i < 500; i++ {
		p.Update(board.Board(rng.Uint64n(math.MaxUint64)), rng.Float64())
	}
	for i := 0; i < 200; i++ {
		b := board.Board(rng.Uint64n(math.MaxUint64))
		want := p.Estimate(b)
		for r := 0; r < 4; r++ {
			rot := b
			rot.Rotate(r)
			assert.InDelta(t, want, p.Estimate(rot), 1e-3)
			rot.Mirror()
			assert.InDelta(t, want, p.Estimate(rot), 1e-3)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	is := is.New(t)
	rng := testRNG(21)
	p := newTestPattern(t, []int{0, 1, 2, 3}, 8)
	for i := 0; i < 300; i++ {
		p.Update(board.Board(rng.Uint64n(math.MaxUint64)), rng.Float64()*100-50)
	}
	var buf bytes.Buffer
	n, err := p.WriteTo(&buf)
	is.NoErr(err)
	is.Equal(n, int64(buf.Len()))
	is.Equal(n, int64(4+len(p.Name())+8+4*p.Size()))

	fresh := newTestPattern(t, []int{0, 1, 2, 3}, 8)
	read, err := fresh.ReadFrom(bytes.NewReader(buf.Bytes()))
	is.NoErr(err)
	is.Equal(read, n)
	is.Equal(fresh.Name(), p.Name())
	for i := range p.weight {
		is.Equal(math.Float32bits(fresh.weight[i]), math.Float32bits(p.weight[i]))
	}
}

func TestReadRejectsMismatch(t *testing.T) {
	is := is.New(t)
	p := newTestPattern(t, []int{0, 1}, 8)
	var buf bytes.Buffer
	_, err := p.WriteTo(&buf)
	is.NoErr(err)

	other := newTestPattern(t, []int{0, 4}, 8)
	_, err = other.ReadFrom(bytes.NewReader(buf.Bytes()))
	is.True(errors.Is(err, ErrUnexpectedFeature))

	// right name, wrong count
	var bad bytes.Buffer
	name := p.Name()
	is.NoErr(binary.Write(&bad, binary.LittleEndian, uint32(len(name))))
	bad.WriteString(name)
	is.NoErr(binary.Write(&bad, binary.LittleEndian, uint64(100)))
	_, err = p.ReadFrom(&bad)
	is.True(errors.Is(err, ErrUnexpectedSize))

	_, err = p.ReadFrom(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
	is.True(errors.Is(err, ErrTruncated))

	_, err = p.ReadFrom(bytes.NewReader(nil))
	is.True(errors.Is(err, ErrTruncated))
}

func TestWeightCap(t *testing.T) {
	is := is.New(t)
	t.Cleanup(func() { SetWeightCap(DefaultWeightCap) })

	SetWeightCap(WeightCellsAllocated() + 300)
	p := newTestPattern(t, []int{0, 1}, 8)
	is.Equal(p.Size(), 256)

	_, err := NewPattern([]int{2, 3}, 8)
	is.True(errors.Is(err, ErrWeightCapExceeded))

	before := WeightCellsAllocated()
	Release(p)
	is.Equal(WeightCellsAllocated(), before-256)
	q, err := NewPattern([]int{2, 3}, 8)
	is.NoErr(err)
	Release(q)
}

func TestSystemWeightCap(t *testing.T) {
	is := is.New(t)
	c := SystemWeightCap()
	is.True(c > 0)
	is.True(c <= DefaultWeightCap)
}
