package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformsMovePositions(t *testing.T) {
	type tc struct {
		name  string
		apply func(*Board)
		from  int
		to    int
	}
	cases := []tc{
		{"transpose", (*Board).Transpose, 1, 4},
		{"transpose diagonal", (*Board).Transpose, 5, 5},
		{"mirror", (*Board).Mirror, 0, 3},
		{"mirror inner", (*Board).Mirror, 6, 5},
		{"flip", (*Board).Flip, 1, 13},
		{"clockwise", (*Board).RotateClockwise, 0, 3},
		{"clockwise edge", (*Board).RotateClockwise, 1, 7},
		{"counterclockwise", (*Board).RotateCounterclockwise, 0, 12},
		{"reverse", (*Board).Reverse, 1, 14},
	}
	for _, c := range cases {
		var b Board
		b.Set(c.from, 9)
		c.apply(&b)
		assert.Equal(t, 9, b.At(c.to), c.name)
		assert.Equal(t, 15, b.EmptyCount(), c.name)
	}
}

func TestTransformIdentities(t *testing.T) {
	rng := testRNG(42)
	for i := 0; i < 1000; i++ {
		orig := Board(rng.Uint64n(^uint64(0)))

		b := orig
		b.Transpose()
		b.Transpose()
		assert.Equal(t, orig, b, "transpose twice")

		b.Mirror()
		b.Mirror()
		assert.Equal(t, orig, b, "mirror twice")

		b.Flip()
		b.Flip()
		assert.Equal(t, orig, b, "flip twice")

		for k := 0; k < 4; k++ {
			b.Rotate(1)
		}
		assert.Equal(t, orig, b, "four quarter turns")

		b.RotateClockwise()
		b.RotateCounterclockwise()
		assert.Equal(t, orig, b, "clockwise then counterclockwise")

		r2 := orig
		r2.Rotate(2)
		rev := orig
		rev.Reverse()
		assert.Equal(t, rev, r2)

		neg := orig
		neg.Rotate(-1)
		ccw := orig
		ccw.RotateCounterclockwise()
		assert.Equal(t, ccw, neg)

		same := orig
		same.Rotate(8)
		assert.Equal(t, orig, same)
	}
}

func TestRotateMatchesIndexMath(t *testing.T) {
	b := Board(0xFEDCBA9876543210)
	b.RotateClockwise()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			// new[r][c] = old[3-c][r]
			assert.Equal(t, (3-c)*4+r, b.At(r*4+c))
		}
	}
}
