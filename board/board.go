package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// A Board is a 4x4 game board packed into 64 bits. Each of the sixteen
// 4-bit fields holds the log2 of a tile's value, with 0 meaning empty.
//
// Positions are laid out row-major:
//
//	 0  1  2  3
//	 4  5  6  7
//	 8  9 10 11
//	12 13 14 15
//
// Position i lives in bits 4i..4i+3, so row r is the 16-bit field at
// bits 16r..16r+15 and the leftmost tile of a row is its low nibble.
type Board uint64

// Illegal is returned by the move functions when a move does not change
// the board. It is distinct from a legal move that scores zero.
const Illegal = -1

const (
	ActionUp = iota
	ActionRight
	ActionDown
	ActionLeft
	NumActions
)

// MaxExponent is the largest log2 value a tile field can hold.
const MaxExponent = 15

var actionNames = [NumActions]string{"up", "right", "down", "left"}

var errBadBoardString = errors.New("board must have 16 tiles")

// Randomizer is the source of randomness for tile spawns. *frand.RNG
// satisfies it.
type Randomizer interface {
	Intn(n int) int
	Float64() float64
}

// ActionName returns a human-readable name for a move op.
func ActionName(op int) string {
	if op < 0 || op >= NumActions {
		return "none"
	}
	return actionNames[op]
}

// ParseAction accepts a direction name, its first letter, or the op number.
func ParseAction(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for op, name := range actionNames {
		if s == name || (len(s) == 1 && s[0] == name[0]) {
			return op, nil
		}
	}
	op, err := strconv.Atoi(s)
	if err != nil || op < 0 || op >= NumActions {
		return 0, fmt.Errorf("unknown direction %q", s)
	}
	return op, nil
}

// At returns the log2 value of the tile at position i.
func (b Board) At(i int) int {
	return int((b >> (uint(i) << 2)) & 0xF)
}

// Set sets position i to log2 value t. 0 clears the tile.
func (b *Board) Set(i, t int) {
	shift := uint(i) << 2
	*b = (*b &^ (Board(0xF) << shift)) | (Board(t&0xF) << shift)
}

// Row returns row i as a 16-bit value.
func (b Board) Row(i int) uint16 {
	return uint16(b >> (uint(i) << 4))
}

// PlaceRow overwrites row i with r.
func (b *Board) PlaceRow(i int, r uint16) {
	shift := uint(i) << 4
	*b = (*b &^ (Board(0xFFFF) << shift)) | (Board(r) << shift)
}

// Clone returns a copy of the board. Boards are values, so this is just
// the value itself; it exists so what-if code reads as what-if code.
func (b Board) Clone() Board {
	return b
}

// Init clears the board and spawns the two starting tiles.
func (b *Board) Init(rng Randomizer) {
	*b = 0
	b.SpawnTile(rng)
	b.SpawnTile(rng)
}

// SpawnTile places a 2 (90%) or a 4 (10%) on a uniformly chosen empty
// square. It does nothing if the board is full.
func (b *Board) SpawnTile(rng Randomizer) {
	var empty [16]int
	n := 0
	for i := 0; i < 16; i++ {
		if b.At(i) == 0 {
			empty[n] = i
			n++
		}
	}
	if n == 0 {
		return
	}
	pos := empty[rng.Intn(n)]
	t := 1
	if rng.Float64() >= 0.9 {
		t = 2
	}
	b.Set(pos, t)
}

// Move applies op (0 up, 1 right, 2 down, 3 left) and returns the merge
// score, or Illegal if nothing moved.
func (b *Board) Move(op int) int {
	switch op {
	case ActionUp:
		return b.MoveUp()
	case ActionRight:
		return b.MoveRight()
	case ActionDown:
		return b.MoveDown()
	case ActionLeft:
		return b.MoveLeft()
	}
	return Illegal
}

func (b *Board) MoveLeft() int {
	t := Table()
	var moved Board
	score := 0
	for i := 0; i < 4; i++ {
		e := &t[b.Row(i)]
		moved |= Board(e.Left) << (uint(i) << 4)
		score += int(e.Score)
	}
	if moved == *b {
		return Illegal
	}
	*b = moved
	return score
}

func (b *Board) MoveRight() int {
	t := Table()
	var moved Board
	score := 0
	for i := 0; i < 4; i++ {
		e := &t[b.Row(i)]
		moved |= Board(e.Right) << (uint(i) << 4)
		score += int(e.Score)
	}
	if moved == *b {
		return Illegal
	}
	*b = moved
	return score
}

// MoveUp slides tiles toward row 0. The table only knows row slides, so
// the board is rotated clockwise (the top edge becomes the right edge),
// slid right and rotated back.
func (b *Board) MoveUp() int {
	b.RotateClockwise()
	score := b.MoveRight()
	b.RotateCounterclockwise()
	return score
}

// MoveDown slides tiles toward row 3: rotate clockwise, slide left,
// rotate back.
func (b *Board) MoveDown() int {
	b.RotateClockwise()
	score := b.MoveLeft()
	b.RotateCounterclockwise()
	return score
}

// CanMove reports whether any move is legal. The receiver is never
// modified.
func (b Board) CanMove() bool {
	for op := 0; op < NumActions; op++ {
		c := b.Clone()
		if c.Move(op) != Illegal {
			return true
		}
	}
	return false
}

// LegalMoves returns a bitmask of the legal ops; bit op is set if op is
// legal.
func (b Board) LegalMoves() uint8 {
	var mask uint8
	for op := 0; op < NumActions; op++ {
		c := b.Clone()
		if c.Move(op) != Illegal {
			mask |= 1 << op
		}
	}
	return mask
}

// MaxTile returns the largest log2 value on the board.
func (b Board) MaxTile() int {
	m := 0
	for i := 0; i < 16; i++ {
		if t := b.At(i); t > m {
			m = t
		}
	}
	return m
}

// EmptyCount returns the number of empty squares.
func (b Board) EmptyCount() int {
	n := 0
	for i := 0; i < 16; i++ {
		if b.At(i) == 0 {
			n++
		}
	}
	return n
}

// TileValue converts a log2 field to the displayed tile value.
func TileValue(t int) int {
	if t == 0 {
		return 0
	}
	return 1 << t
}

func (b Board) String() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", 24) + "+\n"
	sb.WriteString(border)
	for r := 0; r < 4; r++ {
		sb.WriteString("|")
		for c := 0; c < 4; c++ {
			fmt.Fprintf(&sb, "%6d", TileValue(b.At(r*4+c)))
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// ParseBoard reads sixteen displayed tile values (0 for empty) in
// row-major order. Values may be separated by whitespace or commas, and
// the frame that String prints is ignored.
func ParseBoard(s string) (Board, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '|', '+', '-':
			return true
		}
		return false
	})
	if len(fields) != 16 {
		return 0, fmt.Errorf("%w, got %d", errBadBoardString, len(fields))
	}
	var b Board
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return 0, fmt.Errorf("tile %d: %w", i, err)
		}
		if v == 0 {
			continue
		}
		if v < 2 || bits.OnesCount(uint(v)) != 1 || bits.TrailingZeros(uint(v)) > MaxExponent {
			return 0, fmt.Errorf("tile %d: %d is not a valid tile value", i, v)
		}
		b.Set(i, bits.TrailingZeros(uint(v)))
	}
	return b, nil
}
