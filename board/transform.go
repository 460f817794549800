package board

// Transforms are pure bit permutations on the packed board.

// Transpose swaps rows and columns: new[r][c] = old[c][r].
func (b *Board) Transpose() {
	x := *b
	x = (x & 0xF0F00F0FF0F00F0F) | ((x & 0x0000F0F00000F0F0) << 12) | ((x & 0x0F0F00000F0F0000) >> 12)
	x = (x & 0xFF00FF0000FF00FF) | ((x & 0x00000000FF00FF00) << 24) | ((x & 0x00FF00FF00000000) >> 24)
	*b = x
}

// Mirror reverses the columns of every row.
func (b *Board) Mirror() {
	x := *b
	*b = ((x & 0x000F000F000F000F) << 12) | ((x & 0x00F000F000F000F0) << 4) |
		((x & 0x0F000F000F000F00) >> 4) | ((x & 0xF000F000F000F000) >> 12)
}

// Flip reverses the order of the rows.
func (b *Board) Flip() {
	x := *b
	*b = ((x & 0x000000000000FFFF) << 48) | ((x & 0x00000000FFFF0000) << 16) |
		((x & 0x0000FFFF00000000) >> 16) | ((x & 0xFFFF000000000000) >> 48)
}

func (b *Board) RotateClockwise() {
	b.Transpose()
	b.Mirror()
}

func (b *Board) RotateCounterclockwise() {
	b.Transpose()
	b.Flip()
}

// Reverse rotates the board by 180 degrees.
func (b *Board) Reverse() {
	b.Mirror()
	b.Flip()
}

// Rotate applies k clockwise quarter turns. k may be negative.
func (b *Board) Rotate(k int) {
	switch ((k % 4) + 4) % 4 {
	case 1:
		b.RotateClockwise()
	case 2:
		b.Reverse()
	case 3:
		b.RotateCounterclockwise()
	}
}
