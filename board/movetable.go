package board

import "sync"

// A MoveEntry holds the precomputed slides of one 16-bit row.
type MoveEntry struct {
	Left  uint16
	Right uint16
	// Score is the same for both directions; merges are symmetric.
	Score uint32
}

// MoveTable maps every possible row to its slide results.
type MoveTable [1 << 16]MoveEntry

var (
	moveTableOnce sync.Once
	moveTable     *MoveTable
)

// Table returns the process-wide move table, building it on first use.
// It is never modified afterwards and is safe to share between
// goroutines.
func Table() *MoveTable {
	moveTableOnce.Do(func() {
		moveTable = buildMoveTable()
	})
	return moveTable
}

func buildMoveTable() *MoveTable {
	t := &MoveTable{}
	for row := 0; row < len(t); row++ {
		tiles := unpackRow(uint16(row))
		left, score := slideLeft(tiles)
		right, _ := slideLeft(reverseTiles(tiles))
		t[row] = MoveEntry{
			Left:  packRow(left),
			Right: packRow(reverseTiles(right)),
			Score: score,
		}
	}
	return t
}

func unpackRow(row uint16) [4]uint8 {
	return [4]uint8{
		uint8(row & 0xF),
		uint8((row >> 4) & 0xF),
		uint8((row >> 8) & 0xF),
		uint8((row >> 12) & 0xF),
	}
}

func packRow(tiles [4]uint8) uint16 {
	return uint16(tiles[0]) | uint16(tiles[1])<<4 | uint16(tiles[2])<<8 | uint16(tiles[3])<<12
}

func reverseTiles(tiles [4]uint8) [4]uint8 {
	return [4]uint8{tiles[3], tiles[2], tiles[1], tiles[0]}
}

// slideLeft compresses the non-empty tiles to the left and merges equal
// neighbours. Each tile merges at most once, so 2 2 2 2 becomes 4 4, not 8.
// A merge of two maximum tiles stays at MaxExponent so fields never
// overflow their nibble.
func slideLeft(tiles [4]uint8) ([4]uint8, uint32) {
	var buf [4]uint8
	n := 0
	for _, t := range tiles {
		if t != 0 {
			buf[n] = t
			n++
		}
	}
	var res [4]uint8
	var score uint32
	k := 0
	for i := 0; i < n; i++ {
		if i+1 < n && buf[i] == buf[i+1] {
			merged := buf[i] + 1
			score += 1 << merged
			if merged > MaxExponent {
				merged = MaxExponent
			}
			res[k] = merged
			i++
		} else {
			res[k] = buf[i]
		}
		k++
	}
	return res, score
}
