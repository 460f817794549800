package stats

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/samber/lo"
)

// TileRate reports, for one tile value, how many games of a block reached
// at least that tile and how many ended with it as their largest.
type TileRate struct {
	Tile    int     `json:"tile"`
	Reached float64 `json:"reached"`
	Share   float64 `json:"share"`
}

// A Block is the report for one unit of consecutive training episodes.
type Block struct {
	// Episode is the 1-based index of the block's last episode.
	Episode  int        `json:"episode"`
	Unit     int        `json:"unit"`
	AvgScore float64    `json:"avg_score"`
	MaxScore int        `json:"max_score"`
	Epsilon  float64    `json:"epsilon"`
	Tiles    []TileRate `json:"tiles"`
	Time     time.Time  `json:"time"`
}

// String renders the block as a summary line followed by one line per
// tile, starting at the smallest max tile seen.
func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\tavg = %.1f\tmax = %d\n", b.Episode, b.AvgScore, b.MaxScore)
	for _, t := range b.Tiles {
		fmt.Fprintf(&sb, "\t%d\t%.1f%%\t(%.1f%%)\n", t.Tile, t.Reached, t.Share)
	}
	return sb.String()
}

// Collector gathers episode results into blocks of Unit episodes.
type Collector struct {
	Unit int

	scores  []int
	maxTile []int
}

func NewCollector(unit int) *Collector {
	return &Collector{Unit: unit}
}

// Push records episode ep with its final score and largest tile value.
// Every Unit episodes it returns the finished block and starts a new one;
// otherwise it returns nil. Episodes must be pushed in order starting at 1
// or a block comes out the wrong size, which is an error.
func (c *Collector) Push(ep, score, maxTile int, epsilon float64) (*Block, error) {
	c.scores = append(c.scores, score)
	c.maxTile = append(c.maxTile, maxTile)
	if c.Unit <= 0 || ep%c.Unit != 0 {
		return nil, nil
	}
	defer c.reset()
	if len(c.scores) != c.Unit {
		return nil, fmt.Errorf("wrong statistic size: %d episodes in a block of %d", len(c.scores), c.Unit)
	}

	var count [16]int
	for _, v := range c.maxTile {
		if v > 0 {
			count[min(bits.Len(uint(v))-1, 15)]++
		}
	}
	blk := &Block{
		Episode:  ep,
		Unit:     c.Unit,
		AvgScore: float64(lo.Sum(c.scores)) / float64(c.Unit),
		MaxScore: lo.Max(c.scores),
		Epsilon:  epsilon,
		Time:     time.Now(),
	}
	coef := 100 / float64(c.Unit)
	seen := 0
	for t := 1; seen < c.Unit && t < 16; t++ {
		if count[t] > 0 {
			blk.Tiles = append(blk.Tiles, TileRate{
				Tile:    1 << t,
				Reached: float64(lo.Sum(count[t:])) * coef,
				Share:   float64(count[t]) * coef,
			})
		}
		seen += count[t]
	}
	return blk, nil
}

func (c *Collector) reset() {
	c.scores = c.scores[:0]
	c.maxTile = c.maxTile[:0]
}
