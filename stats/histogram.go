package stats

import (
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
)

// Histogram renders scores as a text histogram with the given number of
// bins and bar width.
func Histogram(scores []int, bins, width int) (string, error) {
	if len(scores) == 0 {
		return "", nil
	}
	h := histogram.Hist(bins, lo.Map(scores, func(s int, _ int) float64 {
		return float64(s)
	}))
	var sb strings.Builder
	if err := histogram.Fprint(&sb, h, histogram.Linear(width)); err != nil {
		return "", err
	}
	return sb.String(), nil
}
