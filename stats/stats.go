// Package stats holds running statistics for training and evaluation:
// Welford mean/variance, confidence intervals, per-block training reports
// and score histograms.
package stats

import (
	"fmt"
	"math"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance over pushed values, plus the
// extremes.
type Statistic struct {
	totalIterations int
	last            float64
	min, max        float64

	// For Welford's algorithm:
	oldM float64
	newM float64
	oldS float64
	newS float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.totalIterations++
	if s.totalIterations == 1 {
		s.oldM = val
		s.newM = val
		s.oldS = 0
		s.min, s.max = val, val
		return
	}
	s.newM = s.oldM + (val-s.oldM)/float64(s.totalIterations)
	s.newS = s.oldS + (val-s.oldM)*(val-s.newM)
	s.oldM = s.newM
	s.oldS = s.newS
	s.min = min(s.min, val)
	s.max = max(s.max, val)
}

func (s *Statistic) Mean() float64 {
	if s.totalIterations > 0 {
		return s.newM
	}
	return 0.0
}

func (s *Statistic) Variance() float64 {
	if s.totalIterations <= 1 {
		return 0.0
	}
	return s.newS / float64(s.totalIterations-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64 {
	return s.last
}

func (s *Statistic) Min() float64 {
	return s.min
}

func (s *Statistic) Max() float64 {
	return s.max
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.totalIterations == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.totalIterations))
}

func (s *Statistic) Iterations() int {
	return s.totalIterations
}

// Summary describes a finished evaluation run.
type Summary struct {
	Games int     `json:"games"`
	Mean  float64 `json:"mean"`
	Stdev float64 `json:"stdev"`
	// CILow and CIHigh bound the mean at the summary's confidence level.
	CILow  float64 `json:"ci_low"`
	CIHigh float64 `json:"ci_high"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes a Summary with a confidence interval of ci percent.
func Summarize(values []float64, ci float64) Summary {
	var s Statistic
	for _, v := range values {
		s.Push(v)
	}
	lo, hi := s.ConfidenceInterval(ci)
	return Summary{
		Games:  s.Iterations(),
		Mean:   s.Mean(),
		Stdev:  s.Stdev(),
		CILow:  lo,
		CIHigh: hi,
		Min:    s.Min(),
		Max:    s.Max(),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("games = %d\tmean = %.1f ± %.1f\tstdev = %.1f\tmin = %.0f\tmax = %.0f",
		s.Games, s.Mean, (s.CIHigh-s.CILow)/2, s.Stdev, s.Min, s.Max)
}
