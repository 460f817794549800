// Package feature contains the additive value-function components used by
// the learner. The only kind today is the n-tuple Pattern.
package feature

import (
	"errors"
	"io"

	"github.com/domino14/ntuple2048/board"
)

var (
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrUnexpectedFeature = errors.New("unexpected feature")
	ErrUnexpectedSize    = errors.New("unexpected feature size")
	ErrTruncated         = errors.New("unexpected end of checkpoint")
)

// A Feature estimates part of a board's value and can be trained toward a
// target. The learner's value function is the sum over its features.
type Feature interface {
	Estimate(b board.Board) float64
	// Update adds u to the feature's estimate of b and returns the new
	// estimate.
	Update(b board.Board, u float64) float64
	Name() string
	// Size is the number of weight cells the feature owns.
	Size() int

	// WriteTo writes one checkpoint record; ReadFrom reads one back and
	// rejects records written for a different feature.
	io.WriterTo
	io.ReaderFrom
}
