// Package trainlog records training blocks somewhere other than the log:
// a SQLite file for later analysis or a NATS subject for live dashboards.
package trainlog

import (
	"context"
	"errors"

	"github.com/domino14/ntuple2048/stats"
)

// A Sink receives every finished training block.
type Sink interface {
	Record(ctx context.Context, blk *stats.Block) error
	Close() error
}

type multiSink []Sink

// MultiSink fans blocks out to every non-nil sink. All sinks see every
// block even if some fail; the errors are joined.
func MultiSink(sinks ...Sink) Sink {
	var ms multiSink
	for _, s := range sinks {
		if s != nil {
			ms = append(ms, s)
		}
	}
	return ms
}

func (ms multiSink) Record(ctx context.Context, blk *stats.Block) error {
	var errs []error
	for _, s := range ms {
		errs = append(errs, s.Record(ctx, blk))
	}
	return errors.Join(errs...)
}

func (ms multiSink) Close() error {
	var errs []error
	for _, s := range ms {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
