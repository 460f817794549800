package trainlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ntuple2048/stats"
)

// NATSSink publishes each block as JSON on a subject.
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

type natsOptions struct {
	attempts uint
	delay    time.Duration
}

type NATSOption func(*natsOptions)

// ConnectAttempts sets how many times to try connecting before giving up.
func ConnectAttempts(n uint) NATSOption {
	return func(o *natsOptions) { o.attempts = n }
}

// ConnectDelay sets the initial backoff between connection attempts.
func ConnectDelay(d time.Duration) NATSOption {
	return func(o *natsOptions) { o.delay = d }
}

// ConnectNATS connects to url, retrying with backoff.
func ConnectNATS(ctx context.Context, url, subject string, opts ...NATSOption) (*NATSSink, error) {
	o := natsOptions{attempts: 5, delay: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	nc, err := retry.DoWithData(
		func() (*nats.Conn, error) {
			return nats.Connect(url, nats.Name("ntuple2048-trainer"))
		},
		retry.Context(ctx),
		retry.Attempts(o.attempts),
		retry.Delay(o.delay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("could-not-connect-to-nats-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return nil, err
	}
	log.Info().Str("subject", subject).Msg("publishing-blocks-to-nats")
	return &NATSSink{nc: nc, subject: subject}, nil
}

func (s *NATSSink) Record(ctx context.Context, blk *stats.Block) error {
	data, err := json.Marshal(blk)
	if err != nil {
		return err
	}
	return s.nc.Publish(s.subject, data)
}

// Close flushes pending publishes and closes the connection.
func (s *NATSSink) Close() error {
	return s.nc.Drain()
}
