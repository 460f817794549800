package learner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
)

// ErrNoCheckpoint is returned by Load when the checkpoint file does not
// exist. It matches fs.ErrNotExist.
var ErrNoCheckpoint = fmt.Errorf("no checkpoint: %w", fs.ErrNotExist)

// WriteCheckpoint writes one record per feature, in feature order.
func (l *TD0) WriteCheckpoint(w io.Writer) (int64, error) {
	var total int64
	for _, f := range l.features {
		n, err := f.WriteTo(w)
		total += n
		if err != nil {
			return total, fmt.Errorf("writing %s: %w", f.Name(), err)
		}
	}
	return total, nil
}

// ReadCheckpoint reads records written by WriteCheckpoint into the
// learner's features. The learner must have been built with the same
// features in the same order.
func (l *TD0) ReadCheckpoint(r io.Reader) (int64, error) {
	var total int64
	for _, f := range l.features {
		n, err := f.ReadFrom(r)
		total += n
		if err != nil {
			return total, fmt.Errorf("reading %s: %w", f.Name(), err)
		}
	}
	return total, nil
}

// Save writes a checkpoint to path. The file is written next to path and
// renamed into place so a crash never leaves a half-written checkpoint.
func (l *TD0) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	h := xxhash.New()
	bw := bufio.NewWriter(tmp)
	n, err := l.WriteCheckpoint(io.MultiWriter(bw, h))
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	log.Info().Str("path", path).Int64("bytes", n).
		Str("xxhash", fmt.Sprintf("%016x", h.Sum64())).Msg("saved-checkpoint")
	return nil
}

// Load reads a checkpoint from path. A missing file gives ErrNoCheckpoint;
// any other failure means the file does not match this learner.
func (l *TD0) Load(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoCheckpoint, path)
	} else if err != nil {
		return err
	}
	defer f.Close()

	h := xxhash.New()
	br := bufio.NewReader(f)
	n, err := l.ReadCheckpoint(io.TeeReader(br, h))
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if _, err := br.ReadByte(); err == nil {
		log.Warn().Str("path", path).Msg("checkpoint-has-trailing-data")
	}
	log.Info().Str("path", path).Int64("bytes", n).
		Str("xxhash", fmt.Sprintf("%016x", h.Sum64())).Msg("loaded-checkpoint")
	return nil
}
