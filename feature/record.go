package feature

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxNameLength guards against allocating a huge name buffer when the
// reader is positioned on garbage.
const maxNameLength = 1 << 12

// WriteTo writes a checkpoint record: u32 name length, the name, u64
// weight count and the weights as little-endian float32s.
func (p *Pattern) WriteTo(w io.Writer) (int64, error) {
	name := p.Name()
	var n int64
	if err := binary.Write(w, binary.LittleEndian, uint32(len(name))); err != nil {
		return n, err
	}
	n += 4
	written, err := io.WriteString(w, name)
	n += int64(written)
	if err != nil {
		return n, err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(p.weight))); err != nil {
		return n, err
	}
	n += 8
	if err := binary.Write(w, binary.LittleEndian, p.weight); err != nil {
		return n, err
	}
	n += int64(len(p.weight)) * cellSize
	return n, nil
}

// ReadFrom reads a record written by WriteTo into the existing table. A
// record for a different pattern or of a different size is rejected.
func (p *Pattern) ReadFrom(r io.Reader) (int64, error) {
	var n int64
	var nameLen uint32
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return n, truncated(err)
	}
	n += 4
	if nameLen > maxNameLength {
		return n, fmt.Errorf("%w: name length %d (expected %s)", ErrUnexpectedFeature, nameLen, p.Name())
	}
	nameBuf := make([]byte, nameLen)
	read, err := io.ReadFull(r, nameBuf)
	n += int64(read)
	if err != nil {
		return n, truncated(err)
	}
	if name := string(nameBuf); name != p.Name() {
		return n, fmt.Errorf("%w: %s (expected %s)", ErrUnexpectedFeature, name, p.Name())
	}
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return n, truncated(err)
	}
	n += 8
	if size != uint64(len(p.weight)) {
		return n, fmt.Errorf("%w: %d for %s (%d expected)", ErrUnexpectedSize, size, p.Name(), len(p.weight))
	}
	if err := binary.Read(r, binary.LittleEndian, p.weight); err != nil {
		return n, truncated(err)
	}
	n += int64(size) * cellSize
	return n, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}
