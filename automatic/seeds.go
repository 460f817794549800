package automatic

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"lukechampine.com/frand"
)

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed [32]byte) *frand.RNG {
	return frand.NewCustom(seed[:], 1024, 12)
}

// SeedFromInt expands a command-line integer seed into a 32-byte seed.
func SeedFromInt(n int64) [32]byte {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(n))
	return seed
}

// DeriveSeeds draws n seeds from a generator seeded with base, so a single
// seed reproduces a whole evaluation run.
func DeriveSeeds(base [32]byte, n int) [][32]byte {
	rng := NewRNG(base)
	seeds := make([][32]byte, n)
	for i := range seeds {
		rng.Read(seeds[i][:])
	}
	return seeds
}

// GenerateSeeds creates n random 32-byte seeds for reproducible games.
func GenerateSeeds(n int) [][32]byte {
	seeds := make([][32]byte, n)
	for i := range seeds {
		frand.Read(seeds[i][:])
	}
	return seeds
}

// SaveSeeds writes seeds to a file, one URL-safe base64 seed per line.
func SaveSeeds(seeds [][32]byte, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file: %w", err)
	}
	writer := bufio.NewWriter(file)

	_, err = writer.WriteString("# game seeds (base64 URL-safe encoded, 32 bytes each)\n")
	for i := 0; err == nil && i < len(seeds); i++ {
		_, err = writer.WriteString(base64.RawURLEncoding.EncodeToString(seeds[i][:]) + "\n")
	}
	if err == nil {
		err = writer.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write seed file: %w", err)
	}
	return nil
}

// LoadSeeds reads a file written by SaveSeeds. Blank lines and lines
// starting with # are skipped.
func LoadSeeds(path string) ([][32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	var seeds [][32]byte
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("failed to decode seed at line %d: %w", lineNum, err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("invalid seed length at line %d: got %d bytes, expected 32", lineNum, len(decoded))
		}
		var seed [32]byte
		copy(seed[:], decoded)
		seeds = append(seeds, seed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return seeds, nil
}
