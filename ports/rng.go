package ports

import (
	"context"
	"fmt"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream for a specific stage/relationship
	// This ensures permutation/stability stages produce identical results for the same run
	Stream(ctx context.Context, runID, stageName, relationshipKey string, baseSeed int64) (*rand.Rand, error)

	// ValidateSeed ensures the seed produces expected deterministic results
	ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error
}

// SeedMismatchError reports that a re-derived RNG stream diverged from an
// expected sequence at a given draw index.
type SeedMismatchError struct {
	Index int
	Want  float64
	Got   float64
}

func (e *SeedMismatchError) Error() string {
	return fmt.Sprintf("rng stream mismatch at draw %d: want %v, got %v", e.Index, e.Want, e.Got)
}
