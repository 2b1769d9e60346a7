// internal/reference/generator.go
package reference

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// Prefix marks every transaction reference.
	Prefix = "TXN-"
	// randomLength is the number of hex characters taken from a v4 UUID (48 random bits).
	randomLength = 12
)

// Generator produces client-facing transaction references.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate() (string, error)
}

// GeneratorFunc adapts a plain function to Generator, mainly for deterministic tests.
type GeneratorFunc func() (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate() (string, error) {
	return f()
}

// RandomGenerator derives references from crypto/rand backed UUIDs, so references
// carry no sequencing information. It holds no state.
type RandomGenerator struct{}

// NewRandomGenerator creates a new RandomGenerator.
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// Generate returns a reference such as "TXN-3F9A0C21B7E4".
func (g *RandomGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate transaction reference: %w", err)
	}
	// The first 12 hex digits precede the UUID version nibble, so all of them are random.
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return Prefix + hex[:randomLength], nil
}

// IsValid reports whether ref has the shape produced by RandomGenerator.
func IsValid(ref string) bool {
	if !strings.HasPrefix(ref, Prefix) || len(ref) != len(Prefix)+randomLength {
		return false
	}
	for _, c := range ref[len(Prefix):] {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
