package emit

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NameGenerator produces the unique token appended to generated type names.
type NameGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable name tokens.
//
// Tokens are UUIDv7 values with hyphens removed, so they are valid in type
// names and sort by creation time.
//
// Safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a 32-character hex token.
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}

// FixedGenerator returns predetermined tokens for deterministic output.
// Safe for concurrent use.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
//	gen := NewFixedGenerator("t1", "t2")
//	gen.Generate() // "t1"
//	gen.Generate() // "t2"
//	gen.Generate() // panic
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next token. Panics once all tokens are consumed, which
// means more types were built than the caller expected.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// SequenceGenerator returns "1", "2", ... Safe for concurrent use.
type SequenceGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next sequence number as a string.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return strconv.Itoa(g.n)
}
