package core

import (
	"context"
	"fmt"
)

// PublicIDPrefix starts every public player identifier.
const PublicIDPrefix = "VPL"

// FormatPublicID renders a sequence number as VPL-NNN. Numbers are padded to
// three digits and never truncated: 7 is VPL-007, 1000 is VPL-1000.
func FormatPublicID(n int64) string {
	return fmt.Sprintf("%s-%03d", PublicIDPrefix, n)
}

// Sequencer hands out strictly increasing numbers. Each call returns a value
// no other caller will ever see, even under concurrent use.
type Sequencer interface {
	NextSequence(ctx context.Context) (int64, error)
}

// IDGenerator assigns public IDs from the record store's sequence.
type IDGenerator struct {
	seq Sequencer
}

// NewIDGenerator returns a generator backed by seq.
func NewIDGenerator(seq Sequencer) *IDGenerator {
	return &IDGenerator{seq: seq}
}

// Next reserves the next sequence number and returns it with its public ID.
// A reserved number is not handed out again, even if the registration using
// it later fails.
func (g *IDGenerator) Next(ctx context.Context) (int64, string, error) {
	n, err := g.seq.NextSequence(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("next sequence: %w", err)
	}
	return n, FormatPublicID(n), nil
}
