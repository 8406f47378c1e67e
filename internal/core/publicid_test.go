package core

import (
	"context"
	"errors"
	"testing"
)

func TestFormatPublicID(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "VPL-001"},
		{7, "VPL-007"},
		{42, "VPL-042"},
		{999, "VPL-999"},
		{1000, "VPL-1000"},
	}
	for _, tt := range tests {
		if got := FormatPublicID(tt.n); got != tt.want {
			t.Errorf("FormatPublicID(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

type seqFunc func(context.Context) (int64, error)

func (f seqFunc) NextSequence(ctx context.Context) (int64, error) { return f(ctx) }

func TestIDGenerator_Next(t *testing.T) {
	var n int64
	g := NewIDGenerator(seqFunc(func(context.Context) (int64, error) {
		n++
		return n, nil
	}))

	for _, want := range []string{"VPL-001", "VPL-002"} {
		_, got, err := g.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Errorf("Next = %q, want %q", got, want)
		}
	}
}

func TestIDGenerator_NextError(t *testing.T) {
	boom := errors.New("boom")
	g := NewIDGenerator(seqFunc(func(context.Context) (int64, error) { return 0, boom }))

	if _, _, err := g.Next(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Next error = %v, want wrapped boom", err)
	}
}
