// Package memory is an in-process record store for development and tests.
// Records are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/vpl/internal/core"
)

// Store keeps player records in a slice guarded by a mutex.
type Store struct {
	mu      sync.Mutex
	seq     int64
	players []core.Player
	now     func() time.Time
}

var _ core.Store = (*Store)(nil)

// New returns an empty store whose sequence starts at 1.
func New() *Store {
	return &Store{now: time.Now}
}

// NextSequence returns the next number of the sequence.
func (s *Store) NextSequence(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

// Insert appends p, keeping the slice ordered by ID. It rejects a duplicate
// ID or public ID with the same wording Postgres uses.
func (s *Store) Insert(ctx context.Context, p *core.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.players {
		if existing.ID == p.ID {
			return fmt.Errorf("duplicate key value violates unique constraint \"players_pkey\": id %d", p.ID)
		}
		if existing.PublicID == p.PublicID {
			return fmt.Errorf("duplicate key value violates unique constraint \"players_vpl_id_key\": %s", p.PublicID)
		}
	}

	rec := *p
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	p.CreatedAt = rec.CreatedAt

	i := len(s.players)
	for i > 0 && s.players[i-1].ID > rec.ID {
		i--
	}
	s.players = append(s.players, core.Player{})
	copy(s.players[i+1:], s.players[i:])
	s.players[i] = rec

	if rec.ID > s.seq {
		s.seq = rec.ID
	}
	return nil
}

// List returns a copy of every record, ascending by ID.
func (s *Store) List(ctx context.Context) ([]core.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Player, len(s.players))
	copy(out, s.players)
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}
