package core

import "context"

// Store persists player records.
//
// Implementations must reject a second record with an existing ID or PublicID
// and must return List in ascending ID order.
type Store interface {
	Sequencer

	// Insert stores p as a single atomic write. p.ID and p.PublicID are
	// already assigned.
	Insert(ctx context.Context, p *Player) error

	// List returns every record, oldest first.
	List(ctx context.Context) ([]Player, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
