package state

import "context"

// Repository stores the read position of one followed file.
type Repository interface {
	// Load retrieves the last saved state.
	// Returns an empty state and nil error if no state exists.
	Load(ctx context.Context) (State, error)

	// Save persists the state atomically, so a crash leaves either the old
	// or the new checkpoint on disk.
	Save(ctx context.Context, state State) error
}
