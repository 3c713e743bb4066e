package chats

import "context"

// Repo stores chat turns per resume in insertion order.
type Repo interface {
	Append(ctx context.Context, turn Turn) error
	// ListLatest returns the newest limit turns, ascending.
	ListLatest(ctx context.Context, resumeID string, limit int) ([]Turn, error)
	Delete(ctx context.Context, resumeID, turnID string) error
	// PruneKeepLatest drops all but the newest keep turns and reports how many
	// were removed.
	PruneKeepLatest(ctx context.Context, resumeID string, keep int) (int, error)
}
