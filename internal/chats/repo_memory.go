package chats

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	turns map[string][]Turn // resumeID -> turns in insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{turns: make(map[string][]Turn)}
}

func (r *MemoryRepo) Append(ctx context.Context, turn Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[turn.ResumeID] = append(r.turns[turn.ResumeID], turn)
	return nil
}

func (r *MemoryRepo) ListLatest(ctx context.Context, resumeID string, limit int) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.turns[resumeID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]Turn{}, all...), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, resumeID, turnID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.turns[resumeID]
	for i := range all {
		if all[i].ID == turnID {
			r.turns[resumeID] = append(all[:i:i], all[i+1:]...)
			return nil
		}
	}
	return ErrTurnNotFound
}

func (r *MemoryRepo) PruneKeepLatest(ctx context.Context, resumeID string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.turns[resumeID]
	if keep < 0 || len(all) <= keep {
		return 0, nil
	}
	removed := len(all) - keep
	r.turns[resumeID] = append([]Turn{}, all[removed:]...)
	return removed, nil
}

// DeleteResume drops every turn of a resume.
func (r *MemoryRepo) DeleteResume(resumeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.turns, resumeID)
}
