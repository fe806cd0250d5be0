package memory

import (
	"context"
	"sync"

	"github.com/blurexe/draftcore/internal/domain/draft"
)

type DraftRepository struct {
	mu    sync.RWMutex
	items map[string]draft.Draft
}

func NewDraftRepository() *DraftRepository {
	return &DraftRepository{items: make(map[string]draft.Draft)}
}

func (r *DraftRepository) GetByID(_ context.Context, draftID string) (draft.Draft, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[draftID]
	if !ok {
		return draft.Draft{}, false, nil
	}

	return d.Clone(), true, nil
}

func (r *DraftRepository) List(_ context.Context) ([]draft.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]draft.Draft, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d.Clone())
	}

	return out, nil
}

func (r *DraftRepository) Save(_ context.Context, d draft.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[d.ID] = d.Clone()
	return nil
}

func (r *DraftRepository) Delete(_ context.Context, draftID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, draftID)
	return nil
}
