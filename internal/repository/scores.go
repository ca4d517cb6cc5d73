package repository

import (
	"context"
	"sync"

	"educontrol/internal/model"
	"educontrol/internal/store"
)

// Scores persists the academic score of each student as a studentId-keyed map.
type Scores struct {
	mu sync.Mutex
	g  store.Gateway
}

func NewScores(g store.Gateway) *Scores {
	return &Scores{g: g}
}

// All returns every stored score.
func (r *Scores) All(ctx context.Context) (map[string]model.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all(ctx)
}

func (r *Scores) all(ctx context.Context) (map[string]model.Score, error) {
	scores, err := store.Load(ctx, r.g, store.KeyScores, map[string]model.Score{})
	if err != nil {
		return nil, err
	}
	if scores == nil {
		scores = map[string]model.Score{}
	}
	return scores, nil
}

// Set stores value as the current score and shifts the old current into previous.
// Callers clamp value first.
func (r *Scores) Set(ctx context.Context, studentID string, value int) (model.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scores, err := r.all(ctx)
	if err != nil {
		return model.Score{}, err
	}
	next := model.Score{Current: value, Previous: scores[studentID].Current}
	scores[studentID] = next
	if err := store.Save(ctx, r.g, store.KeyScores, scores); err != nil {
		return model.Score{}, err
	}
	return next, nil
}
