package repository

import (
	"context"
	"sort"
	"sync"

	"educontrol/internal/model"
	"educontrol/internal/store"
)

// Jobs persists AI jobs keyed by id so that a separate worker process can finish them.
type Jobs struct {
	mu sync.Mutex
	g  store.Gateway
}

func NewJobs(g store.Gateway) *Jobs {
	return &Jobs{g: g}
}

func (r *Jobs) load(ctx context.Context) (map[string]model.Job, error) {
	jobs, err := store.Load(ctx, r.g, store.KeyAIJobs, map[string]model.Job{})
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = map[string]model.Job{}
	}
	return jobs, nil
}

// Get returns the job with the given id.
func (r *Jobs) Get(ctx context.Context, id string) (model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs, err := r.load(ctx)
	if err != nil {
		return model.Job{}, err
	}
	j, ok := jobs[id]
	if !ok {
		return model.Job{}, ErrNotFound
	}
	return j, nil
}

// Claim stores j unless a pending job with the same kind and key exists, in which case
// that job is returned with created=false.
func (r *Jobs) Claim(ctx context.Context, j model.Job) (model.Job, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs, err := r.load(ctx)
	if err != nil {
		return model.Job{}, false, err
	}
	for _, existing := range jobs {
		if existing.State == model.JobPending && existing.Kind == j.Kind && existing.Key == j.Key {
			return existing, false, nil
		}
	}
	jobs[j.ID] = j
	if err := store.Save(ctx, r.g, store.KeyAIJobs, jobs); err != nil {
		return model.Job{}, false, err
	}
	return j, true, nil
}

// Pending returns the jobs that have not reached a final state, oldest first.
func (r *Jobs) Pending(ctx context.Context) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Job
	for _, j := range jobs {
		if !j.Done() {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt < out[k].CreatedAt })
	return out, nil
}

// Put stores j, replacing any job with the same id.
func (r *Jobs) Put(ctx context.Context, j model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs, err := r.load(ctx)
	if err != nil {
		return err
	}
	jobs[j.ID] = j
	return store.Save(ctx, r.g, store.KeyAIJobs, jobs)
}

// PruneFinished drops final jobs that finished before cutoff (unix millis).
func (r *Jobs) PruneFinished(ctx context.Context, cutoff int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for id, j := range jobs {
		if j.Done() && j.FinishedAt < cutoff {
			delete(jobs, id)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, store.Save(ctx, r.g, store.KeyAIJobs, jobs)
}
