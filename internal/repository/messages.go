package repository

import (
	"context"
	"sort"
	"sync"

	"educontrol/internal/model"
	"educontrol/internal/store"
)

// Messages persists direct messages between users.
type Messages struct {
	*collection[model.ChatMessage]
}

func NewMessages(g store.Gateway) *Messages {
	return &Messages{newCollection(g, store.KeyMessages, func(m model.ChatMessage) string { return m.ID }, nil)}
}

// Between returns the conversation of two users, oldest first.
func (r *Messages) Between(ctx context.Context, a, b string) ([]model.ChatMessage, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatMessage, 0)
	for _, m := range all {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// AIChat persists the assistant conversation of each user.
type AIChat struct {
	mu sync.Mutex
	g  store.Gateway
}

func NewAIChat(g store.Gateway) *AIChat {
	return &AIChat{g: g}
}

// History returns the stored turns of a user.
func (r *AIChat) History(ctx context.Context, userID string) ([]model.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := store.Load(ctx, r.g, store.KeyAIChat, map[string][]model.Turn{})
	if err != nil {
		return nil, err
	}
	if h := all[userID]; h != nil {
		return h, nil
	}
	return []model.Turn{}, nil
}

// Append adds turns to the end of a user's conversation.
func (r *AIChat) Append(ctx context.Context, userID string, turns ...model.Turn) error {
	return r.update(ctx, userID, func(h []model.Turn) []model.Turn { return append(h, turns...) })
}

// Clear drops a user's conversation.
func (r *AIChat) Clear(ctx context.Context, userID string) error {
	return r.update(ctx, userID, func([]model.Turn) []model.Turn { return nil })
}

func (r *AIChat) update(ctx context.Context, userID string, fn func([]model.Turn) []model.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := store.Load(ctx, r.g, store.KeyAIChat, map[string][]model.Turn{})
	if err != nil {
		return err
	}
	if all == nil {
		all = map[string][]model.Turn{}
	}
	next := fn(all[userID])
	if next == nil {
		delete(all, userID)
	} else {
		all[userID] = next
	}
	return store.Save(ctx, r.g, store.KeyAIChat, all)
}
