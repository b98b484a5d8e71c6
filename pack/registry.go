package pack

import (
	"context"
	"fmt"
	"sync"

	"github.com/prilive-com/stickerforge/sticker"
)

// Registry is the persistence seam for packs. Implementations must make
// Create and Append atomic with respect to a pack's visible state; the
// Manager provides per-pack mutual exclusion on top.
type Registry interface {
	// Get returns the pack owned by user under name, or
	// sticker.ErrPackNotFound.
	Get(ctx context.Context, user sticker.UserID, name string) (*Pack, error)

	// Create stores a new pack, or returns sticker.ErrDuplicateName when
	// the (user, name) pair is already taken.
	Create(ctx context.Context, p *Pack) error

	// Append adds one entry to an existing pack, preserving insertion
	// order. Returns sticker.ErrPackNotFound when the pack is absent.
	Append(ctx context.Context, user sticker.UserID, name string, e Entry) error
}

func registryKey(user sticker.UserID, name string) string {
	return fmt.Sprintf("%d/%s", user, name)
}

// MemoryRegistry is the default in-process Registry. Safe for concurrent
// use; Get returns a copy so callers cannot mutate stored state.
type MemoryRegistry struct {
	mu    sync.RWMutex
	packs map[string]*Pack
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{packs: make(map[string]*Pack)}
}

func (r *MemoryRegistry) Get(_ context.Context, user sticker.UserID, name string) (*Pack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.packs[registryKey(user, name)]
	if !ok {
		return nil, sticker.NewError(sticker.KindPackNotFound, "no pack %q for user %d", name, user)
	}
	return p.clone(), nil
}

func (r *MemoryRegistry) Create(_ context.Context, p *Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(p.Owner, p.Name)
	if _, ok := r.packs[key]; ok {
		return sticker.NewError(sticker.KindDuplicateName, "pack %q already exists for user %d", p.Name, p.Owner)
	}
	r.packs[key] = p.clone()
	return nil
}

func (r *MemoryRegistry) Append(_ context.Context, user sticker.UserID, name string, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.packs[registryKey(user, name)]
	if !ok {
		return sticker.NewError(sticker.KindPackNotFound, "no pack %q for user %d", name, user)
	}
	p.Stickers = append(p.Stickers, e)
	return nil
}

// Len reports how many packs the registry holds. Test helper.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.packs)
}
