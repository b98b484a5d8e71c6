// Package pack implements the sticker pack state machine: create, add
// and kang operations against a registry of user-owned packs, enforcing
// the platform's capacity and single-format rules.
//
// Packs move absent -> populated; creation is atomic with the first
// sticker, so a created pack is never empty. Adds are idempotent by
// candidate digest to tolerate at-least-once delivery from the
// transport. All mutations against one pack serialize; different packs
// proceed in parallel.
package pack

import (
	"context"
	"log/slog"
	"time"

	"github.com/prilive-com/stickerforge/convert"
	"github.com/prilive-com/stickerforge/internal/syncutil"
	"github.com/prilive-com/stickerforge/internal/validate"
	"github.com/prilive-com/stickerforge/sticker"
)

// DefaultEmoji is attached to stickers added without an explicit emoji.
const DefaultEmoji = "\U0001F916" // robot face

// State describes where a pack is in its lifecycle. There is no
// further state after populated; deletion is a platform-side operation.
type State string

const (
	StateAbsent    State = "absent"
	StatePopulated State = "populated"
)

// Entry is one installed sticker: the candidate's digest as its
// identity plus display metadata. The encoded bytes live on the
// platform, not here.
type Entry struct {
	Digest   string
	Emoji    string
	ByteSize int
	AddedAt  time.Time
}

// Pack is a named, ordered collection of stickers owned by one user.
// Insertion order matters; the platform displays it. Format is fixed at
// creation and every sticker must match it.
type Pack struct {
	Name     string
	Title    string
	Owner    sticker.UserID
	Format   sticker.Format
	Stickers []Entry
}

// State reports the pack's lifecycle state. A pack object always holds
// at least one sticker, so this never returns StateAbsent.
func (p *Pack) State() State {
	if len(p.Stickers) == 0 {
		return StateAbsent
	}
	return StatePopulated
}

func (p *Pack) contains(digest string) bool {
	for _, e := range p.Stickers {
		if e.Digest == digest {
			return true
		}
	}
	return false
}

func (p *Pack) clone() *Pack {
	cp := *p
	cp.Stickers = make([]Entry, len(p.Stickers))
	copy(cp.Stickers, p.Stickers)
	return &cp
}

// Manager runs pack transitions. Construct with NewManager; zero value
// is not usable.
type Manager struct {
	registry  Registry
	limits    sticker.Limits
	locks     *syncutil.KeyedMutex
	fetcher   Fetcher
	reencoder ReEncoder
	kanger    *kanger
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithKangSource wires the external fetcher and the re-encoder kang
// needs. Without it Kang fails with an internal error.
func WithKangSource(f Fetcher, r ReEncoder) ManagerOption {
	return func(m *Manager) {
		m.fetcher = f
		m.reencoder = r
	}
}

// WithManagerLogger overrides the default slog logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a pack manager over the given registry.
func NewManager(registry Registry, limits sticker.Limits, opts ...ManagerOption) (*Manager, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		registry: registry,
		limits:   limits,
		locks:    &syncutil.KeyedMutex{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fetcher != nil && m.reencoder != nil {
		m.kanger = newKanger(m.fetcher, m.reencoder, m.logger)
	}
	return m, nil
}

// Create makes a new pack holding first as its only sticker. The pack's
// format is taken from the candidate. Fails with ErrDuplicateName when
// the user already owns a pack of that name, and ErrCompliance when the
// candidate violates the platform limits.
func (m *Manager) Create(ctx context.Context, user sticker.UserID, name, title string, first *sticker.Candidate) (*Pack, error) {
	if err := validate.PackName(name); err != nil {
		return nil, err
	}
	if err := validate.PackTitle(title); err != nil {
		return nil, err
	}
	if err := convert.CheckCompliance(first, m.limits); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(registryKey(user, name))
	defer unlock()

	p := &Pack{
		Name:     name,
		Title:    title,
		Owner:    user,
		Format:   first.Format,
		Stickers: []Entry{newEntry(first, DefaultEmoji)},
	}
	if err := m.registry.Create(ctx, p); err != nil {
		return nil, err
	}

	m.logger.Info("pack created",
		"user", user,
		"pack", name,
		"format", first.Format)

	return p, nil
}

// Add appends a candidate to an existing pack. Re-adding a candidate
// with the same digest is a no-op success. Fails with ErrPackNotFound,
// ErrFormatMismatch, ErrPackFull or ErrCompliance; none of these leave
// the pack partially mutated.
func (m *Manager) Add(ctx context.Context, user sticker.UserID, name string, cand *sticker.Candidate) (*Pack, error) {
	if err := validate.PackName(name); err != nil {
		return nil, err
	}
	if err := convert.CheckCompliance(cand, m.limits); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(registryKey(user, name))
	defer unlock()

	return m.add(ctx, user, name, cand, DefaultEmoji)
}

// add runs the append transition. Caller holds the pack lock.
func (m *Manager) add(ctx context.Context, user sticker.UserID, name string, cand *sticker.Candidate, emoji string) (*Pack, error) {
	p, err := m.registry.Get(ctx, user, name)
	if err != nil {
		return nil, err
	}

	if cand.Format != p.Format {
		return nil, sticker.NewError(sticker.KindFormatMismatch,
			"pack %q holds %s stickers, got %s", name, p.Format, cand.Format)
	}

	if p.contains(cand.Digest()) {
		m.logger.Info("duplicate sticker ignored",
			"user", user,
			"pack", name,
			"digest", cand.Digest())
		return p, nil
	}

	if len(p.Stickers) >= m.limits.MaxStickersPerPack {
		return nil, sticker.NewError(sticker.KindPackFull,
			"pack %q at capacity (%d stickers)", name, m.limits.MaxStickersPerPack)
	}

	e := newEntry(cand, emoji)
	if err := m.registry.Append(ctx, user, name, e); err != nil {
		return nil, err
	}
	p.Stickers = append(p.Stickers, e)

	m.logger.Info("sticker added",
		"user", user,
		"pack", name,
		"count", len(p.Stickers))

	return p, nil
}

// Get returns the named pack, or ErrPackNotFound.
func (m *Manager) Get(ctx context.Context, user sticker.UserID, name string) (*Pack, error) {
	return m.registry.Get(ctx, user, name)
}

// Kang copies an existing platform sticker into the user's pack:
// fetches the source bytes, re-encodes them to the pack's format, then
// follows Add semantics. When the user has no pack of the given name
// one is auto-created with the source's format.
func (m *Manager) Kang(ctx context.Context, user sticker.UserID, name string, ref sticker.Ref) (*Pack, error) {
	if err := validate.PackName(name); err != nil {
		return nil, err
	}
	if m.kanger == nil {
		return nil, sticker.NewError(sticker.KindInternal, "kang source not configured")
	}

	unlock := m.locks.Lock(registryKey(user, name))
	defer unlock()

	target := ref.Format
	p, err := m.registry.Get(ctx, user, name)
	switch {
	case err == nil:
		target = p.Format
	case sticker.KindOf(err) == sticker.KindPackNotFound:
		p = nil
	default:
		return nil, err
	}

	cand, err := m.kanger.fetch(ctx, ref, target)
	if err != nil {
		return nil, err
	}
	if err := convert.CheckCompliance(cand, m.limits); err != nil {
		return nil, err
	}

	emoji := ref.Emoji
	if emoji == "" {
		emoji = DefaultEmoji
	}

	if p == nil {
		np := &Pack{
			Name:     name,
			Title:    name,
			Owner:    user,
			Format:   cand.Format,
			Stickers: []Entry{newEntry(cand, emoji)},
		}
		if err := m.registry.Create(ctx, np); err != nil {
			return nil, err
		}
		m.logger.Info("pack auto-created by kang",
			"user", user,
			"pack", name,
			"format", cand.Format)
		return np, nil
	}

	return m.add(ctx, user, name, cand, emoji)
}

func newEntry(c *sticker.Candidate, emoji string) Entry {
	return Entry{
		Digest:   c.Digest(),
		Emoji:    emoji,
		ByteSize: c.Size(),
		AddedAt:  time.Now(),
	}
}
