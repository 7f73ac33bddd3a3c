// Package cache memoises translation hops. A cache sits in front of a
// pivot.Hop; its failures are logged and bypassed.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/logger"
	"github.com/valpere/lingobot/internal/pivot"
)

// Key identifies one hop. Build it with NewKey so Text is normalised.
type Key struct {
	Text   string
	Source lang.Tag
	Target lang.Tag
}

// NewKey trims text and applies Unicode NFC so visually identical inputs
// share an entry.
func NewKey(text string, src, tgt lang.Tag) Key {
	return Key{Text: NormalizeText(text), Source: src, Target: tgt}
}

func NormalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

type Cache interface {
	// Get reports a miss as ("", false, nil).
	Get(ctx context.Context, key Key) (string, bool, error)
	Set(ctx context.Context, key Key, value string) error
}

// Hop wraps h with c. Only successful, non-blank translations are stored.
func Hop(h pivot.Hop, c Cache, log *zap.Logger) pivot.Hop {
	if c == nil || h == nil {
		return h
	}
	log = logger.OrNop(log)
	return func(ctx context.Context, text string, src, tgt lang.Tag) (string, error) {
		key := NewKey(text, src, tgt)
		if out, ok, err := c.Get(ctx, key); err != nil {
			log.Warn("cache lookup failed, bypassing", zap.String("src", string(src)), zap.String("tgt", string(tgt)), zap.Error(err))
		} else if ok {
			log.Debug("cache hit", zap.String("src", string(src)), zap.String("tgt", string(tgt)))
			return out, nil
		}

		out, err := h(ctx, text, src, tgt)
		if err != nil || strings.TrimSpace(out) == "" {
			return out, err
		}
		if err := c.Set(ctx, key, out); err != nil {
			log.Warn("cache store failed", zap.String("src", string(src)), zap.String("tgt", string(tgt)), zap.Error(err))
		}
		return out, nil
	}
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// Memory is an in-process cache. Entries expire after ttl (0 keeps them);
// once maxEntries is reached the whole map is dropped.
type Memory struct {
	mu         sync.Mutex
	items      map[Key]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return &Memory{
		items:      make(map[Key]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key Key) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.items, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		if _, exists := m.items[key]; !exists {
			clear(m.items)
		}
	}
	var expires time.Time
	if m.ttl > 0 {
		expires = m.now().Add(m.ttl)
	}
	m.items[key] = memoryEntry{value: value, expires: expires}
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.items)
}
