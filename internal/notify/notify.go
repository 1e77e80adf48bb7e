// Package notify keeps the short-lived, dismissable notices shown to the
// visitor when a background operation fails.
package notify

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notifier surfaces a message to the visitor.
type Notifier interface {
	Info(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// Notice is one visible message.
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	seq uint64
}

// Center stores notices until they expire or are dismissed.
type Center struct {
	cache *cache.Cache
	ttl   time.Duration
	seq   atomic.Uint64
}

// NewCenter creates a Center whose notices live for ttl.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Center{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Info records an informational notice.
func (c *Center) Info(_ context.Context, message string) {
	c.add(LevelInfo, message)
}

// Error records an error notice.
func (c *Center) Error(_ context.Context, message string) {
	c.add(LevelError, message)
}

func (c *Center) add(level Level, message string) Notice {
	now := time.Now()
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
		seq:       c.seq.Add(1),
	}
	c.cache.Set(n.ID, n, c.ttl)
	return n
}

// List returns live notices, oldest first.
func (c *Center) List() []Notice {
	items := c.cache.Items()
	out := make([]Notice, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(Notice))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Dismiss removes the notice with id and reports whether it was live.
func (c *Center) Dismiss(id string) bool {
	if _, ok := c.cache.Get(id); !ok {
		return false
	}
	c.cache.Delete(id)
	return true
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Info(context.Context, string)  {}
func (discard) Error(context.Context, string) {}
