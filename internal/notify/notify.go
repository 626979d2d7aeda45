// Package notify holds short-lived user-facing notifications.
package notify

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"solana-wallet-lab/internal/observability"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 5 * time.Second

// Variant selects notification styling.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a single toast.
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	seq uint64
}

// Notifier publishes notifications.
type Notifier interface {
	Notify(title, description string, variant Variant) string
}

// Center stores notifications until they expire or are dismissed.
type Center struct {
	cache    *cache.Cache
	duration time.Duration
	logger   *zap.Logger
	seq      atomic.Uint64
	now      func() time.Time
}

var _ Notifier = (*Center)(nil)

// NewCenter creates a Center. A non-positive duration uses DefaultDuration.
func NewCenter(duration time.Duration, logger *zap.Logger) *Center {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{
		cache:    cache.New(duration, 10*time.Minute),
		duration: duration,
		logger:   logger.Named("notify"),
		now:      time.Now,
	}
}

// Notify records a notification and returns its id.
func (c *Center) Notify(title, description string, variant Variant) string {
	if variant == "" {
		variant = VariantDefault
	}
	now := c.now()
	n := Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.duration),
		seq:         c.seq.Add(1),
	}
	c.cache.Set(n.ID, n, cache.DefaultExpiration)
	observability.RecordNotification(string(variant))

	fields := []zap.Field{
		zap.String("id", n.ID),
		zap.String("title", title),
		zap.String("description", description),
	}
	if variant == VariantDestructive {
		c.logger.Warn("notification", fields...)
	} else {
		c.logger.Info("notification", fields...)
	}
	return n.ID
}

// Dismiss removes a notification. It reports whether id was visible.
func (c *Center) Dismiss(id string) bool {
	if _, ok := c.cache.Get(id); !ok {
		return false
	}
	c.cache.Delete(id)
	return true
}

// List returns visible notifications in creation order.
func (c *Center) List() []Notification {
	items := c.cache.Items()
	out := make([]Notification, 0, len(items))
	for _, item := range items {
		if n, ok := item.Object.(Notification); ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].seq < out[j].seq
	})
	return out
}
