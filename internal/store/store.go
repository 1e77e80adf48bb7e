// Package store persists the visitor's guest collections and cached identity
// across restarts. Reads never fail: a missing, unreadable or malformed record
// loads as its zero value.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/laptopstore/internal/domain"
)

// Logical record keys.
const (
	KeyGuestCart     = "guest_cart"
	KeyGuestWishlist = "guest_wishlist"
	KeyUser          = "user"
	KeyToken         = "token"
)

// Backend is a durable byte-oriented key/value store.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var storeOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Local store operations by record, operation and outcome",
	},
	[]string{"record", "op", "result"},
)

// Store maps the four logical records onto a Backend under a namespace.
type Store struct {
	backend   Backend
	namespace string
	logger    *slog.Logger
}

// New creates a Store. Keys are written as "<namespace>:<record>".
func New(backend Backend, namespace string, logger *slog.Logger) *Store {
	return &Store{
		backend:   backend,
		namespace: strings.TrimSuffix(namespace, ":"),
		logger:    logger,
	}
}

func (s *Store) key(record string) string {
	if s.namespace == "" {
		return record
	}
	return s.namespace + ":" + record
}

// LoadGuestCart returns the persisted guest cart. Lines without a product id
// or with a non-positive quantity are dropped.
func (s *Store) LoadGuestCart(ctx context.Context) domain.Cart {
	var items []domain.CartItem
	if !s.loadJSON(ctx, KeyGuestCart, &items) {
		return domain.NewCart(nil)
	}

	valid := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			continue
		}
		if it.ID == "" {
			it.ID = it.ProductID
		}
		if !it.Kind.Valid() {
			it.Kind = domain.KindSale
		}
		if it.RentalDurationDays < 0 {
			it.RentalDurationDays = 0
		}
		valid = append(valid, it)
	}
	return domain.NewCart(valid)
}

// SaveGuestCart persists the guest cart lines.
func (s *Store) SaveGuestCart(ctx context.Context, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	return s.saveJSON(ctx, KeyGuestCart, items)
}

// LoadGuestWishlist returns the persisted guest wishlist ids, deduplicated.
func (s *Store) LoadGuestWishlist(ctx context.Context) []string {
	var ids []string
	if !s.loadJSON(ctx, KeyGuestWishlist, &ids) {
		return []string{}
	}
	return domain.UniqueIDs(ids)
}

// SaveGuestWishlist persists the guest wishlist ids.
func (s *Store) SaveGuestWishlist(ctx context.Context, ids []string) error {
	return s.saveJSON(ctx, KeyGuestWishlist, domain.UniqueIDs(ids))
}

// LoadUser returns the cached user record, or nil.
func (s *Store) LoadUser(ctx context.Context) *domain.User {
	var u domain.User
	if !s.loadJSON(ctx, KeyUser, &u) {
		return nil
	}
	if u.ID == "" && u.Email == "" {
		s.logger.WarnContext(ctx, "discarding cached user without identity")
		return nil
	}
	return &u
}

// SaveUser caches the user record. A nil user deletes it.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return s.delete(ctx, KeyUser)
	}
	return s.saveJSON(ctx, KeyUser, u)
}

// LoadToken returns the persisted bearer token, or "".
func (s *Store) LoadToken(ctx context.Context) string {
	raw, ok := s.get(ctx, KeyToken)
	if !ok {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// SaveToken persists the bearer token. An empty token deletes it.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	if token == "" {
		return s.delete(ctx, KeyToken)
	}
	return s.set(ctx, KeyToken, []byte(token))
}

// ClearSession removes the cached user and token.
func (s *Store) ClearSession(ctx context.Context) error {
	return errors.Join(s.delete(ctx, KeyUser), s.delete(ctx, KeyToken))
}

// ClearGuest removes the guest cart and wishlist.
func (s *Store) ClearGuest(ctx context.Context) error {
	return errors.Join(s.delete(ctx, KeyGuestCart), s.delete(ctx, KeyGuestWishlist))
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) get(ctx context.Context, record string) ([]byte, bool) {
	raw, found, err := s.backend.Get(ctx, s.key(record))
	switch {
	case err != nil:
		storeOps.WithLabelValues(record, "get", "error").Inc()
		s.logger.WarnContext(ctx, "local store read failed",
			slog.String("record", record),
			slog.String("error", err.Error()),
		)
		return nil, false
	case !found:
		storeOps.WithLabelValues(record, "get", "miss").Inc()
		return nil, false
	default:
		storeOps.WithLabelValues(record, "get", "hit").Inc()
		return raw, true
	}
}

func (s *Store) loadJSON(ctx context.Context, record string, dst any) bool {
	raw, ok := s.get(ctx, record)
	if !ok || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		storeOps.WithLabelValues(record, "decode", "error").Inc()
		s.logger.WarnContext(ctx, "discarding malformed local record",
			slog.String("record", record),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (s *Store) saveJSON(ctx context.Context, record string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", record, err)
	}
	return s.set(ctx, record, data)
}

func (s *Store) set(ctx context.Context, record string, value []byte) error {
	if err := s.backend.Set(ctx, s.key(record), value); err != nil {
		storeOps.WithLabelValues(record, "set", "error").Inc()
		return fmt.Errorf("store set %s: %w", record, err)
	}
	storeOps.WithLabelValues(record, "set", "ok").Inc()
	return nil
}

func (s *Store) delete(ctx context.Context, record string) error {
	if err := s.backend.Delete(ctx, s.key(record)); err != nil {
		storeOps.WithLabelValues(record, "delete", "error").Inc()
		return fmt.Errorf("store delete %s: %w", record, err)
	}
	storeOps.WithLabelValues(record, "delete", "ok").Inc()
	return nil
}
