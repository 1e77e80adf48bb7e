// Package wishlist keeps the wishlist badge count and applies membership
// toggles against the store API or, for guests, the local store.
package wishlist

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/utafrali/laptopstore/internal/domain"
	"github.com/utafrali/laptopstore/internal/notify"
	"github.com/utafrali/laptopstore/internal/session"
	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/validator"
)

// API is the subset of the store API the wishlist needs.
type API interface {
	GetWishlist(ctx context.Context) ([]domain.WishlistEntry, error)
	GetWishlistCount(ctx context.Context) (int, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
}

// Store persists the guest wishlist.
type Store interface {
	LoadGuestWishlist(ctx context.Context) []string
	SaveGuestWishlist(ctx context.Context, ids []string) error
}

// Session tells the synchronizer which path to take.
type Session interface {
	IsAuthenticated() bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithMergeOnLogin controls whether guest hearts move to the account on login.
func WithMergeOnLogin(enabled bool) Option {
	return func(s *Synchronizer) { s.mergeOnLogin = enabled }
}

// Synchronizer owns the shared wishlist count.
type Synchronizer struct {
	api          API
	store        Store
	session      Session
	notifier     notify.Notifier
	logger       *slog.Logger
	mergeOnLogin bool

	opMu sync.Mutex

	mu    sync.RWMutex
	count int
}

// New creates a Synchronizer with a zero count.
func New(api API, store Store, sess Session, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:          api,
		store:        store,
		session:      sess,
		notifier:     notifier,
		logger:       logger,
		mergeOnLogin: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Count returns the badge count.
func (s *Synchronizer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *Synchronizer) setCount(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
	return n
}

// FetchWishlistCount refreshes the badge count. Failures are logged and
// shown as an empty wishlist.
func (s *Synchronizer) FetchWishlistCount(ctx context.Context) int {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.refreshCount(ctx)
}

func (s *Synchronizer) refreshCount(ctx context.Context) int {
	if !s.session.IsAuthenticated() {
		return s.setCount(len(s.store.LoadGuestWishlist(ctx)))
	}
	n, err := s.api.GetWishlistCount(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return s.Count()
		}
		s.logger.WarnContext(ctx, "failed to fetch wishlist count", slog.String("error", err.Error()))
		return s.setCount(0)
	}
	return s.setCount(n)
}

// Members returns the current wishlist: the server list when signed in, the
// guest ids otherwise.
func (s *Synchronizer) Members(ctx context.Context) (domain.Wishlist, error) {
	if !s.session.IsAuthenticated() {
		return guestWishlist(s.store.LoadGuestWishlist(ctx)), nil
	}
	entries, err := s.api.GetWishlist(ctx)
	if err != nil {
		return domain.Wishlist{Entries: []domain.WishlistEntry{}}, err
	}
	return serverWishlist(entries), nil
}

// Contains reports whether productID is on the wishlist.
func (s *Synchronizer) Contains(ctx context.Context, productID string) (bool, error) {
	w, err := s.Members(ctx)
	if err != nil {
		return false, err
	}
	return w.Contains(productID), nil
}

// ToggleWishlist flips membership of productID and returns the new state.
// Membership is checked against a fresh list; on failure nothing changes
// and a notice is shown.
func (s *Synchronizer) ToggleWishlist(ctx context.Context, productID string) (bool, error) {
	if err := validator.Var(productID, "required,max=64"); err != nil {
		return false, apperrors.InvalidInput("a valid product id is required")
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.session.IsAuthenticated() {
		ids := s.store.LoadGuestWishlist(ctx)
		member := guestWishlist(ids).Contains(productID)
		if member {
			ids = without(ids, productID)
		} else {
			ids = append(ids, productID)
		}
		result := "ok"
		if err := s.store.SaveGuestWishlist(ctx, ids); err != nil {
			result = "store_error"
			s.logger.ErrorContext(ctx, "failed to persist guest wishlist", slog.String("error", err.Error()))
		}
		toggles.WithLabelValues("guest", result).Inc()
		s.setCount(len(ids))
		return !member, nil
	}

	entries, err := s.api.GetWishlist(ctx)
	if err != nil {
		return false, s.fail(ctx, err)
	}
	member := serverWishlist(entries).Contains(productID)
	if member {
		err = s.api.RemoveFromWishlist(ctx, productID)
	} else {
		err = s.api.AddToWishlist(ctx, productID)
	}
	if err != nil {
		return member, s.fail(ctx, err)
	}

	toggles.WithLabelValues("account", "ok").Inc()
	s.logger.InfoContext(ctx, "wishlist toggled",
		slog.String("product_id", productID),
		slog.Bool("member", !member),
	)
	s.refreshCount(ctx)
	return !member, nil
}

func (s *Synchronizer) fail(ctx context.Context, err error) error {
	toggles.WithLabelValues("account", "error").Inc()
	s.logger.WarnContext(ctx, "wishlist toggle failed", slog.String("error", err.Error()))
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		s.notifier.Error(ctx, "Could not update your wishlist. Please try again.")
	}
	return err
}

// MergeGuest adds every guest heart the account does not have yet. Ids that
// fail stay in the guest store. It returns how many were added.
func (s *Synchronizer) MergeGuest(ctx context.Context) (int, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.session.IsAuthenticated() {
		return 0, apperrors.Unauthorized("sign in required")
	}

	ids := s.store.LoadGuestWishlist(ctx)
	if len(ids) == 0 {
		s.refreshCount(ctx)
		return 0, nil
	}

	entries, err := s.api.GetWishlist(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "guest wishlist merge skipped", slog.String("error", err.Error()))
		return 0, err
	}
	server := serverWishlist(entries)

	var (
		kept  []string
		added int
		errs  []error
	)
	for i, id := range ids {
		if server.Contains(id) {
			continue
		}
		if err := s.api.AddToWishlist(ctx, id); err != nil {
			errs = append(errs, err)
			if errors.Is(err, apperrors.ErrUnauthorized) {
				kept = append(kept, ids[i:]...)
				break
			}
			kept = append(kept, id)
			continue
		}
		added++
	}

	if err := s.store.SaveGuestWishlist(ctx, kept); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist remaining guest wishlist", slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "guest wishlist merged",
		slog.Int("added", added),
		slog.Int("remaining", len(kept)),
	)
	if len(errs) > 0 {
		s.notifier.Error(ctx, "Some wishlist items could not be moved to your account.")
	}
	s.refreshCount(ctx)
	return added, errors.Join(errs...)
}

// OnSessionEvent keeps the count aligned with the session. Logout and expiry
// reset it without the mutation lock; login merges or refreshes under it.
func (s *Synchronizer) OnSessionEvent(ctx context.Context, ev session.Event) {
	switch ev.Kind {
	case session.EventLogin:
		if s.mergeOnLogin {
			if _, err := s.MergeGuest(ctx); err != nil {
				s.logger.WarnContext(ctx, "guest wishlist merge incomplete", slog.String("error", err.Error()))
			}
			return
		}
		s.FetchWishlistCount(ctx)
	case session.EventLogout, session.EventExpired:
		s.setCount(len(s.store.LoadGuestWishlist(ctx)))
	}
}

func guestWishlist(ids []string) domain.Wishlist {
	ids = domain.UniqueIDs(ids)
	entries := make([]domain.WishlistEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, domain.WishlistEntry{ProductID: id})
	}
	return domain.Wishlist{Entries: entries, Count: len(entries)}
}

// serverWishlist collapses duplicate entries so membership stays a set.
func serverWishlist(entries []domain.WishlistEntry) domain.Wishlist {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.WishlistEntry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ProductID]; dup || e.ProductID == "" {
			continue
		}
		seen[e.ProductID] = struct{}{}
		out = append(out, e)
	}
	return domain.Wishlist{Entries: out, Count: len(out)}
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
