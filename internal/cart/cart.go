// Package cart keeps the shared cart state in step with its source of truth:
// the store API for signed-in visitors and the local store for guests.
package cart

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

// API is the subset of the store API the cart needs.
type API interface {
	GetCart(ctx context.Context) ([]domain.CartItem, error)
	GetCartCount(ctx context.Context) (int, error)
	UpsertCartItem(ctx context.Context, item domain.CartItem) error
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// Store persists the guest cart.
type Store interface {
	LoadGuestCart(ctx context.Context) domain.Cart
	SaveGuestCart(ctx context.Context, items []domain.CartItem) error
}

// Session tells the synchronizer which path to take.
type Session interface {
	IsAuthenticated() bool
}

// AddItemInput holds the parameters for adding a product to the cart.
type AddItemInput struct {
	ProductID          string          `json:"product_id" validate:"required,max=64"`
	Quantity           int             `json:"quantity" validate:"gte=1,lte=100"`
	Kind               domain.ItemKind `json:"kind" validate:"item_kind"`
	RentalDurationDays int             `json:"rental_duration_days" validate:"gte=0,lte=365"`
	Price              float64         `json:"price" validate:"gte=0"`
}

// withDefaults fills the optional fields: one unit, bought outright.
func (in AddItemInput) withDefaults() AddItemInput {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Kind == "" {
		in.Kind = domain.KindSale
	}
	if in.Kind == domain.KindSale {
		in.RentalDurationDays = 0
	}
	return in
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithMergeOnLogin controls whether the guest cart is moved to the account
// when the visitor signs in.
func WithMergeOnLogin(enabled bool) Option {
	return func(s *Synchronizer) { s.mergeOnLogin = enabled }
}

// Synchronizer is the only writer of the shared cart.
type Synchronizer struct {
	api          API
	store        Store
	session      Session
	notifier     notify.Notifier
	logger       *slog.Logger
	mergeOnLogin bool

	// opMu serializes mutations, including their fetch-after-write.
	opMu sync.Mutex

	mu   sync.RWMutex
	cart domain.Cart
}

// New creates a Synchronizer holding an empty cart. Call FetchCart to load it.
func New(api API, store Store, sess Session, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:          api,
		store:        store,
		session:      sess,
		notifier:     notifier,
		logger:       logger,
		mergeOnLogin: true,
		cart:         domain.NewCart(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current cart.
func (s *Synchronizer) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Count returns the number of units in the cart.
func (s *Synchronizer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Count
}

func (s *Synchronizer) set(c domain.Cart) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = c
	return c.Clone()
}

// FetchCart reloads the cart from its source of truth. A failed load is
// logged and leaves an empty cart; it is never returned as an error.
func (s *Synchronizer) FetchCart(ctx context.Context) domain.Cart {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.session.IsAuthenticated() {
		return s.set(s.store.LoadGuestCart(ctx))
	}

	c, err := s.fetchServer(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return s.Snapshot()
		}
		s.logger.WarnContext(ctx, "failed to fetch cart", slog.String("error", err.Error()))
		return s.set(domain.NewCart(nil))
	}
	return s.set(c)
}

// fetchServer reads the server cart. The count endpoint is consulted only to
// detect drift; the cart count is always the sum of quantities.
func (s *Synchronizer) fetchServer(ctx context.Context) (domain.Cart, error) {
	items, err := s.api.GetCart(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	c := domain.NewCart(items)

	reported, err := s.api.GetCartCount(ctx)
	switch {
	case err != nil:
		s.logger.DebugContext(ctx, "cart count unavailable", slog.String("error", err.Error()))
	case reported != c.Count:
		countMismatch.Inc()
		s.logger.InfoContext(ctx, "server cart count disagrees with line quantities",
			slog.Int("reported", reported),
			slog.Int("summed", c.Count),
		)
	}
	return c, nil
}

// resync refreshes the cart after a successful server write. If the read
// fails the previous state is kept.
func (s *Synchronizer) resync(ctx context.Context, op string) domain.Cart {
	c, err := s.fetchServer(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUnauthorized) {
			s.logger.WarnContext(ctx, "failed to refresh cart after write",
				slog.String("operation", op),
				slog.String("error", err.Error()),
			)
			s.notifier.Info(ctx, "Your cart was updated but could not be refreshed.")
		}
		return s.Snapshot()
	}
	return s.set(c)
}

// AddToCart adds quantity units of a product. Signed in, the line is upserted
// on the server and the cart re-fetched; as a guest the local cart absorbs
// the quantity into an existing line for the same product.
func (s *Synchronizer) AddToCart(ctx context.Context, in AddItemInput) (domain.Cart, error) {
	in = in.withDefaults()
	if err := validator.Validate(in); err != nil {
		return s.Snapshot(), err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	item := domain.CartItem{
		ID:                 in.ProductID,
		ProductID:          in.ProductID,
		Quantity:           in.Quantity,
		Kind:               in.Kind,
		RentalDurationDays: in.RentalDurationDays,
		Price:              in.Price,
	}

	if !s.session.IsAuthenticated() {
		next := s.store.LoadGuestCart(ctx).WithItem(item)
		return s.saveGuest(ctx, "add", next)
	}

	// The upsert sets the quantity, so the sum is taken against the server line.
	server, err := s.fetchServer(ctx)
	if err != nil {
		return s.fail(ctx, "add", err)
	}
	if i := server.IndexOfProduct(item.ProductID); i >= 0 && server.Items[i].Kind == item.Kind {
		item.Quantity += server.Items[i].Quantity
	}
	if item.Price == 0 {
		item.Price = s.lookupPrice(ctx, item)
	}
	if err := s.api.UpsertCartItem(ctx, item); err != nil {
		return s.fail(ctx, "add", err)
	}
	mutations.WithLabelValues("add", "account", "ok").Inc()
	s.logger.InfoContext(ctx, "cart item added",
		slog.String("product_id", item.ProductID),
		slog.String("kind", string(item.Kind)),
		slog.Int("quantity", item.Quantity),
	)
	return s.resync(ctx, "add"), nil
}

// lookupPrice resolves the unit price the upsert endpoint expects.
func (s *Synchronizer) lookupPrice(ctx context.Context, item domain.CartItem) float64 {
	p, err := s.api.GetProduct(ctx, item.ProductID)
	if err != nil {
		s.logger.WarnContext(ctx, "price lookup failed, sending zero",
			slog.String("product_id", item.ProductID),
			slog.String("error", err.Error()),
		)
		return 0
	}
	if item.Kind == domain.KindRent {
		return p.RentalPrice
	}
	return p.Price
}

// UpdateCartItem sets the quantity of a line. A quantity of zero or less
// removes the line.
func (s *Synchronizer) UpdateCartItem(ctx context.Context, itemID string, quantity int) (domain.Cart, error) {
	if itemID == "" {
		return s.Snapshot(), apperrors.InvalidInput("item id is required")
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, itemID)
	}

	if !s.session.IsAuthenticated() {
		next, ok := s.store.LoadGuestCart(ctx).WithQuantity(itemID, quantity)
		if !ok {
			return s.Snapshot(), apperrors.NotFound("cart item", itemID)
		}
		return s.saveGuest(ctx, "update", next)
	}

	server, err := s.fetchServer(ctx)
	if err != nil {
		return s.fail(ctx, "update", err)
	}
	i := server.IndexOf(itemID)
	if i < 0 {
		return s.Snapshot(), apperrors.NotFound("cart item", itemID)
	}
	item := server.Items[i]
	item.Quantity = quantity
	item.Product = nil
	if err := s.api.UpsertCartItem(ctx, item); err != nil {
		return s.fail(ctx, "update", err)
	}
	mutations.WithLabelValues("update", "account", "ok").Inc()
	s.logger.InfoContext(ctx, "cart item updated",
		slog.String("item_id", itemID),
		slog.Int("quantity", quantity),
	)
	return s.resync(ctx, "update"), nil
}

// RemoveFromCart removes a line. Removing an absent guest line is a no-op.
func (s *Synchronizer) RemoveFromCart(ctx context.Context, itemID string) (domain.Cart, error) {
	if itemID == "" {
		return s.Snapshot(), apperrors.InvalidInput("item id is required")
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.removeLocked(ctx, itemID)
}

func (s *Synchronizer) removeLocked(ctx context.Context, itemID string) (domain.Cart, error) {
	if !s.session.IsAuthenticated() {
		next, _ := s.store.LoadGuestCart(ctx).Without(itemID)
		return s.saveGuest(ctx, "remove", next)
	}

	if err := s.api.RemoveCartItem(ctx, itemID); err != nil {
		return s.fail(ctx, "remove", err)
	}
	mutations.WithLabelValues("remove", "account", "ok").Inc()
	s.logger.InfoContext(ctx, "cart item removed", slog.String("item_id", itemID))
	return s.resync(ctx, "remove"), nil
}

// ClearCart empties the cart on either path.
func (s *Synchronizer) ClearCart(ctx context.Context) (domain.Cart, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.session.IsAuthenticated() {
		return s.saveGuest(ctx, "clear", domain.NewCart(nil))
	}

	if err := s.api.ClearCart(ctx); err != nil {
		return s.fail(ctx, "clear", err)
	}
	mutations.WithLabelValues("clear", "account", "ok").Inc()
	s.logger.InfoContext(ctx, "cart cleared")
	return s.set(domain.NewCart(nil)), nil
}

// saveGuest persists next and publishes it. Guest mutations apply even when
// persisting fails; the failure is logged.
func (s *Synchronizer) saveGuest(ctx context.Context, op string, next domain.Cart) (domain.Cart, error) {
	result := "ok"
	if err := s.store.SaveGuestCart(ctx, next.Items); err != nil {
		result = "store_error"
		s.logger.ErrorContext(ctx, "failed to persist guest cart",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
	mutations.WithLabelValues(op, "guest", result).Inc()
	return s.set(next), nil
}

// fail records a failed server mutation. Authentication failures are left to
// the session; everything else becomes a notice. The cart is unchanged.
func (s *Synchronizer) fail(ctx context.Context, op string, err error) (domain.Cart, error) {
	mutations.WithLabelValues(op, "account", "error").Inc()
	s.logger.WarnContext(ctx, "cart mutation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		s.notifier.Error(ctx, failureNotice(op, err))
	}
	return s.Snapshot(), err
}

// MergeGuest moves the guest cart into the account: each guest line is added
// to the server cart, merged lines leave the guest store, and the server cart
// is fetched. It returns how many lines were merged.
func (s *Synchronizer) MergeGuest(ctx context.Context) (int, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.session.IsAuthenticated() {
		return 0, apperrors.Unauthorized("sign in required")
	}

	guest := s.store.LoadGuestCart(ctx)
	if len(guest.Items) == 0 {
		s.resync(ctx, "merge")
		return 0, nil
	}

	server, err := s.fetchServer(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "guest cart merge skipped", slog.String("error", err.Error()))
		return 0, err
	}

	var (
		kept   []domain.CartItem
		merged int
		errs   []error
	)
	for i, line := range guest.Items {
		item := line
		item.ID = ""
		item.Product = nil
		if j := server.IndexOfProduct(item.ProductID); j >= 0 && server.Items[j].Kind == item.Kind {
			item.Quantity += server.Items[j].Quantity
		}
		if item.Price == 0 {
			item.Price = s.lookupPrice(ctx, item)
		}
		if err := s.api.UpsertCartItem(ctx, item); err != nil {
			errs = append(errs, err)
			if errors.Is(err, apperrors.ErrUnauthorized) {
				kept = append(kept, guest.Items[i:]...)
				break
			}
			kept = append(kept, line)
			continue
		}
		merged++
	}

	if err := s.store.SaveGuestCart(ctx, kept); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist remaining guest cart", slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "guest cart merged",
		slog.Int("merged", merged),
		slog.Int("remaining", len(kept)),
	)
	if len(errs) > 0 {
		s.notifier.Error(ctx, "Some items from your guest cart could not be moved to your account.")
	}

	s.resync(ctx, "merge")
	return merged, errors.Join(errs...)
}

// OnSessionEvent keeps the cart aligned with the session. Logout and expiry
// swap in the guest cart without the mutation lock, so they never wait on a
// write in flight. Login merges or fetches under the lock.
func (s *Synchronizer) OnSessionEvent(ctx context.Context, ev session.Event) {
	switch ev.Kind {
	case session.EventLogin:
		if s.mergeOnLogin {
			if _, err := s.MergeGuest(ctx); err != nil {
				s.logger.WarnContext(ctx, "guest cart merge incomplete", slog.String("error", err.Error()))
			}
			return
		}
		s.FetchCart(ctx)
	case session.EventLogout, session.EventExpired:
		s.set(s.store.LoadGuestCart(ctx))
	}
}

func failureNotice(op string, err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status >= 400 && appErr.Status < 500 {
		return "Could not " + verb(op) + ": " + appErr.Message
	}
	return "Could not " + verb(op) + ". Please try again."
}

func verb(op string) string {
	switch op {
	case "add":
		return "add the item to your cart"
	case "update":
		return "update the item quantity"
	case "remove":
		return "remove the item from your cart"
	case "clear":
		return "clear your cart"
	default:
		return "update your cart"
	}
}
