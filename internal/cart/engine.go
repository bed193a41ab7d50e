package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Store persists cart snapshots. Load reports found=false when no prior
// snapshot exists; malformed stored data is discarded by the adapter, never
// surfaced as an error.
type Store interface {
	Save(ctx context.Context, state State) error
	Load(ctx context.Context) (State, bool, error)
}

// Engine owns one cart. All mutations go through it, every successful
// mutation is persisted and then published synchronously to subscribers
// before the call returns. Business-rule violations are signaled through
// return values and no-ops; only store I/O surfaces as an error.
type Engine struct {
	mu    sync.Mutex
	state State
	store Store

	subMu  sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(State)
}

// NewEngine builds an engine hydrated from the store. A missing or
// unreadable snapshot yields an empty cart.
func NewEngine(ctx context.Context, store Store) *Engine {
	e := &Engine{store: store}
	if store == nil {
		return e
	}
	state, found, err := store.Load(ctx)
	if err == nil && found {
		e.state = state
	}
	return e
}

// Subscribe registers a snapshot observer and returns its unsubscribe
// function. Observers run synchronously in registration order.
func (e *Engine) Subscribe(fn func(State)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, sub := range e.subs {
			if sub.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Total computes the current total per the state formula.
func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Total()
}

// AddItem adds delta units of the product. It reports false when the cart
// already holds another restaurant's items, leaving state unchanged. A
// non-positive delta on a new line is rejected; on an existing line it is
// routed through set-quantity semantics and may delete the line.
func (e *Engine) AddItem(ctx context.Context, product Product, delta int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsEmpty() && e.state.RestaurantID() != product.RestaurantID {
		return false, nil
	}

	next := e.state.clone()
	idx := next.lineIndex(product.ID)
	if idx < 0 {
		if delta <= 0 {
			return false, nil
		}
		next.Lines = append(next.Lines, Line{Product: product, Quantity: delta})
	} else {
		quantity := next.Lines[idx].Quantity + delta
		if quantity <= 0 {
			next.Lines = append(next.Lines[:idx], next.Lines[idx+1:]...)
		} else {
			next.Lines[idx].Quantity = quantity
		}
	}

	if err := e.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// SetQuantity sets the quantity for a product's line. A missing line is a
// no-op; a non-positive quantity removes the line.
func (e *Engine) SetQuantity(ctx context.Context, productID string, quantity int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.state.lineIndex(productID)
	if idx < 0 {
		return nil
	}

	next := e.state.clone()
	if quantity <= 0 {
		next.Lines = append(next.Lines[:idx], next.Lines[idx+1:]...)
	} else {
		if next.Lines[idx].Quantity == quantity {
			return nil
		}
		next.Lines[idx].Quantity = quantity
	}
	return e.commit(ctx, next)
}

// RemoveItem deletes the matching line. Removing an absent product is a
// no-op, not an error.
func (e *Engine) RemoveItem(ctx context.Context, productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.state.lineIndex(productID)
	if idx < 0 {
		return nil
	}
	next := e.state.clone()
	next.Lines = append(next.Lines[:idx], next.Lines[idx+1:]...)
	return e.commit(ctx, next)
}

// SetDeliveryFee replaces the delivery fee. Negative fees clamp to zero.
func (e *Engine) SetDeliveryFee(ctx context.Context, fee decimal.Decimal) error {
	if fee.IsNegative() {
		fee = decimal.Zero
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.DeliveryFee.Equal(fee) {
		return nil
	}
	next := e.state.clone()
	next.DeliveryFee = fee
	return e.commit(ctx, next)
}

// ApplyDiscount records a verified discount. An empty code or non-positive
// amount clears any existing discount instead.
func (e *Engine) ApplyDiscount(ctx context.Context, code string, amount decimal.Decimal) error {
	if code == "" || !amount.IsPositive() {
		return e.ClearDiscount(ctx)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Discount != nil && e.state.Discount.Code == code && e.state.Discount.Amount.Equal(amount) {
		return nil
	}
	next := e.state.clone()
	next.Discount = &Discount{Code: code, Amount: amount}
	return e.commit(ctx, next)
}

// ClearDiscount removes any applied discount.
func (e *Engine) ClearDiscount(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Discount == nil {
		return nil
	}
	next := e.state.clone()
	next.Discount = nil
	return e.commit(ctx, next)
}

// Clear resets the cart to the empty state. Used after a successful order
// submission or an explicit cancel.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsEmpty() && e.state.Discount == nil && e.state.DeliveryFee.IsZero() {
		return nil
	}
	return e.commit(ctx, State{})
}

// commit persists the candidate state, swaps it in, and publishes a
// snapshot. The caller holds e.mu. On a save failure the previous state is
// kept so memory and store never diverge.
func (e *Engine) commit(ctx context.Context, next State) error {
	if e.store != nil {
		if err := e.store.Save(ctx, next); err != nil {
			return err
		}
	}
	e.state = next
	e.publish(next.clone())
	return nil
}

func (e *Engine) publish(snapshot State) {
	e.subMu.Lock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot.clone())
	}
}
