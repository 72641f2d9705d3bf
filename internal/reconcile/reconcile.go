// Package reconcile merges a guest cart into the authenticated upstream cart
// right after login or signup.
package reconcile

import (
	"context"
	"fmt"

	"github.com/ponchomart/storefront/internal/guestcart"
	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/upstream"
)

// Gateway is the slice of the upstream client reconciliation needs.
type Gateway interface {
	Cart(ctx context.Context, sid string) (*upstream.Cart, error)
	AddItem(ctx context.Context, sid, productID string) error
	SetQuantity(ctx context.Context, sid, orderItemID string, quantity int) error
}

type Engine struct {
	Gateway Gateway
	Guest   *guestcart.Store
}

// Run merges the session's guest lines into the authenticated cart. Steps run
// strictly in sequence so the upstream sees ordered state changes and the
// duplicate check stays meaningful. Any failure aborts immediately and keeps
// the guest cart so the next attempt starts from scratch; partially added
// lines are not rolled back.
//
// Product ids already present upstream are skipped entirely: their quantity
// belongs to the authenticated cart and is never altered here. The upstream
// add call always establishes quantity 1, so a second pass raises freshly
// added lines to the guest quantity.
func (e *Engine) Run(ctx context.Context, sid string) error {
	guestLines := e.Guest.Lines(sid)
	if len(guestLines) == 0 {
		return nil
	}

	log := logging.FromContext(ctx).With("component", "reconcile", "sid", sid)

	cart, err := e.Gateway.Cart(ctx, sid)
	if err != nil {
		return fmt.Errorf("fetch cart: %w", err)
	}
	existing := cart.ProductIDSet()

	// Snapshot taken once, up front. A retry after a mid-sequence failure
	// can therefore double-add when this snapshot went stale in between.
	added := map[string]bool{}
	for _, line := range guestLines {
		if existing[line.ProductID] {
			continue
		}
		if err := e.Gateway.AddItem(ctx, sid, line.ProductID); err != nil {
			return fmt.Errorf("add %s: %w", line.ProductID, err)
		}
		added[line.ProductID] = true
	}

	if len(added) > 0 {
		refreshed, err := e.Gateway.Cart(ctx, sid)
		if err != nil {
			return fmt.Errorf("refetch cart: %w", err)
		}
		for _, line := range guestLines {
			if !added[line.ProductID] || line.Quantity <= 1 {
				continue
			}
			match, ok := refreshed.Line(line.ProductID)
			if !ok || match.OrderItemID == "" {
				log.Warn("added line missing from refreshed cart", "product_id", line.ProductID)
				continue
			}
			if err := e.Gateway.SetQuantity(ctx, sid, match.OrderItemID, line.Quantity); err != nil {
				return fmt.Errorf("set quantity %s: %w", line.ProductID, err)
			}
		}
	}

	e.Guest.Clear(sid)
	log.Info("guest cart reconciled", "lines", len(guestLines), "added", len(added))
	return nil
}
