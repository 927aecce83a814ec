package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/order"
	"github.com/northwind-labs/storefront/internal/session"
)

type checkoutRequest struct {
	PromoCode  string `json:"promo_code"`
	PaymentRef string `json:"payment_ref"`
}

// checkout places an order from the caller's current cart. Snapshot, order
// persist, and cart clear all run under the session lock, so concurrent
// checkouts on one session cannot place the same cart twice. A failed
// checkout leaves the cart intact so the client can retry.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var o *order.Order
	err = st.Checkout(r.Context(), func(snapshot *cart.Cart) error {
		placed, perr := h.orders.Checkout(r.Context(), order.CheckoutRequest{
			UserID:     sessionFrom(r.Context()).UserID,
			Cart:       snapshot,
			PromoCode:  req.PromoCode,
			PaymentRef: req.PaymentRef,
		})
		if perr != nil {
			return perr
		}
		o = placed
		return nil
	})
	if err != nil {
		if !errors.Is(err, session.ErrClearNotPersisted) {
			writeDomainError(w, r, err)
			return
		}
		// The order exists; a cart clear that failed to persist is
		// recoverable and must not fail the checkout response.
		zctx.From(r.Context()).Warn("clear cart after checkout",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, toOrderDTO(*o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.Orders(r.Context(), sessionFrom(r.Context()).UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}
