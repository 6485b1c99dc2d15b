package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/lifecycle"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
	"github.com/PerrimLc/Trabalho-final-API/internal/identity"
)

// AddToCart adds {"product_id", "quantity"} to the caller's cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.Require(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	var item lifecycle.ItemRequest
	if err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			item.ProductID, err = d.Str()
		case "quantity":
			item.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}

	cart, err := h.orders.AddToCart(r.Context(), caller.CustomerID, item)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, cart.Order) })
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.Require(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	cart, err := h.orders.Cart(r.Context(), caller.CustomerID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, cart.Order) })
}

// CreateOrder places an order from {"items": [...]}. Admins may place it on
// behalf of another customer with "customer_id".
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.Require(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	var (
		customerID = caller.CustomerID
		items      []lifecycle.ItemRequest
	)
	if err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		switch key {
		case "customer_id":
			var err error
			customerID, err = d.Str()
			return err
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				it, err := decodeItem(d)
				items = append(items, it)
				return err
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		fail(w, r, err)
		return
	}
	if !canAccess(caller, customerID) {
		fail(w, r, identity.ErrForbidden)
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), customerID, items)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ownedOrder loads the order at {id} if the caller may see it. Orders of
// other customers are reported as missing.
func (h *Handler) ownedOrder(r *http.Request) (*order.Order, error) {
	caller, err := identity.Require(r.Context())
	if err != nil {
		return nil, err
	}
	id := r.PathValue("id")
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !canAccess(caller, o.CustomerID) {
		return nil, domain.NotFound("order", id)
	}
	return o, nil
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownedOrder(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// Checkout pays the order. The optional body {"use_wallet": true} spends
// the wallet first.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownedOrder(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var useWallet bool
	if err := decodeObject(w, r, true, func(d *jx.Decoder, key string) error {
		if key != "use_wallet" {
			return d.Skip()
		}
		v, err := d.Bool()
		useWallet = v
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}

	res, err := h.orders.Checkout(r.Context(), o.ID, useWallet)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCheckout(e, res) })
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if _, err := identity.Require(r.Context(), identity.RoleAdmin); err != nil {
		fail(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeList(e, orders, encodeOrder) })
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := identity.Require(r.Context(), identity.RoleAdmin); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
