package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/PerrimLc/Trabalho-final-API/internal/identity"
)

// RegisterCustomer creates a customer from {"name"} with an empty wallet.
func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		if key != "name" {
			return d.Skip()
		}
		var err error
		name, err = d.Str()
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.accounts.Register(r.Context(), name)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCustomer(e, c) })
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.Require(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.accounts.Get(r.Context(), caller.CustomerID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCustomer(e, c) })
}

// MyCashback lists the caller's cashback records, newest first.
func (h *Handler) MyCashback(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.Require(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	records, err := h.accounts.Cashback(r.Context(), caller.CustomerID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeList(e, records, encodeCashback) })
}
