package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/catalog"
	"github.com/PerrimLc/Trabalho-final-API/internal/identity"
)

func decodeProductInput(w http.ResponseWriter, r *http.Request) (catalog.ProductInput, error) {
	var in catalog.ProductInput
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			in.Name, err = d.Str()
		case "price":
			in.Price, err = decodeDecimal(d)
		case "stock":
			var stock int
			stock, err = d.Int()
			in.Stock = &stock
		case "category_id":
			in.CategoryID, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return in, err
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListActiveProducts(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeList(e, products, encodeProduct) })
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := identity.Require(r.Context(), identity.RoleAdmin); err != nil {
		fail(w, r, err)
		return
	}
	in, err := decodeProductInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
}

// UpdateProduct replaces name, price and category. Stock changes only when
// "stock" is present.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := identity.Require(r.Context(), identity.RoleAdmin); err != nil {
		fail(w, r, err)
		return
	}
	in, err := decodeProductInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

// DeactivateProduct hides the product from the catalog. Existing orders keep
// their line items.
func (h *Handler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := identity.Require(r.Context(), identity.RoleAdmin); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.catalog.DeactivateProduct(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	if _, err := identity.Require(r.Context(), identity.RoleAdmin); err != nil {
		fail(w, r, err)
		return
	}
	qty := 0
	seen := false
	if err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		seen = true
		var err error
		qty, err = d.Int()
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if !seen {
		fail(w, r, domain.InvalidInput("quantity", "required"))
		return
	}
	p, err := h.catalog.Restock(r.Context(), r.PathValue("id"), qty)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeList(e, categories, encodeCategory) })
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if _, err := identity.Require(r.Context(), identity.RoleAdmin); err != nil {
		fail(w, r, err)
		return
	}
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
	c, err := h.catalog.CreateCategory(r.Context(), name)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCategory(e, c) })
}
