// Package handler exposes the storefront services over HTTP with JSON
// bodies.
package handler

import (
	"net/http"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain/account"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/catalog"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/lifecycle"
)

// Handler serves the /api routes.
type Handler struct {
	orders   *lifecycle.Service
	catalog  *catalog.Service
	accounts *account.Service
}

// NewHandler constructs a Handler.
func NewHandler(orders *lifecycle.Service, catalog *catalog.Service, accounts *account.Service) *Handler {
	return &Handler{
		orders:   orders,
		catalog:  catalog,
		accounts: accounts,
	}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/cart/items", h.AddToCart)
	mux.HandleFunc("GET /api/cart", h.GetCart)

	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", h.DeleteOrder)
	mux.HandleFunc("POST /api/orders/{id}/checkout", h.Checkout)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeactivateProduct)
	mux.HandleFunc("POST /api/products/{id}/restock", h.Restock)

	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("POST /api/categories", h.CreateCategory)

	mux.HandleFunc("POST /api/customers", h.RegisterCustomer)
	mux.HandleFunc("GET /api/customers/me", h.Me)
	mux.HandleFunc("GET /api/customers/me/cashback", h.MyCashback)
}
