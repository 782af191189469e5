package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront-cart/internal/domain"
	"github.com/fjod/go_cart/storefront-cart/internal/notify"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// CartStore is the part of the cart store the handlers drive.
// Consumers define this interface, not the cart package.
type CartStore interface {
	Cart() domain.Cart
	AddProduct(ctx context.Context, productID int64)
	RemoveProduct(ctx context.Context, productID int64)
	UpdateProductAmount(ctx context.Context, req domain.UpdateProductAmount)
}

// NotificationFeed hands out pending user facing messages.
type NotificationFeed interface {
	Drain() []notify.Message
}

type CartHandler struct {
	store   CartStore
	feed    NotificationFeed
	timeout time.Duration
	log     *logrus.Logger
}

func NewCartHandler(store CartStore, feed NotificationFeed, timeout time.Duration, log *logrus.Logger) *CartHandler {
	return &CartHandler{
		store:   store,
		feed:    feed,
		timeout: timeout,
		log:     log,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateAmountRequestDTO struct {
	Amount int `json:"amount"`
}

type CartResponseDTO struct {
	Items     []domain.Product `json:"items"`
	Total     float64          `json:"total"`
	ItemCount int              `json:"item_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, http.StatusOK)
}

// AddItem always answers with the resulting cart. A rejected add shows up
// in the notification feed, not as an HTTP error.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	h.store.AddProduct(ctx, req.ProductID)
	h.respondCart(w, http.StatusOK)
}

func (h *CartHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := h.productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// amounts below 1 are passed through; the store ignores them
	h.store.UpdateProductAmount(ctx, domain.UpdateProductAmount{ProductID: productID, Amount: req.Amount})
	h.respondCart(w, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := h.productIDParam(w, r)
	if !ok {
		return
	}

	h.store.RemoveProduct(ctx, productID)
	h.respondCart(w, http.StatusOK)
}

// Notifications drains the pending messages; each one is returned once.
func (h *CartHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.feed.Drain())
}

func (h *CartHandler) productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func (h *CartHandler) respondCart(w http.ResponseWriter, status int) {
	cart := h.store.Cart()
	items := []domain.Product(cart)
	if items == nil {
		items = []domain.Product{}
	}
	h.respondJSON(w, status, CartResponseDTO{
		Items:     items,
		Total:     cart.Total(),
		ItemCount: cart.ItemCount(),
	})
}

func (h *CartHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.WithError(err).Error("failed to encode response")
	}
}

func (h *CartHandler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
