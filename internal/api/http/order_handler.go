package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"unimarket-backend/internal/service"
)

// OrderHandler exposes checkout and the escrow lifecycle
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type checkoutRequest struct {
	Items            []service.CartItem `json:"items"`
	ClientTotalMinor int64              `json:"client_total_minor"`
}

func orderIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return 0, false
	}
	return id, true
}

// HandleCheckout handles POST /api/v1/orders
func (h *OrderHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	orders, err := h.orders.CreateOrder(r.Context(), claims.AccountID, req.Items, req.ClientTotalMinor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orders)
}

// HandleList handles GET /api/v1/orders
func (h *OrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	orders, err := h.orders.ListOrders(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// HandleConfirmSent handles POST /api/v1/orders/{id}/confirm-sent
func (h *OrderHandler) HandleConfirmSent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := orderIDFrom(w, r)
	if !ok {
		return
	}

	order, err := h.orders.ConfirmSent(r.Context(), id, claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// HandleConfirmReceived handles POST /api/v1/orders/{id}/confirm-received
func (h *OrderHandler) HandleConfirmReceived(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := orderIDFrom(w, r)
	if !ok {
		return
	}

	order, err := h.orders.ConfirmReceived(r.Context(), id, claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// HandleRefund handles POST /api/v1/orders/{id}/refund
func (h *OrderHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := orderIDFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orders.Refund(r.Context(), id, claims.AccountID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
