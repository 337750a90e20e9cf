package http

import (
	"net/http"

	"unimarket-backend/internal/service"
)

// WalletHandler exposes the authenticated account's wallet
type WalletHandler struct {
	wallet service.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(wallet service.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

type amountRequest struct {
	AmountMinor int64 `json:"amount_minor"`
}

// HandleTopUp handles POST /api/v1/wallet/topup
func (h *WalletHandler) HandleTopUp(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := h.wallet.TopUp(r.Context(), claims.AccountID, req.AmountMinor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// HandleWithdraw handles POST /api/v1/wallet/withdraw
func (h *WalletHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := h.wallet.Withdraw(r.Context(), claims.AccountID, req.AmountMinor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// HandleBalance handles GET /api/v1/wallet/balance
func (h *WalletHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	balance, err := h.wallet.GetBalance(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance_minor": balance})
}

// HandleTransactions handles GET /api/v1/wallet/transactions
func (h *WalletHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	txs, err := h.wallet.ListTransactions(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
