package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/service"
)

// AdminHandler exposes moderation and the security panel
type AdminHandler struct {
	admin service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func accountIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return 0, false
	}
	return id, true
}

// HandleListAccounts handles GET /api/v1/admin/accounts
func (h *AdminHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	accounts, err := h.admin.ListAccounts(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// HandleBan handles POST /api/v1/admin/accounts/{id}/ban
func (h *AdminHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := accountIDFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.admin.BanAccount(r.Context(), claims.AccountID, id, domain.BanType(req.Type), req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// HandleUnban handles POST /api/v1/admin/accounts/{id}/unban
func (h *AdminHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := accountIDFrom(w, r)
	if !ok {
		return
	}

	if err := h.admin.UnbanAccount(r.Context(), claims.AccountID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// HandleDeleteAccount handles DELETE /api/v1/admin/accounts/{id}
func (h *AdminHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := accountIDFrom(w, r)
	if !ok {
		return
	}

	if err := h.admin.DeleteAccount(r.Context(), claims.AccountID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// HandleSecurityLog handles GET /api/v1/admin/security-log
func (h *AdminHandler) HandleSecurityLog(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	entries, err := h.admin.SecurityLog(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleClearSecurityLog handles DELETE /api/v1/admin/security-log
func (h *AdminHandler) HandleClearSecurityLog(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	if err := h.admin.ClearSecurityLog(r.Context(), claims.AccountID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
