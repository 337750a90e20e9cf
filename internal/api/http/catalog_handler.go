package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/service"
)

// CatalogHandler exposes the storefront, listing management and reviews
type CatalogHandler struct {
	catalog service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type listingRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceMinor  int64  `json:"price_minor"`
	Category    string `json:"category"`
	InStock     bool   `json:"in_stock"`
}

func listingIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid listing id"})
		return 0, false
	}
	return id, true
}

// HandleStorefront handles GET /api/v1/listings
func (h *CatalogHandler) HandleStorefront(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.Storefront(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// HandleMyListings handles GET /api/v1/listings/mine
func (h *CatalogHandler) HandleMyListings(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	listings, err := h.catalog.ListBySeller(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// HandleCreate handles POST /api/v1/listings
func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	var req listingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	listing := &domain.Listing{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Category:    req.Category,
		InStock:     req.InStock,
	}
	if err := h.catalog.AddListing(r.Context(), claims.AccountID, listing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

// HandleUpdate handles PUT /api/v1/listings/{id}
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := listingIDFrom(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	listing := &domain.Listing{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Category:    req.Category,
		InStock:     req.InStock,
	}
	if err := h.catalog.UpdateListing(r.Context(), claims.AccountID, listing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleDelete handles DELETE /api/v1/listings/{id}
func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := listingIDFrom(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteListing(r.Context(), claims.AccountID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// HandleSubmitReview handles POST /api/v1/listings/{id}/reviews
func (h *CatalogHandler) HandleSubmitReview(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, ok := listingIDFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		Rating  int32  `json:"rating"`
		Comment string `json:"comment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.catalog.SubmitReview(r.Context(), claims.AccountID, id, req.Rating, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// HandleListReviews handles GET /api/v1/listings/{id}/reviews
func (h *CatalogHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := listingIDFrom(w, r)
	if !ok {
		return
	}

	reviews, err := h.catalog.ListReviews(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
