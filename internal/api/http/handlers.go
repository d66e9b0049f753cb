package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/service"
)

// ReadyFunc reports whether the backing store is reachable.
type ReadyFunc func(ctx context.Context) error

// Handler serves the read-only marketplace API.
type Handler struct {
	query      service.QueryService
	reputation service.ReputationService
	ready      ReadyFunc
}

func NewHandler(query service.QueryService, reputation service.ReputationService, ready ReadyFunc) *Handler {
	return &Handler{query: query, reputation: reputation, ready: ready}
}

type pageResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int32 `json:"total_count"`
	Page       int32 `json:"page"`
	PageSize   int32 `json:"page_size"`
}

func newPage[T any](items []T, total, page, pageSize int32) pageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return pageResponse[T]{Items: items, TotalCount: total, Page: page, PageSize: pageSize}
}

type rentalResponse struct {
	Rental      *domain.Rental      `json:"rental"`
	Settlements []domain.Settlement `json:"settlements"`
}

func int32Param(r *http.Request, name string, def int32) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return int32(v), nil
}

func paging(r *http.Request) (page, pageSize int32, err error) {
	if page, err = int32Param(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if pageSize, err = int32Param(r, "page_size", 20); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listings, total, err := h.query.ListAvailableListings(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(listings, total, page, pageSize))
}

func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.ListingFilter{
		Contract: q.Get("contract"),
		Owner:    q.Get("owner"),
	}
	if raw := q.Get("max_price_per_day"); raw != "" {
		if filter.MaxPricePerDay, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeError(w, r, domain.NewValidationError("max_price_per_day", "must be an integer"))
			return
		}
	}
	if filter.RentalDays, err = int32Param(r, "rental_days", 0); err != nil {
		writeError(w, r, err)
		return
	}

	listings, total, err := h.query.SearchListings(r.Context(), filter, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(listings, total, page, pageSize))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.query.GetListing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) ListListingBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.query.ListBidsByListing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(bids, int32(len(bids)), 1, int32(len(bids))))
}

func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rt, err := h.query.GetRental(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	settlements, err := h.query.ListSettlementsByRental(ctx, rt.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if settlements == nil {
		settlements = []domain.Settlement{}
	}
	writeJSON(w, http.StatusOK, rentalResponse{Rental: rt, Settlements: settlements})
}

// ListUserRentals lists the rentals where identity is the renter.
func (h *Handler) ListUserRentals(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rentals, total, err := h.query.ListRentalsByRenter(r.Context(), mux.Vars(r)["identity"], page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(rentals, total, page, pageSize))
}

// ListUserLendings lists the rentals where identity is the owner.
func (h *Handler) ListUserLendings(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rentals, total, err := h.query.ListRentalsByOwner(r.Context(), mux.Vars(r)["identity"], page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(rentals, total, page, pageSize))
}

func (h *Handler) ListUserListings(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listings, total, err := h.query.ListListingsByOwner(r.Context(), mux.Vars(r)["identity"], page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(listings, total, page, pageSize))
}

func (h *Handler) ListUserBids(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bids, total, err := h.query.ListBidsByRenter(r.Context(), mux.Vars(r)["identity"], page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(bids, total, page, pageSize))
}

func (h *Handler) GetUserReputation(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reputation.GetReputation(r.Context(), mux.Vars(r)["identity"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.GetMarketplaceStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
