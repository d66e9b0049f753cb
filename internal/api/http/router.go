package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// NewRouter registers the read API, health and metrics endpoints.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestID, instrument)

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/listings", h.ListListings).Methods(http.MethodGet)
	// search must be registered before the {id} route
	v1.HandleFunc("/listings/search", h.SearchListings).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{id}", h.GetListing).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{id}/bids", h.ListListingBids).Methods(http.MethodGet)
	v1.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet)
	v1.HandleFunc("/users/{identity}/rentals", h.ListUserRentals).Methods(http.MethodGet)
	v1.HandleFunc("/users/{identity}/lendings", h.ListUserLendings).Methods(http.MethodGet)
	v1.HandleFunc("/users/{identity}/listings", h.ListUserListings).Methods(http.MethodGet)
	v1.HandleFunc("/users/{identity}/bids", h.ListUserBids).Methods(http.MethodGet)
	v1.HandleFunc("/users/{identity}/reputation", h.GetUserReputation).Methods(http.MethodGet)
	v1.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	return router
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// instrument labels metrics with the matched route template.
func instrument(next http.Handler) http.Handler {
	return metrics.InstrumentHandler(next, routeTemplate)
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tpl
}
