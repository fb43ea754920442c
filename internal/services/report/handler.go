package report

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ordernow/internal/apperrors"
	"ordernow/internal/logger"
	"ordernow/internal/web"
)

// Handler handles HTTP requests for restaurant reports
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new report handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the report routes
func (h *Handler) Register(r chi.Router) {
	r.Route("/restaurants/{restaurant_id}/reports", func(r chi.Router) {
		r.Get("/customer-spends", h.CustomerSpends)
		r.Get("/item-popularity", h.ItemPopularity)
		r.Get("/customer-favorites", h.CustomerFavorites)
	})
}

type reportFunc func(actorID, restaurantID int64, r *http.Request) (json.RawMessage, error)

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, fn reportFunc) {
	user, ok := web.UserFromContext(r.Context())
	if !ok {
		web.ErrorMessage(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	restaurantID, err := strconv.ParseInt(chi.URLParam(r, "restaurant_id"), 10, 64)
	if err != nil {
		web.Error(w, apperrors.ErrNotFound)
		return
	}

	payload, err := fn(user.ID, restaurantID, r)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.Success(w, http.StatusOK, json.RawMessage(payload))
}

// CustomerSpends handles GET /restaurants/{restaurant_id}/reports/customer-spends
func (h *Handler) CustomerSpends(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(actorID, restaurantID int64, r *http.Request) (json.RawMessage, error) {
		return h.service.CustomerSpends(r.Context(), actorID, restaurantID,
			r.URL.Query().Get("from_date"), r.URL.Query().Get("to_date"))
	})
}

// ItemPopularity handles GET /restaurants/{restaurant_id}/reports/item-popularity
func (h *Handler) ItemPopularity(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(actorID, restaurantID int64, r *http.Request) (json.RawMessage, error) {
		return h.service.ItemPopularity(r.Context(), actorID, restaurantID)
	})
}

// CustomerFavorites handles GET /restaurants/{restaurant_id}/reports/customer-favorites
func (h *Handler) CustomerFavorites(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(actorID, restaurantID int64, r *http.Request) (json.RawMessage, error) {
		return h.service.CustomerFavorites(r.Context(), actorID, restaurantID)
	})
}
