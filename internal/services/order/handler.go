package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ordernow/internal/apperrors"
	"ordernow/internal/logger"
	"ordernow/internal/models"
	"ordernow/internal/web"
)

// Handler handles HTTP requests for the order service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the order routes
func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.PlaceOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{order_id}", h.GetOrder)
	r.Patch("/orders/{order_id}", h.UpdateStatus)
	r.Get("/restaurants/{restaurant_id}/orders", h.ListRestaurantOrders)
}

// PlaceOrder handles POST /orders
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestIDFromContext(r.Context())

	user, ok := web.UserFromContext(r.Context())
	if !ok {
		web.ErrorMessage(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	var req models.PlaceOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Debug("validation_failed", "Failed to parse request body", requestID, map[string]interface{}{
			"error": err.Error(),
		})
		web.Error(w, apperrors.NewValidation("items", "Invalid JSON format"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.service.PlaceOrder(ctx, user.ID, &req, requestID)
	if err != nil {
		h.logger.Debug("order_placement_failed", "Order placement rejected", requestID, map[string]interface{}{
			"customer_id": user.ID,
			"error":       err.Error(),
		})
		web.Error(w, err)
		return
	}

	web.Success(w, http.StatusCreated, order)
}

// GetOrder handles GET /orders/{order_id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := web.UserFromContext(r.Context())
	if !ok {
		web.ErrorMessage(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		web.Error(w, apperrors.ErrNotFound)
		return
	}

	order, err := h.service.GetOrder(r.Context(), user.ID, orderID)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.Success(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /orders/{order_id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestIDFromContext(r.Context())

	user, ok := web.UserFromContext(r.Context())
	if !ok {
		web.ErrorMessage(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		web.Error(w, apperrors.ErrNotFound)
		return
	}

	var req models.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, apperrors.NewValidation("status", "Invalid JSON format"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.service.UpdateStatus(ctx, user.ID, orderID, req.Status, requestID)
	if err != nil {
		h.logger.Debug("status_update_failed", "Order status update rejected", requestID, map[string]interface{}{
			"order_id": orderID,
			"actor_id": user.ID,
			"error":    err.Error(),
		})
		web.Error(w, err)
		return
	}

	web.Success(w, http.StatusOK, order)
}

// ListOrders handles GET /orders — the actor's own orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := web.UserFromContext(r.Context())
	if !ok {
		web.ErrorMessage(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), user.ID, 0)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.Success(w, http.StatusOK, orders)
}

// ListRestaurantOrders handles GET /restaurants/{restaurant_id}/orders —
// owner view of a restaurant's orders
func (h *Handler) ListRestaurantOrders(w http.ResponseWriter, r *http.Request) {
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

	orders, err := h.service.ListOrders(r.Context(), user.ID, restaurantID)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.Success(w, http.StatusOK, orders)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.service.HealthCheck(ctx)

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}
