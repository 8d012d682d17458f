package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, lgr logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  lgr,
	}
}

// HandleOrders serves GET /orders/{reference}/status and
// GET /orders/{reference}/history.
func (h *TrackingHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		respondError(w, "Not found", http.StatusNotFound, nil)
		return
	}

	reference := parts[1]
	switch parts[2] {
	case "status":
		h.getOrderStatus(w, r, reference)
	case "history":
		h.getOrderHistory(w, r, reference)
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *TrackingHandler) getOrderStatus(w http.ResponseWriter, r *http.Request, reference string) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	result, err := h.service.GetOrderStatus(r.Context(), reference)
	if err != nil {
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}

	lines := make([]map[string]interface{}, len(result.Lines))
	for i, line := range result.Lines {
		lines[i] = map[string]interface{}{
			"line_id":        line.LineID,
			"dish_name":      line.DishName,
			"quantity":       line.Quantity,
			"current_status": line.CurrentStatus,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reference":      result.Reference,
		"current_status": result.CurrentStatus,
		"total_amount":   result.TotalAmount,
		"lines":          lines,
	})
}

func (h *TrackingHandler) getOrderHistory(w http.ResponseWriter, r *http.Request, reference string) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	history, err := h.service.GetOrderHistory(r.Context(), reference)
	if err != nil {
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}

	resp := make([]map[string]interface{}, len(history))
	for i, entry := range history {
		resp[i] = map[string]interface{}{
			"status":    entry.Status,
			"seq":       entry.Seq,
			"timestamp": entry.At,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// HandleDishes serves GET /dishes/{id}/insights.
func (h *TrackingHandler) HandleDishes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "insights" {
		respondError(w, "Not found", http.StatusNotFound, nil)
		return
	}

	dishID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		respondError(w, "Invalid dish id", http.StatusBadRequest, nil)
		return
	}

	insights, err := h.service.GetDishInsights(r.Context(), dishID)
	if err != nil {
		respondError(w, "Dish not found", http.StatusNotFound, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dish_id":         insights.DishID,
		"name":            insights.Name,
		"price":           insights.Price,
		"ingredient_cost": insights.IngredientCost,
		"gross_margin":    insights.GrossMargin,
		"max_producible":  insights.MaxProducible,
	})
}

func (h *TrackingHandler) GetWorkersStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	h.logger.Debug("request_received", "Workers status requested", "", nil)

	workers, err := h.service.GetWorkersStatus(r.Context())
	if err != nil {
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	resp := make([]map[string]interface{}, len(workers))
	for i, worker := range workers {
		resp[i] = map[string]interface{}{
			"worker_name":     worker.WorkerName,
			"status":          worker.Status,
			"orders_prepared": worker.OrdersPrepared,
			"last_seen":       worker.LastSeen,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
