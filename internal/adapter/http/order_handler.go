package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, lgr logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  lgr,
	}
}

type CreateOrderRequest struct {
	Reference string             `json:"reference,omitempty"`
	Lines     []OrderLineRequest `json:"lines"`
}

type OrderLineRequest struct {
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
}

type OrderResponse struct {
	Reference   string              `json:"reference"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Lines       []LineResponse `json:"lines"`
}

type LineResponse struct {
	LineID   int64  `json:"line_id"`
	DishID   int64  `json:"dish_id"`
	DishName string `json:"dish_name"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

type ShortageResponse struct {
	IngredientID   int64  `json:"ingredient_id"`
	IngredientName string `json:"ingredient_name"`
	Missing        string `json:"missing"`
	BlockedDish    string `json:"blocked_dish"`
	BlockedUnits   int64  `json:"blocked_units"`
}

type ErrorResponse struct {
	Error     string             `json:"error"`
	Shortages []ShortageResponse `json:"shortages,omitempty"`
}

type AddLineStatusRequest struct {
	Status string `json:"status"`
}

// HandleOrders routes everything under /orders:
//
//	POST /orders
//	POST /orders/{reference}/lines
//	POST /orders/{reference}/confirm
//	POST /orders/{reference}/lines/{line_id}/status
func (h *OrderHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1:
		h.createOrder(w, r)
	case len(parts) == 3 && parts[2] == "confirm":
		h.confirmOrder(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "lines":
		h.addLine(w, r, parts[1])
	case len(parts) == 5 && parts[2] == "lines" && parts[4] == "status":
		h.addLineStatus(w, r, parts[1], parts[3])
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	cmd := interfaces.CreateOrderCommand{Reference: strings.TrimSpace(req.Reference)}
	for _, line := range req.Lines {
		cmd.Lines = append(cmd.Lines, interfaces.CreateOrderLine{
			DishID:   line.DishID,
			Quantity: line.Quantity,
		})
	}

	order, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", "", nil, err)
		respondError(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse(order))
}

func (h *OrderHandler) addLine(w http.ResponseWriter, r *http.Request, reference string) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req OrderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	order, err := h.service.AddDishLine(r.Context(), reference, interfaces.CreateOrderLine{
		DishID:   req.DishID,
		Quantity: req.Quantity,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderLocked) {
			respondError(w, err.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.logger.Error("line_rejected", "Failed to add order line", "", nil, err)
		respondError(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse(order))
}

func (h *OrderHandler) confirmOrder(w http.ResponseWriter, r *http.Request, reference string) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	order, err := h.service.ConfirmOrder(r.Context(), reference)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order))
}

func (h *OrderHandler) addLineStatus(w http.ResponseWriter, r *http.Request, reference, rawLineID string) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	lineID, err := strconv.ParseInt(rawLineID, 10, 64)
	if err != nil {
		respondError(w, "Invalid line id", http.StatusBadRequest, nil)
		return
	}

	var req AddLineStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	order, err := h.service.AddLineStatus(r.Context(), reference, lineID, domain.DishStatus(req.Status))
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order))
}

// respondOrderError maps domain errors onto HTTP statuses: a blocked
// confirmation is 409 with the itemized shortages, an illegal transition
// is 422, anything else is treated as a missing order.
func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientIngredientsError
	if errors.As(err, &insufficient) {
		shortages := make([]ShortageResponse, len(insufficient.Shortages))
		for i, s := range insufficient.Shortages {
			shortages[i] = ShortageResponse{
				IngredientID:   s.IngredientID,
				IngredientName: s.IngredientName,
				Missing:        s.Missing.String(),
				BlockedDish:    s.BlockedDish,
				BlockedUnits:   s.BlockedUnits,
			}
		}
		respondError(w, insufficient.Error(), http.StatusConflict, shortages)
		return
	}

	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrOrderLocked) {
		respondError(w, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}
	if errors.Is(err, domain.ErrLineNotFound) {
		respondError(w, err.Error(), http.StatusNotFound, nil)
		return
	}

	respondError(w, "Order not found", http.StatusNotFound, nil)
}

func orderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		Reference:   order.Reference,
		Status:      string(order.CurrentStatus()),
		TotalAmount: order.TotalAmount().String(),
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			LineID:   line.ID,
			DishID:   line.Dish.ID,
			DishName: line.Dish.Name,
			Quantity: line.Quantity,
			Status:   string(line.CurrentStatus()),
		})
	}
	return resp
}

func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, message string, statusCode int, shortages []ShortageResponse) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Shortages: shortages})
}
