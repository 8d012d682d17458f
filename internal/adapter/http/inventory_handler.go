package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type InventoryHandler struct {
	service interfaces.InventoryService
	logger  logger.Logger
}

func NewInventoryHandler(service interfaces.InventoryService, lgr logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  lgr,
	}
}

type MovementRequest struct {
	Type     string    `json:"type"`
	Quantity string    `json:"quantity"`
	Unit     string    `json:"unit"`
	At       time.Time `json:"at,omitempty"`
}

type PriceRequest struct {
	Amount        string    `json:"amount"`
	EffectiveDate time.Time `json:"effective_date,omitempty"`
}

// HandleIngredients routes everything under /ingredients:
//
//	POST /ingredients/{id}/movements
//	POST /ingredients/{id}/prices
//	GET  /ingredients/{id}/stock?at=RFC3339
func (h *InventoryHandler) HandleIngredients(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		respondError(w, "Not found", http.StatusNotFound, nil)
		return
	}

	ingredientID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		respondError(w, "Invalid ingredient id", http.StatusBadRequest, nil)
		return
	}

	switch parts[2] {
	case "movements":
		h.addMovements(w, r, ingredientID)
	case "prices":
		h.addPrices(w, r, ingredientID)
	case "stock":
		h.getStock(w, r, ingredientID)
	default:
		respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

func (h *InventoryHandler) addMovements(w http.ResponseWriter, r *http.Request, ingredientID int64) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req []MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	cmd := interfaces.AddMovementsCommand{IngredientID: ingredientID}
	for _, m := range req {
		cmd.Movements = append(cmd.Movements, interfaces.MovementInput{
			Type:     m.Type,
			Quantity: m.Quantity,
			Unit:     m.Unit,
			At:       m.At,
		})
	}

	if err := h.service.AddMovements(r.Context(), cmd); err != nil {
		h.logger.Error("movements_rejected", "Failed to record stock movements", "", nil, err)
		respondError(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *InventoryHandler) addPrices(w http.ResponseWriter, r *http.Request, ingredientID int64) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req []PriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	cmd := interfaces.AddPricesCommand{IngredientID: ingredientID}
	for _, p := range req {
		cmd.Prices = append(cmd.Prices, interfaces.PriceInput{
			Amount:        p.Amount,
			EffectiveDate: p.EffectiveDate,
		})
	}

	if err := h.service.AddPrices(r.Context(), cmd); err != nil {
		h.logger.Error("prices_rejected", "Failed to record prices", "", nil, err)
		respondError(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *InventoryHandler) getStock(w http.ResponseWriter, r *http.Request, ingredientID int64) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, "Invalid 'at' timestamp, expected RFC3339", http.StatusBadRequest, nil)
			return
		}
		at = parsed
	}

	stock, err := h.service.GetIngredientStock(r.Context(), ingredientID, at)
	if err != nil {
		respondError(w, "Ingredient not found", http.StatusNotFound, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ingredient_id": stock.IngredientID,
		"name":          stock.Name,
		"balance":       stock.Balance,
		"latest_price":  stock.LatestPrice,
		"as_of":         stock.AsOf,
	})
}
