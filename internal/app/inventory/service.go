package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

// Service appends stock movements and price entries for ingredients and
// answers point-in-time balance queries. Appends are the only way stock or
// prices ever change; existing rows are never edited.
type Service struct {
	catalog interfaces.CatalogRepository
	logger  logger.Logger
	now     func() time.Time
}

func NewService(catalog interfaces.CatalogRepository, lgr logger.Logger) *Service {
	return &Service{catalog: catalog, logger: lgr, now: time.Now}
}

func (s *Service) AddMovements(ctx context.Context, cmd interfaces.AddMovementsCommand) error {
	if len(cmd.Movements) == 0 {
		return errors.New("at least one movement is required")
	}

	movements := make([]domain.StockMovement, 0, len(cmd.Movements))
	for i, in := range cmd.Movements {
		movement, err := parseMovement(in, s.now())
		if err != nil {
			return fmt.Errorf("movement %d: %w", i, err)
		}
		movements = append(movements, movement)
	}

	// the ingredient must exist; its ledgers are not needed here
	if _, err := s.catalog.FindIngredient(ctx, cmd.IngredientID); err != nil {
		return err
	}

	if err := s.catalog.SaveMovements(ctx, cmd.IngredientID, movements); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to save stock movements", "", nil, err)
		return err
	}

	s.logger.Debug("stock_moved", "Stock movements recorded", "", map[string]interface{}{
		"ingredient_id": cmd.IngredientID,
		"movements":     len(movements),
	})
	return nil
}

func (s *Service) AddPrices(ctx context.Context, cmd interfaces.AddPricesCommand) error {
	if len(cmd.Prices) == 0 {
		return errors.New("at least one price is required")
	}

	prices := make([]domain.PriceEntry, 0, len(cmd.Prices))
	for i, in := range cmd.Prices {
		amount, err := decimal.NewFromString(in.Amount)
		if err != nil {
			return fmt.Errorf("price %d: invalid amount %q", i, in.Amount)
		}
		if amount.IsNegative() {
			return fmt.Errorf("price %d: amount must not be negative", i)
		}
		date := in.EffectiveDate
		if date.IsZero() {
			date = s.now()
		}
		prices = append(prices, domain.PriceEntry{
			Amount:        amount,
			EffectiveDate: domain.DateOf(date),
		})
	}

	if _, err := s.catalog.FindIngredient(ctx, cmd.IngredientID); err != nil {
		return err
	}

	if err := s.catalog.SavePrices(ctx, cmd.IngredientID, prices); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to save prices", "", nil, err)
		return err
	}

	s.logger.Debug("prices_recorded", "Price entries recorded", "", map[string]interface{}{
		"ingredient_id": cmd.IngredientID,
		"prices":        len(prices),
	})
	return nil
}

func (s *Service) GetIngredientStock(ctx context.Context, ingredientID int64, at time.Time) (*interfaces.IngredientStockResponse, error) {
	ingredient, err := s.catalog.FindIngredient(ctx, ingredientID)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = s.now()
	}
	return &interfaces.IngredientStockResponse{
		IngredientID: ingredient.ID,
		Name:         ingredient.Name,
		Balance:      ingredient.AvailableQuantity(at).String(),
		LatestPrice:  ingredient.LatestPrice().String(),
		AsOf:         at,
	}, nil
}

func parseMovement(in interfaces.MovementInput, now time.Time) (domain.StockMovement, error) {
	movementType := domain.MovementType(in.Type)
	if movementType != domain.MovementIn && movementType != domain.MovementOut {
		return domain.StockMovement{}, fmt.Errorf("invalid movement type %q", in.Type)
	}

	quantity, err := decimal.NewFromString(in.Quantity)
	if err != nil {
		return domain.StockMovement{}, fmt.Errorf("invalid quantity %q", in.Quantity)
	}
	if !quantity.IsPositive() {
		return domain.StockMovement{}, fmt.Errorf("quantity must be positive, got %s", quantity)
	}

	at := in.At
	if at.IsZero() {
		at = now
	}
	return domain.StockMovement{
		Type:     movementType,
		Quantity: quantity,
		Unit:     domain.Unit(in.Unit),
		At:       at,
	}, nil
}
