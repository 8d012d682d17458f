package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

// Service drives the order lifecycle against the persistence and messaging
// collaborators. The domain aggregate does the actual state-machine and
// stock-check work; the service loads it hydrated, hands it a clock, and
// persists whatever ledger entries the aggregate appended.
type Service struct {
	repo      interfaces.OrderRepository
	catalog   interfaces.CatalogRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	now       func() time.Time

	// confirmMu serializes confirmations. The stock check and the status
	// append form a check-then-act sequence with no reservation, so two
	// concurrent confirmations against the same ingredients could both
	// pass the check and over-commit stock.
	confirmMu sync.Mutex
}

func NewService(
	repo interfaces.OrderRepository,
	catalog interfaces.CatalogRepository,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		logger:    lgr,
		now:       time.Now,
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	if len(cmd.Lines) == 0 {
		return nil, errors.New("order must contain at least one line")
	}
	for _, line := range cmd.Lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("dish %d: quantity must be positive", line.DishID)
		}
	}

	reference := cmd.Reference
	if reference == "" {
		generated, err := s.repo.GenerateReference(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate order reference: %w", err)
		}
		reference = generated
	}

	now := s.now()
	order := domain.NewOrder(reference, now)
	for _, line := range cmd.Lines {
		dish, err := s.catalog.FindDish(ctx, line.DishID)
		if err != nil {
			return nil, fmt.Errorf("dish %d: %w", line.DishID, err)
		}
		if err := order.AddLine(domain.NewDishLine(dish, line.Quantity, now)); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}
	s.logger.Debug("order_created", "Order created", "", map[string]interface{}{
		"reference": order.Reference,
		"lines":     len(order.Lines),
	})

	return order, nil
}

// AddDishLine appends one line to an order that is still CREATED. The domain
// rejects the mutation once the order left CREATED.
func (s *Service) AddDishLine(ctx context.Context, reference string, cmd interfaces.CreateOrderLine) (*domain.Order, error) {
	if cmd.Quantity < 1 {
		return nil, fmt.Errorf("dish %d: quantity must be positive", cmd.DishID)
	}

	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	dish, err := s.catalog.FindDish(ctx, cmd.DishID)
	if err != nil {
		return nil, fmt.Errorf("dish %d: %w", cmd.DishID, err)
	}

	line := domain.NewDishLine(dish, cmd.Quantity, s.now())
	if err := order.AddLine(line); err != nil {
		return nil, err
	}

	if err := s.repo.AddLine(ctx, order, line); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to add order line", "", nil, err)
		return nil, err
	}
	s.logger.Debug("line_added", "Dish line added to order", "", map[string]interface{}{
		"reference": order.Reference,
		"dish_id":   dish.ID,
		"quantity":  cmd.Quantity,
	})
	return order, nil
}

// ConfirmOrder loads the hydrated aggregate, runs the confirmation protocol
// and persists the resulting status entries in one transaction. Process-wide
// mutual exclusion closes the check-then-act race between concurrent
// confirmations sharing ingredients.
func (s *Service) ConfirmOrder(ctx context.Context, reference string) (*domain.Order, error) {
	s.confirmMu.Lock()
	defer s.confirmMu.Unlock()

	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	skips, err := order.Confirm(s.now())
	if err != nil {
		var insufficient *domain.InsufficientIngredientsError
		if errors.As(err, &insufficient) {
			s.logger.Info("confirmation_blocked", "Order blocked by ingredient shortage", "", map[string]interface{}{
				"reference": reference,
				"shortages": len(insufficient.Shortages),
			})
		}
		return nil, err
	}
	s.logLineSkips(reference, skips)

	if err := s.repo.SaveStatuses(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to persist confirmation", "", nil, err)
		return nil, err
	}

	if err := s.publisher.PublishConfirmed(ctx, confirmedMessage(order)); err != nil {
		s.logger.Error("publish_failed", "Failed to publish confirmed order", "", nil, err)
		return nil, err
	}
	s.publishStatusUpdate(ctx, order.Reference, "order", 0, string(domain.OrderCreated), string(domain.OrderConfirmed))

	s.logger.Debug("order_confirmed", "Order confirmed", "", map[string]interface{}{
		"reference": order.Reference,
	})
	return order, nil
}

// AddLineStatus transitions one dish line; the aggregate reconciles the
// order-level status immediately afterwards.
func (s *Service) AddLineStatus(ctx context.Context, reference string, lineID int64, status domain.DishStatus) (*domain.Order, error) {
	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	before := order.CurrentStatus()
	skips, err := order.AddLineStatus(lineID, status, s.now())
	if err != nil {
		return nil, err
	}
	s.logLineSkips(reference, skips)

	if err := s.repo.SaveStatuses(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to persist line status", "", nil, err)
		return nil, err
	}

	s.publishStatusUpdate(ctx, reference, "dish_line", lineID, "", string(status))
	if after := order.CurrentStatus(); after != before {
		s.publishStatusUpdate(ctx, reference, "order", 0, string(before), string(after))
	}
	return order, nil
}

func (s *Service) logLineSkips(reference string, skips []domain.LineSkip) {
	for _, skip := range skips {
		s.logger.Info("line_status_skipped", "Dish line could not follow order transition", "", map[string]interface{}{
			"reference": reference,
			"line_id":   skip.LineID,
			"reason":    skip.Err.Error(),
		})
	}
}

func (s *Service) publishStatusUpdate(ctx context.Context, reference, subject string, lineID int64, oldStatus, newStatus string) {
	msg := interfaces.StatusUpdateMessage{
		Reference: reference,
		Subject:   subject,
		LineID:    lineID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: "order-service",
		Timestamp: s.now(),
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		// notifications are best effort
		s.logger.Error("publish_failed", "Failed to publish status update", "", nil, err)
	}
}

func confirmedMessage(order *domain.Order) interfaces.OrderConfirmedMessage {
	msg := interfaces.OrderConfirmedMessage{
		OrderID:     order.ID,
		Reference:   order.Reference,
		TotalAmount: order.TotalAmount().String(),
	}
	for _, line := range order.Lines {
		msg.Lines = append(msg.Lines, interfaces.ConfirmedLine{
			LineID:   line.ID,
			DishID:   line.Dish.ID,
			DishName: line.Dish.Name,
			Quantity: line.Quantity,
		})
	}
	return msg
}
