package kitchen

import (
	"context"
	"fmt"
	"time"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

// Service is the kitchen worker: it consumes confirmed orders, moves them
// into preparation (which cascades to every dish line), finishes the lines
// one by one and lets upward reconciliation flip the order to FINISHED.
type Service struct {
	orderRepo         interfaces.OrderRepository
	workerRepo        interfaces.WorkerRepository
	publisher         interfaces.MessagePublisher
	logger            logger.Logger
	workerName        string
	prepPerUnit       time.Duration
	heartbeatInterval time.Duration
	now               func() time.Time
}

func NewService(
	orderRepo interfaces.OrderRepository,
	workerRepo interfaces.WorkerRepository,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	workerName string,
	prepSecondsPerUnit int,
	heartbeatIntervalSeconds int,
) *Service {
	return &Service{
		orderRepo:         orderRepo,
		workerRepo:        workerRepo,
		publisher:         publisher,
		logger:            lgr,
		workerName:        workerName,
		prepPerUnit:       time.Duration(prepSecondsPerUnit) * time.Second,
		heartbeatInterval: time.Duration(heartbeatIntervalSeconds) * time.Second,
		now:               time.Now,
	}
}

func (s *Service) Start(ctx context.Context) error {
	worker, err := s.workerRepo.FindByName(ctx, s.workerName)
	if err == nil {
		if worker.Status == domain.WorkerOnline {
			return fmt.Errorf("worker with name %s is already online", s.workerName)
		}
		worker.Heartbeat(s.now())
		if err := s.workerRepo.Update(ctx, worker); err != nil {
			return err
		}
	} else {
		worker, err = domain.NewWorker(s.workerName, s.now())
		if err != nil {
			return err
		}
		if err := s.workerRepo.Create(ctx, worker); err != nil {
			return err
		}
	}

	s.logger.Info("worker_registered", fmt.Sprintf("Worker %s registered", s.workerName), "", nil)

	go s.heartbeatLoop(ctx)

	return nil
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.workerRepo.UpdateHeartbeat(ctx, s.workerName); err != nil {
				s.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", nil, err)
			} else {
				s.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
			}
		}
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	worker, err := s.workerRepo.FindByName(ctx, s.workerName)
	if err != nil {
		return err
	}
	worker.SetOffline()
	return s.workerRepo.Update(ctx, worker)
}

// ProcessOrder prepares one confirmed order end to end.
func (s *Service) ProcessOrder(ctx context.Context, msg interfaces.OrderConfirmedMessage) error {
	s.logger.Debug("order_processing_started", fmt.Sprintf("Preparing order %s", msg.Reference), "", map[string]interface{}{
		"reference": msg.Reference,
	})

	order, err := s.orderRepo.FindByReference(ctx, msg.Reference)
	if err != nil {
		return err
	}

	// idempotency: redelivered messages for an order already in (or past)
	// preparation are dropped
	if order.CurrentStatus() != domain.OrderConfirmed {
		return nil
	}

	if err := s.startPreparation(ctx, order); err != nil {
		return err
	}

	for _, line := range order.Lines {
		prepTime := time.Duration(line.Quantity) * s.prepPerUnit
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(prepTime):
		}

		if err := s.finishLine(ctx, order, line); err != nil {
			return err
		}
	}

	if err := s.workerRepo.IncrementOrdersPrepared(ctx, s.workerName); err != nil {
		s.logger.Error("db_error", "Failed to increment worker stats", "", nil, err)
	}

	s.logger.Debug("order_prepared", fmt.Sprintf("Order %s prepared", msg.Reference), "", map[string]interface{}{
		"reference": msg.Reference,
		"status":    string(order.CurrentStatus()),
	})
	return nil
}

func (s *Service) startPreparation(ctx context.Context, order *domain.Order) error {
	skips, err := order.AddStatus(domain.OrderInPreparation, s.now())
	if err != nil {
		return err
	}
	for _, skip := range skips {
		s.logger.Info("line_status_skipped", "Dish line could not enter preparation", "", map[string]interface{}{
			"reference": order.Reference,
			"line_id":   skip.LineID,
			"reason":    skip.Err.Error(),
		})
	}

	if err := s.orderRepo.SaveStatuses(ctx, order); err != nil {
		return fmt.Errorf("failed to persist preparation start: %w", err)
	}

	s.notify(ctx, order.Reference, "order", 0, string(domain.OrderConfirmed), string(domain.OrderInPreparation))
	return nil
}

func (s *Service) finishLine(ctx context.Context, order *domain.Order, line *domain.DishLine) error {
	before := order.CurrentStatus()
	if _, err := order.AddLineStatus(line.ID, domain.DishFinished, s.now()); err != nil {
		return fmt.Errorf("failed to finish line %d: %w", line.ID, err)
	}

	if err := s.orderRepo.SaveStatuses(ctx, order); err != nil {
		return fmt.Errorf("failed to persist finished line: %w", err)
	}

	s.notify(ctx, order.Reference, "dish_line", line.ID, string(domain.DishInPreparation), string(domain.DishFinished))
	if after := order.CurrentStatus(); after != before {
		s.notify(ctx, order.Reference, "order", 0, string(before), string(after))
	}
	return nil
}

func (s *Service) notify(ctx context.Context, reference, subject string, lineID int64, oldStatus, newStatus string) {
	msg := interfaces.StatusUpdateMessage{
		Reference: reference,
		Subject:   subject,
		LineID:    lineID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: s.workerName,
		Timestamp: s.now(),
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("publish_failed", "Failed to publish status update", "", nil, err)
	}
}
