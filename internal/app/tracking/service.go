package tracking

import (
	"context"
	"time"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

// Service is the read-only query surface over orders, dishes and workers.
type Service struct {
	orderRepo  interfaces.OrderRepository
	catalog    interfaces.CatalogRepository
	workerRepo interfaces.WorkerRepository
	logger     logger.Logger
	now        func() time.Time
}

func NewService(
	orderRepo interfaces.OrderRepository,
	catalog interfaces.CatalogRepository,
	workerRepo interfaces.WorkerRepository,
	lgr logger.Logger,
) *Service {
	return &Service{
		orderRepo:  orderRepo,
		catalog:    catalog,
		workerRepo: workerRepo,
		logger:     lgr,
		now:        time.Now,
	}
}

func (s *Service) GetOrderStatus(ctx context.Context, reference string) (*interfaces.OrderStatusResponse, error) {
	order, err := s.orderRepo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.OrderStatusResponse{
		Reference:     order.Reference,
		CurrentStatus: order.CurrentStatus(),
		TotalAmount:   order.TotalAmount().String(),
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, interfaces.LineStatusResponse{
			LineID:        line.ID,
			DishName:      line.Dish.Name,
			Quantity:      line.Quantity,
			CurrentStatus: line.CurrentStatus(),
		})
	}
	return resp, nil
}

func (s *Service) GetOrderHistory(ctx context.Context, reference string) ([]domain.StatusEntry[domain.OrderStatus], error) {
	order, err := s.orderRepo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.StatusHistory(ctx, order.ID)
}

// GetDishInsights answers the costing queries for one dish: current
// ingredient cost, gross margin and how many units the present stock can
// produce.
func (s *Service) GetDishInsights(ctx context.Context, dishID int64) (*interfaces.DishInsights, error) {
	dish, err := s.catalog.FindDish(ctx, dishID)
	if err != nil {
		return nil, err
	}

	return &interfaces.DishInsights{
		DishID:         dish.ID,
		Name:           dish.Name,
		Price:          dish.Price.String(),
		IngredientCost: dish.TotalIngredientCost().String(),
		GrossMargin:    dish.GrossMargin().String(),
		MaxProducible:  dish.MaxProducible(s.now()),
	}, nil
}

func (s *Service) GetWorkersStatus(ctx context.Context) ([]*interfaces.WorkerStatusResponse, error) {
	workers, err := s.workerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// a worker that missed two heartbeat intervals is reported offline
	timeout := 60 * time.Second
	now := s.now()

	var resp []*interfaces.WorkerStatusResponse
	for _, w := range workers {
		status := w.Status
		if status == domain.WorkerOnline && !w.IsOnline(now, timeout) {
			status = domain.WorkerOffline
		}
		resp = append(resp, &interfaces.WorkerStatusResponse{
			WorkerName:     w.Name,
			Status:         status,
			OrdersPrepared: w.OrdersPrepared,
			LastSeen:       w.LastSeen,
		})
	}
	return resp, nil
}
