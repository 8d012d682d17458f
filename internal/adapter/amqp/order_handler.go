package amqp

import (
	"context"
	"encoding/json"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.KitchenService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.KitchenService, lgr logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  lgr,
	}
}

func (h *OrderHandler) HandleOrder(ctx context.Context, body []byte) error {
	var msg interfaces.OrderConfirmedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse confirmed order message", "", nil, err)
		return err
	}

	return h.service.ProcessOrder(ctx, msg)
}
