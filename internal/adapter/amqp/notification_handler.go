package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(lgr logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: lgr,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.Reference),
		msg.Reference, map[string]interface{}{
			"reference":  msg.Reference,
			"subject":    msg.Subject,
			"new_status": msg.NewStatus,
		})

	if msg.Subject == "dish_line" {
		fmt.Printf("Notification for order %s: line %d changed from '%s' to '%s' by %s\n",
			msg.Reference, msg.LineID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
		return nil
	}

	fmt.Printf("Notification for order %s: status changed from '%s' to '%s' by %s\n",
		msg.Reference, msg.OldStatus, msg.NewStatus, msg.ChangedBy)

	return nil
}
