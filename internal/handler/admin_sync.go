package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-search/internal/queue"
	queue_publisher "github.com/iliyamo/event-search/internal/service"
)

// AdminHandler holds the operator-facing endpoints.
type AdminHandler struct{}

// TriggerSync handles POST /v1/admin/sync: it enqueues a reconciliation
// request and returns immediately. The background consumer performs the run,
// so a slow sync never ties up an HTTP worker.
func (h *AdminHandler) TriggerSync(c echo.Context) error {
	ev := queue.SyncRequestedEvent{
		RequestedBy: userIDFrom(c),
		Reason:      c.QueryParam("reason"),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishSyncRequested(c.Request().Context(), ev); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "queue_unavailable"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "queued"})
}
