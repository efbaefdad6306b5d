package http

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/events"
)

// EventSubscriber hands out change event streams.
type EventSubscriber interface {
	Subscribe() (<-chan events.Event, func())
}

// DefaultHeartbeatInterval keeps idle event streams open through proxies.
const DefaultHeartbeatInterval = 30 * time.Second

type EventsController struct {
	bus       EventSubscriber
	heartbeat time.Duration
}

func NewEventsController(bus EventSubscriber, heartbeat time.Duration) *EventsController {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &EventsController{bus: bus, heartbeat: heartbeat}
}

// Stream sends change events as server-sent events until the client leaves.
// Clients reload their views on every "change" event.
// GET /api/events
func (ec *EventsController) Stream(c *gin.Context) {
	ch, cancel := ec.bus.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(ec.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.SSEvent("ready", gin.H{"at": time.Now().UTC()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", e)
			return true
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
