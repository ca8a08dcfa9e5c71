package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/event"
	"github.com/ezshield/logrelay/http/api"
	"github.com/ezshield/logrelay/http/handler/util"

	"github.com/labstack/echo/v4"
)

// The EventsHandler type provides handler functions for streaming the
// events of the relay.
type EventsHandler struct {
	events    *event.PubSub
	keepalive time.Duration
}

// NewEvents returns a new EventsHandler type
func NewEvents(events *event.PubSub) *EventsHandler {
	return &EventsHandler{
		events:    events,
		keepalive: 5 * time.Second,
	}
}

// Events returns a stream of relay events
// @Summary Stream of relay events
// @Description Stream of the events of every step of the relay cycles
// @ID events
// @Accept json
// @Produce text/event-stream
// @Produce json-stream
// @Param filter body api.RelayEventFilter false "Event filter"
// @Success 200 {object} api.RelayEvent
// @Failure 400 {object} api.Error
// @Router /api/v1/events [post]
func (h *EventsHandler) Events(c echo.Context) error {
	filter := api.RelayEventFilter{}

	if err := util.ShouldBindJSON(c, &filter, true); err != nil {
		return api.Err(http.StatusBadRequest, "", "invalid filter: %s", err.Error())
	}

	req := c.Request()
	reqctx := req.Context()

	contentType := "text/event-stream"
	if strings.Contains(req.Header.Get(echo.HeaderAccept), "application/x-json-stream") {
		contentType = "application/x-json-stream"
	}

	evts, cancel := h.events.Subscribe(func(e event.Event) bool {
		re, ok := e.(*event.RelayEvent)
		if !ok {
			return false
		}

		return filter.Match(re)
	})
	defer cancel()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	res := c.Response()

	res.Header().Set(echo.HeaderContentType, contentType+"; charset=UTF-8")
	res.Header().Set(echo.HeaderCacheControl, "no-store")
	res.Header().Set(echo.HeaderConnection, "close")
	res.WriteHeader(http.StatusOK)

	sse := contentType == "text/event-stream"

	keepalive := func() {
		if sse {
			res.Write([]byte(":keepalive\n\n"))
		} else {
			res.Write([]byte("{\"event\": \"keepalive\"}\n"))
		}
		res.Flush()
	}

	keepalive()

	e := api.RelayEvent{}

	for {
		select {
		case <-reqctx.Done():
			return nil
		case <-ticker.C:
			keepalive()
		case evt, ok := <-evts:
			if !ok {
				return nil
			}

			if !e.Unmarshal(evt) {
				continue
			}

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}

			if sse {
				res.Write([]byte("event: " + e.Kind + "\ndata: "))
				res.Write(data)
				res.Write([]byte("\n\n"))
			} else {
				res.Write(data)
				res.Write([]byte("\n"))
			}
			res.Flush()
		}
	}
}
