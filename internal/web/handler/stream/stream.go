// Package stream pushes per-user events to the browser as server-sent events.
package stream

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/events"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

// Path is the event stream endpoint.
const Path = handler.RootPath + "/stream"

const (
	defaultPingInterval = 25 * time.Second
	// clients reconnect after this, which also picks up revoked tokens
	defaultLifetime = 30 * time.Minute
)

// Service is the event stream handler service.
type Service struct {
	handler.Service
	broker       *events.Broker
	pingInterval time.Duration
	lifetime     time.Duration
}

// Handler is the event stream handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the route. EventSource cannot send headers, so the token
// may also be given as ?token=.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() || deps.Events == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.broker = deps.Events

	if s.pingInterval <= 0 {
		s.pingInterval = defaultPingInterval
	}

	if s.lifetime <= 0 {
		s.lifetime = defaultLifetime
	}

	app.Get(Path, auth.RequireAuthenticated(deps.Auth), s.Get)
}

// Get opens the stream of the caller. It starts with a connected event,
// relays published events and pings until the client goes away.
func (s *Service) Get(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	sub := s.broker.Subscribe(user.ID)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	userID := user.ID
	pingInterval := s.pingInterval
	lifetime := s.lifetime

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		deadline := time.NewTimer(lifetime)
		defer deadline.Stop()

		if err := write(w, events.Event{Name: events.Connected, Data: fiber.Map{"userId": userID}}); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}

				if err := write(w, ev); err != nil {
					log.Debug().Err(err).Str("userId", userID).Msg("event stream closed")
					return
				}
			case t := <-ping.C:
				if err := write(w, events.Event{Name: events.Ping, Data: fiber.Map{"time": t.UTC()}}); err != nil {
					return
				}
			case <-deadline.C:
				return
			}
		}
	}))

	return nil
}

func write(w *bufio.Writer, ev events.Event) error {
	frame, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("event", ev.Name).Msg("failed to encode event")
		return nil
	}

	if _, err := w.Write(frame); err != nil {
		return err
	}

	return w.Flush()
}
