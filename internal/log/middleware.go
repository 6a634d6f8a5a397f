package log

import (
	"errors"
	"time"

	"conseilweb/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"
	localLogger     = "logger"
	localRequestID  = "request_id"
)

// Middleware assigns every request an ID, exposes a request-scoped logger
// through FromCtx and writes one access line per request. A panicking handler
// is logged as a 500 and the panic is passed on to the recover middleware.
func Middleware() fiber.Handler {
	access := WithComponent("http")
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)
		c.Locals(localRequestID, rid)

		l := access.With().Str("request_id", rid).Logger()
		c.Locals(localLogger, &l)
		c.SetUserContext(l.WithContext(c.UserContext()))

		defer func() {
			r := recover()

			status := c.Response().StatusCode()
			if r != nil || err != nil {
				status = fiber.StatusInternalServerError
				var fe *fiber.Error
				if r == nil && errors.As(err, &fe) {
					status = fe.Code
				}
			}

			var ev *zerolog.Event
			switch {
			case r != nil:
				ev = l.Error().Interface("panic", r)
			case status >= 500:
				ev = l.Error().Err(err)
			case status >= 400:
				ev = l.Warn()
			default:
				ev = l.Info()
			}
			ev = ev.Str("method", c.Method()).
				Str("path", c.Path()).
				Int("status", status).
				Float64("latency_ms", float64(time.Since(start).Microseconds())/1000)
			if src, ok := c.Locals(policy.LocalRedirect).(string); ok {
				ev = ev.Str("redirect", src)
			}
			ev.Msg("request")

			if r != nil {
				panic(r)
			}
		}()

		return c.Next()
	}
}

// FromCtx returns the request-scoped logger, or the base logger when the
// middleware did not run.
func FromCtx(c *fiber.Ctx) *zerolog.Logger {
	if l, ok := c.Locals(localLogger).(*zerolog.Logger); ok {
		return l
	}
	l := Base()
	return &l
}

// RequestID returns the ID assigned to the request by Middleware.
func RequestID(c *fiber.Ctx) string {
	rid, _ := c.Locals(localRequestID).(string)
	return rid
}
