package http

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sandevgo/ragmemory/internal/metrics"
	"github.com/sandevgo/ragmemory/pkg/log"
)

// observe puts a request scoped logger into the request context, then logs
// and times the request once the response is committed.
func (s *Server) observe() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			logger := log.FromCtx(s.baseCtx).With().Str("request_id", requestID).Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			if err := next(c); err != nil {
				c.Error(err)
			}

			duration := time.Since(start)
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(req.Method, route, strconv.Itoa(status)).
				Observe(duration.Seconds())

			event := logger.Info()
			if status >= 500 {
				event = logger.Error()
			}
			event.
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("duration", duration).
				Msg("http request")
			return nil
		}
	}
}
