package middleware

import (
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/metrics"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records every request by method, matched route and status
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, route, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
