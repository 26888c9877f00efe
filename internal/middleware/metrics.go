package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// RequestObserver records one finished HTTP request.
type RequestObserver interface {
	Observe(method, route string, status int, seconds float64)
}

// Metrics reports every request to observer labelled by its registered route.
// Requests without a route are reported under "unmatched".
func Metrics(observer RequestObserver, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			observer.Observe(c.Request().Method, route, StatusOf(c, err), time.Since(start).Seconds())

			return err
		}
	}
}
