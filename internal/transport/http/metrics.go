package http

import (
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const notFoundPath = "/not-found"

var requestBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}

// Metrics observes request durations by status code, method and route.
// Requests for skipPaths are not observed.
func Metrics(reg prometheus.Registerer, skipPaths ...string) echo.MiddlewareFunc {
	duration := promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chatsync",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent processing a route",
		Buckets:   requestBuckets,
	}, []string{"code", "method", "path"})

	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if skip[path] {
				return next(c)
			}

			// keep 404 cardinality bounded
			if isNotFoundHandler(c.Handler()) {
				path = notFoundPath
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			duration.WithLabelValues(strconv.Itoa(c.Response().Status), c.Request().Method, path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
