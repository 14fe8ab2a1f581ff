package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports process liveness and backend reachability.
type HealthHandler struct {
	service string
	checks  map[string]func() error
}

func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service, checks: map[string]func() error{}}
}

// AddCheck registers a named backend probe, e.g. a database ping.
func (h *HealthHandler) AddCheck(name string, check func() error) {
	h.checks[name] = check
}

func (h *HealthHandler) Health(c echo.Context) error {
	status := http.StatusOK
	backends := map[string]string{}
	for name, check := range h.checks {
		if err := check(); err != nil {
			backends[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			backends[name] = "ok"
		}
	}

	body := echo.Map{
		"service": h.service,
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(backends) > 0 {
		body["backends"] = backends
	}
	return c.JSON(status, body)
}
