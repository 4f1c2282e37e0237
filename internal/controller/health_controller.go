package controller

import (
	"context"
	"sort"
	"time"

	"well-bot-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const serviceName = "well-bot-backend"

// HealthCheck probes one dependency. A nil check marks the dependency disabled.
type HealthCheck func(ctx context.Context) error

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Liveness(ctx *fiber.Ctx) error
	Readiness(ctx *fiber.Ctx) error
}

type healthController struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthController(checks map[string]HealthCheck) IHealthController {
	return &healthController{checks: checks, timeout: 2 * time.Second}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/healthz", c.Liveness)
	r.Get("/readyz", c.Readiness)
}

func (c *healthController) Liveness(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *healthController) Readiness(ctx *fiber.Ctx) error {
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := dto.ReadinessResponse{
		HealthResponse: dto.HealthResponse{
			Status:  "ready",
			Service: serviceName,
			Time:    time.Now().UTC().Format(time.RFC3339),
		},
		Checks: make(map[string]dto.DependencyStatus, len(c.checks)),
	}

	for _, name := range names {
		check := c.checks[name]
		if check == nil {
			res.Checks[name] = dto.DependencyStatus{Status: "disabled"}
			continue
		}
		cctx, cancel := context.WithTimeout(ctx.UserContext(), c.timeout)
		err := check(cctx)
		cancel()
		if err != nil {
			res.Status = "not_ready"
			res.Checks[name] = dto.DependencyStatus{Status: "unhealthy", Message: err.Error()}
			continue
		}
		res.Checks[name] = dto.DependencyStatus{Status: "healthy"}
	}

	status := fiber.StatusOK
	if res.Status != "ready" {
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(res)
}
