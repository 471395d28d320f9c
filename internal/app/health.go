package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker struct {
	infra Infrastructure
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		infra: infra,
	}
}

type dependencyStatus struct {
	name string
	err  error
}

func (h *HealthChecker) check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	results := make(chan dependencyStatus, 2)

	go func() {
		results <- dependencyStatus{name: "postgres", err: h.infra.Postgres().Ping(ctx)}
	}()

	go func() {
		results <- dependencyStatus{name: "redis", err: h.infra.Redis().Ping(ctx)}
	}()

	checks := make(map[string]string, 2)
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			checks[res.name] = res.err.Error()
		} else {
			checks[res.name] = "pass"
		}
	}

	return checks
}

func (h *HealthChecker) Handler(c *gin.Context) {
	checks := h.check(c.Request.Context())

	status := "pass"
	code := http.StatusOK
	for _, result := range checks {
		if result != "pass" {
			status = "fail"
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
	})
}
