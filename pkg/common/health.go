package common

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// HealthResponse represents health check response
type HealthResponse struct {
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// HealthCheck returns a liveness handler
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return HealthCheckWithDeps(serviceName, version, nil)
}

// HealthCheckWithDeps returns a health handler that runs every dependency
// check in parallel. Any failing check makes the response 503.
func HealthCheckWithDeps(serviceName, version string, checks map[string]func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			healthy = true
			results = make(map[string]string, len(checks))
		)

		for name, check := range checks {
			wg.Add(1)
			go func(name string, check func() error) {
				defer wg.Done()
				err := check()

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					results[name] = "unhealthy: " + err.Error()
					healthy = false
					return
				}
				results[name] = "healthy"
			}(name, check)
		}
		wg.Wait()

		resp := HealthResponse{
			Status:        "healthy",
			Service:       serviceName,
			Version:       version,
			UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		}
		if len(results) > 0 {
			resp.Checks = results
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
			resp.Status = "unhealthy"
		}
		c.JSON(status, resp)
	}
}
