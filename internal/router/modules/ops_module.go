package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/user-directory/pkg/response"
)

// OpsModule exposes /healthz and, when enabled, the Prometheus /metrics endpoint.
type OpsModule struct {
	Ping           func(ctx context.Context) error
	MetricsEnabled bool
}

func NewOpsModule(ping func(ctx context.Context) error, metricsEnabled bool) *OpsModule {
	return &OpsModule{Ping: ping, MetricsEnabled: metricsEnabled}
}

func (m *OpsModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.health)
	if m.MetricsEnabled {
		rg.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

func (m *OpsModule) health(c *gin.Context) {
	if m.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := m.Ping(ctx); err != nil {
			response.Error[any](c, http.StatusServiceUnavailable, "storage unavailable", response.ErrorBody{Code: "UNAVAILABLE"})
			return
		}
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "healthy", nil)
}
