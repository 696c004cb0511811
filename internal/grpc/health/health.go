package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"guardian-audit/pkg/logger"
)

// ServiceName is the name the audit daemon reports health under
const ServiceName = "guardian.audit.v1.AuditService"

// DefaultInterval is how often dependencies are pinged
const DefaultInterval = 10 * time.Second

// Pinger is a dependency whose reachability gates serving status
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker keeps the gRPC health service in sync with its dependencies
type Checker struct {
	server   *grpchealth.Server
	deps     map[string]Pinger
	interval time.Duration
	logger   *logger.Logger
}

// NewChecker creates a checker. Nil dependencies are ignored so optional
// stores can be passed through unchanged.
func NewChecker(deps map[string]Pinger, interval time.Duration, log *logger.Logger) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	live := make(map[string]Pinger, len(deps))
	for name, dep := range deps {
		if dep != nil {
			live[name] = dep
		}
	}
	c := &Checker{
		server:   grpchealth.NewServer(),
		deps:     live,
		interval: interval,
		logger:   log.WithComponent("grpc-health"),
	}
	c.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	return c
}

// Register registers the health service with a gRPC server
func (c *Checker) Register(grpcServer *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(grpcServer, c.server)
}

// Run pings dependencies until ctx is cancelled, then reports NOT_SERVING
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check pings every dependency once and updates the serving status
func (c *Checker) Check(ctx context.Context) bool {
	healthy := true
	for name, dep := range c.deps {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := dep.Ping(pingCtx)
		cancel()
		if err != nil {
			c.logger.Warn().Err(err).Str("dependency", name).Msg("health check failed")
			healthy = false
		}
	}

	if healthy {
		c.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		c.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

func (c *Checker) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
}
