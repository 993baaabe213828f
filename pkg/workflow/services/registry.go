// Package services wires together the concrete collaborators the service
// registry hands out: aiModel, cacheService, performanceMonitor, and the
// deterministic per-agent backend assignment. HealthCheck probes a backend
// with grpc-go's precompiled health/grpc_health_v1 client; ServicesFor does
// not call it.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/services/aimodel"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/services/breaker"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/services/cache"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/services/perfmon"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// Backend is one entry of the per-agent endpoint assignment map:
// "agentName -> {endpoint, deployment}".
type Backend struct {
	Endpoint   string
	Deployment string
}

// DefaultAssignment is the fallback backend used for any agent name not
// present in a Registry's explicit assignment map.
var DefaultAssignment = Backend{Endpoint: "", Deployment: "default"}

// Registry is the concrete service-registry collaborator: it constructs
// and holds the shared aiModel/cacheService/performanceMonitor
// instances and resolves per-agent backend assignment.
type Registry struct {
	mu          sync.RWMutex
	aiModel     agent.AIModel
	cache       agent.Cache
	perfMonitor agent.PerformanceMonitor
	assignments map[state.AgentName]Backend
}

// NewRegistry builds a Registry from already-constructed collaborators.
// Callers build aiModel/cache/perfMonitor themselves (aimodel.New,
// cache.New, perfmon.New) so test code can substitute fakes without this
// package depending on test doubles.
func NewRegistry(aiModel agent.AIModel, c agent.Cache, pm agent.PerformanceMonitor) *Registry {
	return &Registry{
		aiModel:     aiModel,
		cache:       c,
		perfMonitor: pm,
		assignments: make(map[state.AgentName]Backend),
	}
}

// AssignBackend records the deterministic agentName -> {endpoint,
// deployment} mapping for name.
func (r *Registry) AssignBackend(name state.AgentName, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[name] = b
}

// BackendFor resolves name's assigned backend, or DefaultAssignment if
// none was configured.
func (r *Registry) BackendFor(name state.AgentName) Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.assignments[name]; ok {
		return b
	}
	return DefaultAssignment
}

// ServicesFor builds the agent.Services bundle handed to a given agent's
// Context, resolving that agent's assigned backend via BackendFor and
// carrying it through as agent.Services.Backend so an agent that routes its
// own AI calls (rather than relying solely on the shared aiModel) knows
// which endpoint/deployment it was assigned.
func (r *Registry) ServicesFor(name state.AgentName) agent.Services {
	b := r.BackendFor(name)
	return agent.Services{
		AIModel:            r.aiModel,
		Cache:              r.cache,
		PerformanceMonitor: r.perfMonitor,
		Backend:            agent.Backend{Endpoint: b.Endpoint, Deployment: b.Deployment},
	}
}

// HealthCheck probes a gRPC backend's health endpoint using grpc-go's
// bundled health/grpc_health_v1 client — no .proto compilation required,
// since the stub ships inside the grpc-go module itself. Callers invoke it
// themselves; ServicesFor hands out an agent's endpoint without probing it.
func HealthCheck(ctx context.Context, endpoint string, timeout time.Duration) error {
	if endpoint == "" {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("services: dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)
	resp, err := client.Check(dialCtx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("services: health check %s: %w", endpoint, err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("services: backend %s not serving (status=%s)", endpoint, resp.Status)
	}
	return nil
}

// breakeredAIModel wraps an agent.AIModel so a misbehaving language-model
// backend degrades (ErrOpen) instead of stalling every pathway that shares
// it across concurrent agent calls.
type breakeredAIModel struct {
	inner agent.AIModel
	cb    *breaker.Breaker
}

func (b *breakeredAIModel) Complete(ctx context.Context, prompt string) (string, error) {
	return b.cb.Call(ctx, func(ctx context.Context) (string, error) {
		return b.inner.Complete(ctx, prompt)
	})
}

// NewDefaultAIModel, NewDefaultCache, and NewDefaultPerformanceMonitor are
// thin conveniences so cmd/ binaries don't need to import the leaf
// packages directly. The AI model is wrapped in a circuit breaker named
// after its provider.
func NewDefaultAIModel(cfg aimodel.Config) (agent.AIModel, error) {
	m, err := aimodel.New(cfg)
	if err != nil {
		return nil, err
	}
	return &breakeredAIModel{inner: m, cb: breaker.New("aiModel:" + string(cfg.Provider))}, nil
}

func NewDefaultCache(addr string) agent.Cache {
	return cache.New(addr)
}

func NewDefaultPerformanceMonitor(reg prometheus.Registerer) agent.PerformanceMonitor {
	return perfmon.New(reg)
}
