package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fsdfsfssdf/gryflux/component"
	"github.com/fsdfsfssdf/gryflux/logger"
	"github.com/fsdfsfssdf/gryflux/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPipeline struct {
	name    string
	running bool
}

func (s *stubPipeline) Name() string                { return s.name }
func (s *stubPipeline) ProcessedItemCount() int64    { return 3 }
func (s *stubPipeline) ErrorCount() int64            { return 1 }
func (s *stubPipeline) InputSize() int               { return 2 }
func (s *stubPipeline) OutputSize() int              { return 0 }
func (s *stubPipeline) IsRunning() bool              { return s.running }
func (s *stubPipeline) TaskStatsSnapshot() map[string]struct {
	AvgMs float64
	Count int64
} {
	return map[string]struct {
		AvgMs float64
		Count int64
	}{
		"normalize": {AvgMs: 0.5, Count: 3},
		"count":     {AvgMs: 0.2, Count: 3},
	}
}

// testComponent wraps a *Server behind httptest.Server, implementing both
// component.Component and testutil.TestComponent the way the teacher's own
// server test harness does — see server/testutil/component.go.
type testComponent struct {
	pipeline *stubPipeline
	registry *component.Registry
	srv      *Server
	ts       *httptest.Server
	started  bool
	mu       sync.RWMutex
}

var _ component.Component = (*testComponent)(nil)
var _ testutil.TestComponent = (*testComponent)(nil)

func newTestComponent() *testComponent {
	pipeline := &stubPipeline{name: "test-pipeline", running: true}
	registry := component.NewRegistry()
	cfg := Config{Host: "127.0.0.1", Port: 0}
	return &testComponent{
		pipeline: pipeline,
		registry: registry,
		srv:      New(cfg, pipeline, registry, logger.GetGlobalLogger()),
	}
}

func (c *testComponent) Name() string { return "admin-test" }

func (c *testComponent) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("already started")
	}
	c.ts = httptest.NewServer(c.srv.engine)
	c.started = true
	return nil
}

func (c *testComponent) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.ts.Close()
	c.started = false
	return nil
}

func (c *testComponent) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *testComponent) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts != nil {
		c.ts.Close()
	}
	c.ts = httptest.NewServer(c.srv.engine)
	return nil
}

func (c *testComponent) Snapshot(_ context.Context) (interface{}, error) { return nil, nil }
func (c *testComponent) Restore(_ context.Context, _ interface{}) error { return nil }

func (c *testComponent) baseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ts.URL
}

func TestAdminServer_HealthzAndStats(t *testing.T) {
	ctx := context.Background()
	tc := newTestComponent()

	mgr := testutil.NewManager(ctx)
	mgr.Add(tc)
	if err := mgr.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	defer mgr.Cleanup()

	resp, err := http.Get(tc.baseURL() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var health map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", health["status"])
	}

	statsResp, err := http.Get(tc.baseURL() + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer statsResp.Body.Close()
	var stats map[string]interface{}
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["pipeline"] != "test-pipeline" {
		t.Errorf("expected pipeline name 'test-pipeline', got %v", stats["pipeline"])
	}
	if ids, ok := stats["task_ids"].([]interface{}); !ok || len(ids) != 2 {
		t.Errorf("expected 2 sorted task_ids, got %v", stats["task_ids"])
	}

	if err := mgr.ResetAll(); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
}
