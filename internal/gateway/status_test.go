package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/flemzord/tgflow/internal/host"
	"github.com/flemzord/tgflow/internal/telemetry"
)

func TestMetrics_Snapshot(t *testing.T) {
	t.Parallel()

	m := &Metrics{}
	m.RecordDelivery()
	m.RecordDelivery()
	m.RecordRejected()
	m.RecordFailure()

	snap := m.Snapshot()
	if snap.Deliveries != 2 || snap.Rejected != 1 || snap.Failures != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{workflows: []host.WorkflowStatus{{ID: "a"}, {ID: "b"}}}
	g := newTestGateway(t, Options{Host: rt, Feed: NewFeed(testLogger())})
	g.metrics.RecordDelivery()

	rr := do(t, g.Handler(), http.MethodGet, "/status", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Workflows != 2 || resp.Metrics.Deliveries != 1 || resp.Subscribers != 0 {
		t.Errorf("status = %+v", resp)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	t.Parallel()

	prom := telemetry.NewMetrics()
	g := newTestGateway(t, Options{Metrics: prom})

	do(t, g.Handler(), http.MethodPost, "/webhook/wf/webhook", []byte(`{`), false)

	rr := do(t, g.Handler(), http.MethodGet, "/metrics", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `tgflow_webhook_deliveries_total{outcome="rejected",workflow="wf"} 1`) {
		t.Error("rejected delivery not exported")
	}
}
