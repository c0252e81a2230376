package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/flemzord/tgflow/internal/host"
	"github.com/flemzord/tgflow/modules/store/memory"
	"github.com/flemzord/tgflow/pkg/workflow"
)

func record(t *testing.T, s *memory.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.Record(context.Background(), host.Execution{ID: id, WorkflowID: "wf", Status: host.StatusSuccess}); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}
}

func ids(execs []host.Execution) []string {
	out := make([]string, len(execs))
	for i, e := range execs {
		out[i] = e.ID
	}
	return out
}

func TestStore_RecentNewestFirst(t *testing.T) {
	t.Parallel()

	s := memory.New(0)
	record(t, s, "a", "b", "c", "d")

	tests := []struct {
		limit int
		want  string
	}{
		{limit: 0, want: "[]"},
		{limit: 2, want: "[d c]"},
		{limit: 10, want: "[d c b a]"},
	}
	for _, tt := range tests {
		got, err := s.Recent(context.Background(), tt.limit)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if fmt.Sprint(ids(got)) != tt.want {
			t.Errorf("Recent(%d) = %v, want %s", tt.limit, ids(got), tt.want)
		}
	}
}

func TestStore_RecordReplacesID(t *testing.T) {
	t.Parallel()

	s := memory.New(0)
	record(t, s, "a", "b")
	if err := s.Record(context.Background(), host.Execution{ID: "a", Status: host.StatusError}); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Recent(context.Background(), 10)
	if fmt.Sprint(ids(got)) != "[a b]" {
		t.Errorf("Recent = %v, want [a b]", ids(got))
	}
	if got[0].Status != host.StatusError {
		t.Errorf("status = %s, want error", got[0].Status)
	}
}

func TestStore_Limit(t *testing.T) {
	t.Parallel()

	s := memory.New(3)
	record(t, s, "a", "b", "c", "d", "e")

	n, _ := s.Count(context.Background())
	if n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}
	if _, err := s.Get(context.Background(), "b"); !errors.Is(err, memory.ErrNotFound) {
		t.Errorf("Get(b) = %v, want ErrNotFound", err)
	}
}

func TestStore_Prune(t *testing.T) {
	t.Parallel()

	s := memory.New(0)
	record(t, s, "a", "b", "c", "d", "e")

	n, err := s.Prune(context.Background(), 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 3 {
		t.Errorf("pruned %d, want 3", n)
	}
	got, _ := s.Recent(context.Background(), 10)
	if fmt.Sprint(ids(got)) != "[e d]" {
		t.Errorf("Recent = %v, want [e d]", ids(got))
	}

	if n, _ := s.Prune(context.Background(), 5); n != 0 {
		t.Errorf("second prune = %d, want 0", n)
	}
}

func TestStore_ByWorkflow(t *testing.T) {
	t.Parallel()

	s := memory.New(0)
	ctx := context.Background()
	for i, wf := range []string{"x", "y", "x"} {
		_ = s.Record(ctx, host.Execution{ID: fmt.Sprint(i), WorkflowID: wf})
	}

	got, _ := s.ByWorkflow(ctx, "x", 10)
	if fmt.Sprint(ids(got)) != "[2 0]" {
		t.Errorf("ByWorkflow = %v, want [2 0]", ids(got))
	}
}

func TestStore_StripsBinaryData(t *testing.T) {
	t.Parallel()

	s := memory.New(0)
	ctx := context.Background()
	_ = s.Record(ctx, host.Execution{ID: "a", Items: []workflow.Item{{
		JSON:   []byte(`{}`),
		Binary: map[string]workflow.BinaryData{"data": {Data: []byte("x"), MimeType: "text/plain"}},
	}}})

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if b := got.Items[0].Binary["data"]; b.Data != nil || b.MimeType != "text/plain" {
		t.Errorf("binary = %+v", b)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := memory.New(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Record(ctx, host.Execution{ID: fmt.Sprint(i)})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Recent(ctx, 5)
		}()
	}
	wg.Wait()

	if n, _ := s.Count(ctx); n != 20 {
		t.Errorf("Count = %d, want 20", n)
	}
}
