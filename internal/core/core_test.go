package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// trackingComponent records lifecycle calls into a shared log.
type trackingComponent struct {
	id          string
	log         *[]string
	startErr    error
	validateErr error
}

func (c *trackingComponent) Validate() error { return c.validateErr }

func (c *trackingComponent) Start() error {
	*c.log = append(*c.log, "start:"+c.id)
	return c.startErr
}

func (c *trackingComponent) Stop(_ context.Context) error {
	*c.log = append(*c.log, "stop:"+c.id)
	return nil
}

func TestApp_StartStopOrder(t *testing.T) {
	var calls []string
	app := NewApp(nil)
	for _, id := range []string{"a", "b", "c"} {
		if err := app.Add(id, &trackingComponent{id: id, log: &calls}); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	app.Stop()

	want := "start:a,start:b,start:c,stop:c,stop:b,stop:a"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestApp_StartFailureStopsStarted(t *testing.T) {
	var calls []string
	app := NewApp(nil)
	_ = app.Add("a", &trackingComponent{id: "a", log: &calls})
	_ = app.Add("b", &trackingComponent{id: "b", log: &calls, startErr: errors.New("boom")})
	_ = app.Add("c", &trackingComponent{id: "c", log: &calls})

	err := app.Start()
	if err == nil {
		t.Fatal("expected start error")
	}
	if !strings.Contains(err.Error(), "starting component b") {
		t.Errorf("error = %v", err)
	}

	want := "start:a,start:b,stop:a"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestApp_AddValidates(t *testing.T) {
	var calls []string
	app := NewApp(nil)
	err := app.Add("bad", &trackingComponent{id: "bad", log: &calls, validateErr: errors.New("invalid")})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(app.components) != 0 {
		t.Errorf("invalid component was added")
	}
}

func TestApp_NonLifecycleComponentIgnored(t *testing.T) {
	app := NewApp(nil)
	if err := app.Add("plain", struct{}{}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	app.Stop()
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var calls []string
	app := NewApp(logger)
	_ = app.Add("a", &trackingComponent{id: "a", log: &calls})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if got := strings.Join(calls, ","); got != "start:a,stop:a" {
		t.Errorf("calls = %s", got)
	}
	if !strings.Contains(buf.String(), "shutdown complete") {
		t.Errorf("expected shutdown log, got: %s", buf.String())
	}
}
