package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentTransport wraps base so every Bot API call is counted, timed and
// traced under its method name. The request URL carries the bot token and
// is never recorded.
func InstrumentTransport(base http.RoundTripper, m *Metrics, tracer trace.Tracer) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &instrumentedTransport{base: base, metrics: m, tracer: tracer}
}

type instrumentedTransport struct {
	base    http.RoundTripper
	metrics *Metrics
	tracer  trace.Tracer
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	method := APIMethod(req.URL.Path)

	ctx := req.Context()
	var span trace.Span
	if t.tracer != nil {
		ctx, span = t.tracer.Start(ctx, "telegram "+method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("telegram.method", method),
				attribute.String("server.address", req.URL.Hostname()),
			))
		defer span.End()
		req = req.WithContext(ctx)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	outcome := "error"
	if err == nil {
		outcome = strconv.Itoa(resp.StatusCode)
	}
	t.metrics.ObserveAPICall(method, outcome, elapsed)

	if span != nil {
		switch {
		case err != nil:
			span.SetStatus(codes.Error, "transport error")
		case resp.StatusCode >= http.StatusBadRequest:
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		default:
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		}
	}
	return resp, err
}

// APIMethod extracts the Bot API method from a request path:
// "/bot<token>/getMe" → "getMe", "/file/bot<token>/..." → "file".
func APIMethod(path string) string {
	path = strings.TrimPrefix(path, "/")
	if strings.HasPrefix(path, "file/bot") {
		return "file"
	}
	if !strings.HasPrefix(path, "bot") {
		return "other"
	}
	_, method, ok := strings.Cut(path, "/")
	if !ok || method == "" || strings.Contains(method, "/") {
		return "other"
	}
	return method
}
