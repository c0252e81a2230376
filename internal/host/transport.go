package host

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/telemetry"
)

// publicAPIHost is the host nodes address; requests to it are redirected
// when a self-hosted Bot API server is configured.
const publicAPIHost = "api.telegram.org"

// NewHTTPClient builds the client handed to nodes. It applies the
// configured timeout, the optional Bot API URL override, and telemetry.
func NewHTTPClient(cfg config.TelegramConfig, metrics *telemetry.Metrics, tracer trace.Tracer) (*http.Client, error) {
	var base http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()

	if cfg.APIURL != "" {
		target, err := url.Parse(cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("host: telegram api_url: %w", err)
		}
		base = &apiRewriteTransport{base: base, target: target}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: telemetry.InstrumentTransport(base, metrics, tracer),
	}, nil
}

type apiRewriteTransport struct {
	base   http.RoundTripper
	target *url.URL
}

func (t *apiRewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != publicAPIHost {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.URL.Path = strings.TrimRight(t.target.Path, "/") + req.URL.Path
	r.URL.RawPath = ""
	r.Host = ""
	return t.base.RoundTrip(r)
}
