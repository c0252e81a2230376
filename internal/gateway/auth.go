package gateway

import (
	"net/http"
	"strings"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/security"
)

const authRealm = `tgflow admin`

// authMiddleware guards the admin routes with the bearer token or basic
// credentials from cfg. Every attempt is written to audit.
func authMiddleware(cfg config.AuthConfig, audit *security.AuditLogger) func(http.Handler) http.Handler {
	challenge := `Bearer realm="` + authRealm + `"`
	if cfg.BasicUser != "" && cfg.BasicPass != "" {
		challenge = `Basic realm="` + authRealm + `", charset="UTF-8"`
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method, ok := authenticate(cfg, r)
			if ok {
				emitAuthEvent(audit, security.EventAuthSuccess, r, method)
				next.ServeHTTP(w, r)
				return
			}

			emitAuthEvent(audit, security.EventAuthFailure, r, method)
			w.Header().Set("WWW-Authenticate", challenge)
			writeJSON(w, http.StatusUnauthorized, messageJSON{Message: "unauthorized"})
		})
	}
}

// authenticate reports which scheme accepted the request, or on failure
// why it was refused. Bearer is tried before basic.
func authenticate(cfg config.AuthConfig, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "missing authorization header", false
	}

	if cfg.BearerToken != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && security.SecretEqual(cfg.BearerToken, token) {
			return "bearer", true
		}
	}
	if cfg.BasicUser != "" && cfg.BasicPass != "" {
		user, pass, ok := r.BasicAuth()
		// Both halves are compared so timing does not reveal a valid user.
		userOK := security.SecretEqual(cfg.BasicUser, user)
		passOK := security.SecretEqual(cfg.BasicPass, pass)
		if ok && userOK && passOK {
			return "basic", true
		}
	}
	return "invalid credentials", false
}

func emitAuthEvent(audit *security.AuditLogger, eventType security.EventType, r *http.Request, detail string) {
	audit.Log(security.AuditEvent{
		Type:   eventType,
		Detail: detail,
		Metadata: map[string]string{
			"remote_addr": r.RemoteAddr,
			"method":      r.Method,
			"path":        r.URL.Path,
		},
	})
}
