package config

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/flemzord/tgflow/internal/core"
)

var workflowIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Validate checks the structural validity of a Config.
// It verifies the version field and every section, and checks that all
// referenced node and credential types exist in the registry. All problems
// are reported at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateBaseURL(cfg)...)
	errs = append(errs, validateLog(cfg.Log)...)
	errs = append(errs, validateGateway(cfg.Gateway)...)
	errs = append(errs, validateTelegram(cfg.Telegram)...)
	errs = append(errs, validateStore(cfg.Store)...)
	errs = append(errs, validateReconcile(cfg.Reconcile)...)
	errs = append(errs, validateCredentials(cfg.Credentials)...)
	errs = append(errs, validateWorkflows(cfg)...)
	errs = append(errs, validateTriggerBindings(cfg)...)

	return errors.Join(errs...)
}

func validateBaseURL(cfg *Config) []error {
	if cfg.BaseURL == "" {
		if len(ActiveWorkflows(cfg)) > 0 {
			return []error{errors.New("config: base_url is required when workflows are active")}
		}
		return nil
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return []error{fmt.Errorf("config: base_url %q must be an absolute http(s) URL", cfg.BaseURL)}
	}
	return nil
}

func validateLog(l LogConfig) []error {
	var errs []error
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, l.Level) {
		errs = append(errs, fmt.Errorf("config: log.level %q must be debug, info, warn or error", l.Level))
	}
	if l.Format != "text" && l.Format != "json" {
		errs = append(errs, fmt.Errorf("config: log.format %q must be text or json", l.Format))
	}
	return errs
}

func validateGateway(g GatewayConfig) []error {
	if _, err := net.ResolveTCPAddr("tcp", g.Bind); err != nil {
		return []error{fmt.Errorf("config: gateway.bind: invalid address %q", g.Bind)}
	}
	return nil
}

func validateTelegram(t TelegramConfig) []error {
	if t.APIURL == "" {
		return nil
	}
	u, err := url.Parse(t.APIURL)
	if err != nil || u.Host == "" {
		return []error{fmt.Errorf("config: telegram.api_url %q must be an absolute URL", t.APIURL)}
	}
	return nil
}

func validateStore(s StoreConfig) []error {
	var errs []error
	switch s.Driver {
	case "sqlite":
		if s.Path == "" {
			errs = append(errs, errors.New("config: store.path is required for the sqlite driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("config: store.driver %q must be sqlite or memory", s.Driver))
	}
	if s.Retain < 0 {
		errs = append(errs, errors.New("config: store.retain must not be negative"))
	}
	return errs
}

func validateReconcile(r ReconcileConfig) []error {
	if r.Disabled {
		return nil
	}
	if _, err := cron.ParseStandard(r.Schedule); err != nil {
		return []error{fmt.Errorf("config: reconcile.schedule %q: %w", r.Schedule, err)}
	}
	return nil
}

func validateCredentials(creds map[string]CredentialConfig) []error {
	var errs []error
	for name, c := range creds {
		if _, err := core.LookupCredential(c.Type); err != nil {
			errs = append(errs, fmt.Errorf("config: credential %q: %w", name, err))
		}
	}
	return errs
}

func validateWorkflows(cfg *Config) []error {
	var errs []error
	seen := make(map[string]bool, len(cfg.Workflows))

	for i, w := range cfg.Workflows {
		label := fmt.Sprintf("workflows[%d]", i)
		if w.ID != "" {
			label = fmt.Sprintf("workflow %q", w.ID)
		}

		switch {
		case w.ID == "":
			errs = append(errs, fmt.Errorf("config: %s: id is required", label))
		case !workflowIDPattern.MatchString(w.ID):
			errs = append(errs, fmt.Errorf("config: %s: id must match %s", label, workflowIDPattern))
		case seen[w.ID]:
			errs = append(errs, fmt.Errorf("config: %s: duplicate id", label))
		}
		seen[w.ID] = true

		if w.Trigger.Type == "" {
			errs = append(errs, fmt.Errorf("config: %s: trigger.type is required", label))
		} else if _, err := core.LookupTrigger(w.Trigger.Type); err != nil {
			errs = append(errs, fmt.Errorf("config: %s: trigger: %w", label, err))
		}
		errs = append(errs, validateNodeCredentials(cfg, label+" trigger", w.Trigger)...)

		for j, n := range w.Nodes {
			nodeLabel := fmt.Sprintf("%s nodes[%d]", label, j)
			if _, err := core.LookupExecutor(n.Type); err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", nodeLabel, err))
			}
			errs = append(errs, validateNodeCredentials(cfg, nodeLabel, n)...)
		}
	}
	return errs
}

// validateTriggerBindings rejects active triggers that share a credential.
// A bot keeps a single webhook URL, so two triggers on the same token would
// keep overwriting each other's registration. Credentials are compared by
// name and by their secret values.
func validateTriggerBindings(cfg *Config) []error {
	var errs []error
	owners := make(map[string]string)

	for _, w := range ActiveWorkflows(cfg) {
		types := slices.Sorted(maps.Keys(w.Trigger.Credentials))
		for _, credType := range types {
			name := w.Trigger.Credentials[credType]
			c, ok := cfg.Credentials[name]
			if !ok {
				continue
			}
			key := credentialIdentity(name, c)
			if owner, taken := owners[key]; taken && owner != w.ID {
				errs = append(errs, fmt.Errorf("config: workflow %q trigger: credential %q is already bound by the trigger of active workflow %q", w.ID, name, owner))
				continue
			}
			owners[key] = w.ID
		}
	}
	return errs
}

// credentialIdentity keys a credential by its type and data so that two
// names holding the same token collide. Credentials without data fall back
// to their name.
func credentialIdentity(name string, c CredentialConfig) string {
	if len(c.Data) == 0 {
		return c.Type + "\x00name\x00" + name
	}
	var b strings.Builder
	b.WriteString(c.Type)
	for _, k := range slices.Sorted(maps.Keys(c.Data)) {
		b.WriteString("\x00")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.Data[k])
	}
	return b.String()
}

// validateNodeCredentials checks that every credential the node binds
// exists with the expected type, and that required credentials are bound.
func validateNodeCredentials(cfg *Config, label string, n NodeConfig) []error {
	var errs []error
	for credType, name := range n.Credentials {
		c, ok := cfg.Credentials[name]
		if !ok {
			errs = append(errs, fmt.Errorf("config: %s: unknown credential %q", label, name))
			continue
		}
		if c.Type != credType {
			errs = append(errs, fmt.Errorf("config: %s: credential %q has type %q, want %q", label, name, c.Type, credType))
		}
	}

	nt, err := core.LookupNode(n.Type)
	if err != nil {
		return errs
	}
	for _, ref := range nt.Description().Credentials {
		if _, ok := n.Credentials[ref.Name]; ref.Required && !ok {
			errs = append(errs, fmt.Errorf("config: %s: credential of type %q is required", label, ref.Name))
		}
	}
	return errs
}
