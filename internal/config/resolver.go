package config

import (
	"cmp"
	"slices"
)

// ActiveWorkflows returns the workflows to activate, sorted by ID.
// The deterministic order ensures consistent activation.
func ActiveWorkflows(cfg *Config) []WorkflowConfig {
	out := make([]WorkflowConfig, 0, len(cfg.Workflows))
	for _, w := range cfg.Workflows {
		if w.IsActive() {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b WorkflowConfig) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// SecretValues returns every credential field value, for log redaction.
func SecretValues(cfg *Config) []string {
	var out []string
	for _, c := range cfg.Credentials {
		for _, v := range c.Data {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
