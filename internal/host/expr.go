package host

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// exprPattern matches {{ $json }} and {{ $json.some.path }}.
var exprPattern = regexp.MustCompile(`\{\{\s*\$json((?:\.[^\s{}]+)?)\s*\}\}`)

// resolveNode returns a copy of n with every {{ $json.path }} placeholder
// replaced by the value found at path in payload. A string that is exactly
// one placeholder takes the type of the referenced value; placeholders
// embedded in longer strings are interpolated as text. n is not modified.
func resolveNode(n *yaml.Node, payload []byte) (*yaml.Node, error) {
	out := *n
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" || !strings.Contains(n.Value, "{{") {
			return &out, nil
		}
		return resolveScalar(n, payload)
	case yaml.AliasNode:
		return &out, nil
	}

	out.Content = make([]*yaml.Node, len(n.Content))
	for i, child := range n.Content {
		r, err := resolveNode(child, payload)
		if err != nil {
			return nil, err
		}
		out.Content[i] = r
	}
	return &out, nil
}

func resolveScalar(n *yaml.Node, payload []byte) (*yaml.Node, error) {
	trimmed := strings.TrimSpace(n.Value)
	if m := exprPattern.FindStringSubmatch(trimmed); m != nil && m[0] == trimmed {
		return valueNode(lookup(payload, m[1]))
	}

	out := *n
	out.Value = exprPattern.ReplaceAllStringFunc(n.Value, func(s string) string {
		m := exprPattern.FindStringSubmatch(s)
		return lookup(payload, m[1]).String()
	})
	return &out, nil
}

func lookup(payload []byte, p string) gjson.Result {
	p = strings.TrimPrefix(p, ".")
	if p == "" {
		return gjson.ParseBytes(payload)
	}
	return gjson.GetBytes(payload, p)
}

func valueNode(r gjson.Result) (*yaml.Node, error) {
	switch r.Type {
	case gjson.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case gjson.True, gjson.False:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: r.Raw}, nil
	case gjson.Number:
		tag := "!!int"
		if strings.ContainsAny(r.Raw, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: r.Raw}, nil
	case gjson.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Str}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(r.Raw), &v); err != nil {
		return nil, fmt.Errorf("expression value: %w", err)
	}
	var out yaml.Node
	if err := out.Encode(v); err != nil {
		return nil, fmt.Errorf("expression value: %w", err)
	}
	return &out, nil
}
