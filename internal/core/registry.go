// Package core holds the node and credential type registry and the
// component lifecycle shared by the tgflow host.
package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// Lookup errors.
var (
	ErrUnknownNode       = errors.New("unknown node type")
	ErrUnknownCredential = errors.New("unknown credential type")
)

var (
	nodes       = make(map[string]workflow.NodeType)
	credentials = make(map[string]workflow.CredentialType)
	registryMu  sync.RWMutex
)

// RegisterNode registers a node type under its description name.
// It panics if the name is empty or already registered. Intended to be
// called from init() functions.
func RegisterNode(n workflow.NodeType) {
	name := n.Description().Name
	if name == "" {
		panic("node type name must not be empty")
	}
	_, isExec := n.(workflow.Executor)
	_, isTrigger := n.(workflow.Trigger)
	if !isExec && !isTrigger {
		panic(fmt.Sprintf("node type %s: must implement Executor or Trigger", name))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := nodes[name]; exists {
		panic(fmt.Sprintf("node type already registered: %s", name))
	}
	nodes[name] = n
}

// RegisterCredential registers a credential type under its description name.
func RegisterCredential(c workflow.CredentialType) {
	name := c.Description().Name
	if name == "" {
		panic("credential type name must not be empty")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := credentials[name]; exists {
		panic(fmt.Sprintf("credential type already registered: %s", name))
	}
	credentials[name] = c
}

// LookupNode returns the node type with the given name.
func LookupNode(name string) (workflow.NodeType, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	n, ok := nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return n, nil
}

// LookupTrigger returns the named node type if it is a trigger.
func LookupTrigger(name string) (workflow.Trigger, error) {
	n, err := LookupNode(name)
	if err != nil {
		return nil, err
	}
	t, ok := n.(workflow.Trigger)
	if !ok {
		return nil, fmt.Errorf("node type %s is not a trigger", name)
	}
	return t, nil
}

// LookupExecutor returns the named node type if it is an action node.
func LookupExecutor(name string) (workflow.Executor, error) {
	n, err := LookupNode(name)
	if err != nil {
		return nil, err
	}
	e, ok := n.(workflow.Executor)
	if !ok {
		return nil, fmt.Errorf("node type %s is not an action node", name)
	}
	return e, nil
}

// LookupCredential returns the credential type with the given name.
func LookupCredential(name string) (workflow.CredentialType, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := credentials[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCredential, name)
	}
	return c, nil
}

// Nodes returns the descriptions of all registered node types sorted by name.
func Nodes() []workflow.NodeDescription {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]workflow.NodeDescription, 0, len(nodes))
	for _, n := range nodes {
		result = append(result, n.Description())
	}
	slices.SortFunc(result, func(a, b workflow.NodeDescription) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return result
}

// Credentials returns the descriptions of all registered credential types
// sorted by name.
func Credentials() []workflow.CredentialDescription {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]workflow.CredentialDescription, 0, len(credentials))
	for _, c := range credentials {
		result = append(result, c.Description())
	}
	slices.SortFunc(result, func(a, b workflow.CredentialDescription) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return result
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	nodes = make(map[string]workflow.NodeType)
	credentials = make(map[string]workflow.CredentialType)
}
