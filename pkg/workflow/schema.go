package workflow

// PropertyType selects how the host renders and validates a NodeProperty.
type PropertyType string

// Property types understood by the host.
const (
	PropertyString       PropertyType = "string"
	PropertyNumber       PropertyType = "number"
	PropertyBoolean      PropertyType = "boolean"
	PropertyOptions      PropertyType = "options"
	PropertyMultiOptions PropertyType = "multiOptions"
	PropertyCollection   PropertyType = "collection"
	PropertyNotice       PropertyType = "notice"
)

// Webhook response modes.
const (
	// ResponseOnReceived acknowledges the caller as soon as the trigger has
	// produced its data, without waiting for downstream nodes.
	ResponseOnReceived = "onReceived"
	// ResponseLastNode waits for the whole workflow.
	ResponseLastNode = "lastNode"
)

// PropertyOption is one choice of an options or multiOptions property.
type PropertyOption struct {
	Name        string `json:"name" yaml:"name"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string `json:"action,omitempty" yaml:"action,omitempty"`
}

// DisplayOptions conditionally shows a property based on sibling values.
type DisplayOptions struct {
	Show map[string][]any `json:"show,omitempty" yaml:"show,omitempty"`
}

// NodeProperty declares one parameter of a node or field of a credential.
type NodeProperty struct {
	DisplayName    string           `json:"displayName" yaml:"displayName"`
	Name           string           `json:"name" yaml:"name"`
	Type           PropertyType     `json:"type" yaml:"type"`
	Default        any              `json:"default" yaml:"default"`
	Required       bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Password       bool             `json:"password,omitempty" yaml:"password,omitempty"`
	Description    string           `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder    string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options        []PropertyOption `json:"options,omitempty" yaml:"options,omitempty"`
	Collection     []NodeProperty   `json:"collection,omitempty" yaml:"collection,omitempty"`
	DisplayOptions *DisplayOptions  `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
}

// CredentialRef binds a node to a credential type.
type CredentialRef struct {
	Name     string `json:"name" yaml:"name"`
	Required bool   `json:"required" yaml:"required"`
}

// WebhookDescription declares one inbound endpoint of a trigger node.
type WebhookDescription struct {
	Name         string `json:"name" yaml:"name"`
	HTTPMethod   string `json:"httpMethod" yaml:"httpMethod"`
	ResponseMode string `json:"responseMode" yaml:"responseMode"`
	Path         string `json:"path" yaml:"path"`
}

// NodeDescription is the static metadata of a node type.
type NodeDescription struct {
	DisplayName string               `json:"displayName" yaml:"displayName"`
	Name        string               `json:"name" yaml:"name"`
	Icon        string               `json:"icon,omitempty" yaml:"icon,omitempty"`
	Group       []string             `json:"group" yaml:"group"`
	Version     int                  `json:"version" yaml:"version"`
	Subtitle    string               `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Description string               `json:"description" yaml:"description"`
	Defaults    map[string]string    `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Inputs      []string             `json:"inputs" yaml:"inputs"`
	Outputs     []string             `json:"outputs" yaml:"outputs"`
	Credentials []CredentialRef      `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Webhooks    []WebhookDescription `json:"webhooks,omitempty" yaml:"webhooks,omitempty"`
	Properties  []NodeProperty       `json:"properties" yaml:"properties"`
}

// Webhook returns the declared webhook with the given name.
func (d NodeDescription) Webhook(name string) (WebhookDescription, bool) {
	for _, w := range d.Webhooks {
		if w.Name == name {
			return w, true
		}
	}
	return WebhookDescription{}, false
}

// CredentialTestRequest is the request used to verify a credential.
type CredentialTestRequest struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
	URL     string `json:"url" yaml:"url"`
}

// CredentialDescription is the static metadata of a credential type.
type CredentialDescription struct {
	Name        string                `json:"name" yaml:"name"`
	DisplayName string                `json:"displayName" yaml:"displayName"`
	Properties  []NodeProperty        `json:"properties" yaml:"properties"`
	Test        CredentialTestRequest `json:"test" yaml:"test"`
}
