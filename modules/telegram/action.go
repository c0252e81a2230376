package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// ActionName is the node type name of the action node.
const ActionName = "telegram"

type fieldKind int

const (
	// fieldText is always sent as a JSON string.
	fieldText fieldKind = iota
	// fieldValue keeps the decoded YAML type, so numeric ids stay numbers
	// and "@channel" stays a string.
	fieldValue
)

type field struct {
	param string
	key   string
	kind  fieldKind
}

type operation struct {
	method     string
	fields     []field
	additional bool
}

var (
	chatIDField    = field{param: "chatId", key: "chat_id", kind: fieldValue}
	messageIDField = field{param: "messageId", key: "message_id", kind: fieldValue}
)

// operations maps resource → operation → Bot API call.
var operations = map[string]map[string]operation{
	"message": {
		"sendMessage": {
			method:     "sendMessage",
			fields:     []field{chatIDField, {param: "text", key: "text"}},
			additional: true,
		},
		"editMessageText": {
			method:     "editMessageText",
			fields:     []field{chatIDField, messageIDField, {param: "text", key: "text"}},
			additional: true,
		},
		"deleteMessage": {
			method: "deleteMessage",
			fields: []field{chatIDField, messageIDField},
		},
		"pinChatMessage": {
			method:     "pinChatMessage",
			fields:     []field{chatIDField, messageIDField},
			additional: true,
		},
		"unpinChatMessage": {
			method: "unpinChatMessage",
			fields: []field{chatIDField, messageIDField},
		},
		"sendPhoto": {
			method:     "sendPhoto",
			fields:     []field{chatIDField, {param: "file", key: "photo"}},
			additional: true,
		},
		"sendDocument": {
			method:     "sendDocument",
			fields:     []field{chatIDField, {param: "file", key: "document"}},
			additional: true,
		},
		"sendChatAction": {
			method: "sendChatAction",
			fields: []field{chatIDField, {param: "action", key: "action"}},
		},
	},
	"chat": {
		"get":            {method: "getChat", fields: []field{chatIDField}},
		"leave":          {method: "leaveChat", fields: []field{chatIDField}},
		"administrators": {method: "getChatAdministrators", fields: []field{chatIDField}},
		"member": {
			method: "getChatMember",
			fields: []field{chatIDField, {param: "userId", key: "user_id", kind: fieldValue}},
		},
		"setTitle": {
			method: "setChatTitle",
			fields: []field{chatIDField, {param: "title", key: "title"}},
		},
		"setDescription": {
			method: "setChatDescription",
			fields: []field{chatIDField, {param: "description", key: "description"}},
		},
	},
	"callback": {
		"answerQuery": {
			method:     "answerCallbackQuery",
			fields:     []field{{param: "queryId", key: "callback_query_id"}},
			additional: true,
		},
	},
	"file": {
		"get": {method: "getFile", fields: []field{{param: "fileId", key: "file_id"}}},
	},
}

// Action is the telegram action node.
type Action struct{}

var _ workflow.Executor = Action{}

// Description implements workflow.NodeType.
func (Action) Description() workflow.NodeDescription {
	return workflow.NodeDescription{
		DisplayName: "Telegram",
		Name:        ActionName,
		Icon:        "file:telegram.svg",
		Group:       []string{"output"},
		Version:     1,
		Subtitle:    `={{$parameter["operation"] + ": " + $parameter["resource"]}}`,
		Description: "Sends data to Telegram",
		Defaults:    map[string]string{"name": "Telegram"},
		Inputs:      []string{"main"},
		Outputs:     []string{"main"},
		Credentials: []workflow.CredentialRef{{Name: CredentialName, Required: true}},
		Properties:  actionProperties(),
	}
}

// Execute runs the selected operation once per input item.
func (Action) Execute(ctx context.Context, ec workflow.ExecuteContext) ([][]workflow.Item, error) {
	var resource, opName string
	if err := ec.Parameter("resource", &resource); err != nil {
		return nil, workflow.Configf(ActionName, "resource: %v", err)
	}
	if err := ec.Parameter("operation", &opName); err != nil {
		return nil, workflow.Configf(ActionName, "operation: %v", err)
	}
	op, ok := operations[resource][opName]
	if !ok {
		return nil, workflow.Configf(ActionName, "unsupported operation %s/%s", resource, opName)
	}

	c, err := clientFor(ctx, ec)
	if err != nil {
		return nil, err
	}

	input := ec.Input()
	out := make([]workflow.Item, 0, len(input))
	for i := range input {
		items, err := runOperation(ctx, ec, c, resource, op, i)
		if err != nil {
			if !ec.ContinueOnFail() {
				return nil, err
			}
			out = append(out, errorItem(err))
			continue
		}
		out = append(out, items...)
	}
	return [][]workflow.Item{out}, nil
}

func runOperation(ctx context.Context, ec workflow.ExecuteContext, c *Client, resource string, op operation, item int) ([]workflow.Item, error) {
	body, err := requestBody(ec, op, item)
	if err != nil {
		return nil, err
	}

	result, err := c.Request(ctx, http.MethodPost, op.method, body, nil)
	if err != nil {
		return nil, err
	}

	if resource == "file" {
		return fileItem(ctx, ec, c, result, item)
	}
	return resultItems(result), nil
}

func requestBody(ec workflow.ExecuteContext, op operation, item int) (map[string]any, error) {
	body := make(map[string]any, len(op.fields)+2)
	if op.additional {
		var extra map[string]any
		if err := ec.ItemParameter("additionalFields", item, &extra); err != nil {
			return nil, workflow.Configf(ActionName, "additionalFields: %v", err)
		}
		for k, v := range extra {
			body[k] = v
		}
	}

	for _, f := range op.fields {
		var v any
		switch f.kind {
		case fieldText:
			var s string
			if err := ec.ItemParameter(f.param, item, &s); err != nil {
				return nil, workflow.Configf(ActionName, "%s: %v", f.param, err)
			}
			if s == "" {
				return nil, workflow.Configf(ActionName, "%s is required", f.param)
			}
			v = s
		case fieldValue:
			if err := ec.ItemParameter(f.param, item, &v); err != nil {
				return nil, workflow.Configf(ActionName, "%s: %v", f.param, err)
			}
			if v == nil || v == "" {
				return nil, workflow.Configf(ActionName, "%s is required", f.param)
			}
		}
		body[f.key] = v
	}
	return body, nil
}

// fileItem returns the getFile result, with the file attached when the
// download parameter is set.
func fileItem(ctx context.Context, ec workflow.ExecuteContext, c *Client, result json.RawMessage, item int) ([]workflow.Item, error) {
	out := workflow.NewItem(result)

	var download bool
	if err := ec.ItemParameter("download", item, &download); err != nil {
		return nil, workflow.Configf(ActionName, "download: %v", err)
	}
	if !download {
		return []workflow.Item{out}, nil
	}

	var file File
	if err := json.Unmarshal(result, &file); err != nil {
		return nil, fmt.Errorf("telegram: decode getFile result: %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("telegram: getFile %s returned no file_path", file.FileID)
	}
	data, err := c.Download(ctx, file.FilePath)
	if err != nil {
		return nil, err
	}
	bin, err := ec.PrepareBinaryData(data, path.Base(file.FilePath), "")
	if err != nil {
		return nil, fmt.Errorf("telegram: prepare file: %w", err)
	}
	out.Binary = map[string]workflow.BinaryData{"data": bin}
	return []workflow.Item{out}, nil
}

// resultItems turns an API result into output items: objects as-is, one
// item per array element, anything else wrapped as {"result": ...}.
func resultItems(result json.RawMessage) []workflow.Item {
	trimmed := bytes.TrimSpace(result)
	if len(trimmed) == 0 {
		trimmed = []byte("null")
	}
	switch {
	case trimmed[0] == '{':
		return []workflow.Item{workflow.NewItem(trimmed)}
	case trimmed[0] == '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err == nil {
			items := make([]workflow.Item, 0, len(elems))
			for _, e := range elems {
				items = append(items, resultItems(e)...)
			}
			return items
		}
	}
	wrapped, _ := json.Marshal(map[string]json.RawMessage{"result": trimmed})
	return []workflow.Item{workflow.NewItem(wrapped)}
}

func errorItem(err error) workflow.Item {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return workflow.NewItem(data)
}
