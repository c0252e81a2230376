package telegram

import "github.com/flemzord/tgflow/pkg/workflow"

func showFor(resource string, ops ...string) *workflow.DisplayOptions {
	show := map[string][]any{"resource": {resource}}
	if len(ops) > 0 {
		opVals := make([]any, len(ops))
		for i, o := range ops {
			opVals[i] = o
		}
		show["operation"] = opVals
	}
	return &workflow.DisplayOptions{Show: show}
}

func stringProp(displayName, name, description string, show *workflow.DisplayOptions) workflow.NodeProperty {
	return workflow.NodeProperty{
		DisplayName:    displayName,
		Name:           name,
		Type:           workflow.PropertyString,
		Default:        "",
		Required:       true,
		Description:    description,
		DisplayOptions: show,
	}
}

func actionProperties() []workflow.NodeProperty {
	chatID := stringProp("Chat ID", "chatId",
		"Unique identifier for the target chat or username of the target channel (in the format @channelusername)",
		nil)
	chatID.DisplayOptions = &workflow.DisplayOptions{Show: map[string][]any{"resource": {"chat", "message"}}}

	return []workflow.NodeProperty{
		{
			DisplayName: "Resource",
			Name:        "resource",
			Type:        workflow.PropertyOptions,
			Default:     "message",
			Options: []workflow.PropertyOption{
				{Name: "Callback", Value: "callback"},
				{Name: "Chat", Value: "chat"},
				{Name: "File", Value: "file"},
				{Name: "Message", Value: "message"},
			},
		},
		{
			DisplayName:    "Operation",
			Name:           "operation",
			Type:           workflow.PropertyOptions,
			Default:        "sendMessage",
			DisplayOptions: showFor("message"),
			Options: []workflow.PropertyOption{
				{Name: "Delete Chat Message", Value: "deleteMessage", Action: "Delete a chat message"},
				{Name: "Edit Message Text", Value: "editMessageText", Action: "Edit a text message"},
				{Name: "Pin Chat Message", Value: "pinChatMessage", Action: "Pin a chat message"},
				{Name: "Send Chat Action", Value: "sendChatAction", Action: "Send a chat action"},
				{Name: "Send Document", Value: "sendDocument", Action: "Send a document"},
				{Name: "Send Message", Value: "sendMessage", Action: "Send a text message"},
				{Name: "Send Photo", Value: "sendPhoto", Action: "Send a photo message"},
				{Name: "Unpin Chat Message", Value: "unpinChatMessage", Action: "Unpin a chat message"},
			},
		},
		{
			DisplayName:    "Operation",
			Name:           "operation",
			Type:           workflow.PropertyOptions,
			Default:        "get",
			DisplayOptions: showFor("chat"),
			Options: []workflow.PropertyOption{
				{Name: "Get", Value: "get", Action: "Get a chat"},
				{Name: "Get Administrators", Value: "administrators", Action: "Get all administrators in a chat"},
				{Name: "Get Member", Value: "member", Action: "Get a member in a chat"},
				{Name: "Leave", Value: "leave", Action: "Leave a chat"},
				{Name: "Set Description", Value: "setDescription", Action: "Set description on a chat"},
				{Name: "Set Title", Value: "setTitle", Action: "Set a title on a chat"},
			},
		},
		{
			DisplayName:    "Operation",
			Name:           "operation",
			Type:           workflow.PropertyOptions,
			Default:        "answerQuery",
			DisplayOptions: showFor("callback"),
			Options: []workflow.PropertyOption{
				{Name: "Answer Query", Value: "answerQuery", Action: "Answer a callback query"},
			},
		},
		{
			DisplayName:    "Operation",
			Name:           "operation",
			Type:           workflow.PropertyOptions,
			Default:        "get",
			DisplayOptions: showFor("file"),
			Options: []workflow.PropertyOption{
				{Name: "Get", Value: "get", Action: "Get a file"},
			},
		},
		chatID,
		stringProp("Message ID", "messageId", "Identifier of the message",
			showFor("message", "editMessageText", "deleteMessage", "pinChatMessage", "unpinChatMessage")),
		stringProp("Text", "text", "Text of the message to be sent",
			showFor("message", "sendMessage", "editMessageText")),
		stringProp("File", "file", "A file_id already on Telegram's servers, or an HTTP URL",
			showFor("message", "sendPhoto", "sendDocument")),
		{
			DisplayName:    "Action",
			Name:           "action",
			Type:           workflow.PropertyOptions,
			Default:        "typing",
			Required:       true,
			DisplayOptions: showFor("message", "sendChatAction"),
			Options: []workflow.PropertyOption{
				{Name: "Find Location", Value: "find_location"},
				{Name: "Record Audio", Value: "record_audio"},
				{Name: "Record Video", Value: "record_video"},
				{Name: "Typing", Value: "typing"},
				{Name: "Upload Audio", Value: "upload_audio"},
				{Name: "Upload Document", Value: "upload_document"},
				{Name: "Upload Photo", Value: "upload_photo"},
				{Name: "Upload Video", Value: "upload_video"},
			},
		},
		stringProp("User ID", "userId", "Unique identifier of the target user", showFor("chat", "member")),
		stringProp("Title", "title", "New chat title, 1-255 characters", showFor("chat", "setTitle")),
		stringProp("Description", "description", "New chat description, 0-255 characters", showFor("chat", "setDescription")),
		stringProp("Query ID", "queryId", "Unique identifier for the query to be answered", showFor("callback", "answerQuery")),
		stringProp("File ID", "fileId", "The ID of the file", showFor("file", "get")),
		{
			DisplayName:    "Download",
			Name:           "download",
			Type:           workflow.PropertyBoolean,
			Default:        true,
			Description:    "Whether to download the file",
			DisplayOptions: showFor("file", "get"),
		},
		{
			DisplayName: "Additional Fields",
			Name:        "additionalFields",
			Type:        workflow.PropertyCollection,
			Placeholder: "Add Field",
			Default:     map[string]any{},
			DisplayOptions: &workflow.DisplayOptions{Show: map[string][]any{
				"operation": {"sendMessage", "editMessageText", "pinChatMessage", "sendPhoto", "sendDocument", "answerQuery"},
			}},
			Collection: []workflow.NodeProperty{
				{DisplayName: "Disable Notification", Name: "disable_notification", Type: workflow.PropertyBoolean, Default: false},
				{DisplayName: "Disable Web Page Preview", Name: "disable_web_page_preview", Type: workflow.PropertyBoolean, Default: false},
				{
					DisplayName: "Parse Mode",
					Name:        "parse_mode",
					Type:        workflow.PropertyOptions,
					Default:     "HTML",
					Options: []workflow.PropertyOption{
						{Name: "Markdown (Legacy)", Value: "Markdown"},
						{Name: "MarkdownV2", Value: "MarkdownV2"},
						{Name: "HTML", Value: "HTML"},
					},
				},
				{DisplayName: "Caption", Name: "caption", Type: workflow.PropertyString, Default: ""},
				{DisplayName: "Reply To Message ID", Name: "reply_to_message_id", Type: workflow.PropertyNumber, Default: 0},
				{DisplayName: "Text", Name: "text", Type: workflow.PropertyString, Default: "", Description: "Callback answer text"},
				{DisplayName: "Show Alert", Name: "show_alert", Type: workflow.PropertyBoolean, Default: false},
				{DisplayName: "URL", Name: "url", Type: workflow.PropertyString, Default: ""},
				{DisplayName: "Cache Time", Name: "cache_time", Type: workflow.PropertyNumber, Default: 0},
			},
		},
	}
}
