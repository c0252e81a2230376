package telegram

import (
	"context"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// ImageSize selects which photo variant the trigger downloads.
type ImageSize string

// Supported image sizes.
const (
	ImageSmall      ImageSize = "small"
	ImageMedium     ImageSize = "medium"
	ImageLarge      ImageSize = "large"
	ImageExtraLarge ImageSize = "extraLarge"
)

// UnmarshalYAML rejects values outside the supported set. An empty value
// is kept empty and later treated as large.
func (s *ImageSize) UnmarshalYAML(node *yaml.Node) error {
	var v string
	if err := node.Decode(&v); err != nil {
		return err
	}
	switch ImageSize(v) {
	case "", ImageSmall, ImageMedium, ImageLarge, ImageExtraLarge:
		*s = ImageSize(v)
		return nil
	default:
		return fmt.Errorf("unknown image size %q", v)
	}
}

// AdditionalFields are the trigger's optional settings.
type AdditionalFields struct {
	Download  bool      `yaml:"download"`
	ImageSize ImageSize `yaml:"imageSize"`
}

func defaultAdditionalFields() AdditionalFields {
	return AdditionalFields{ImageSize: ImageLarge}
}

// photoIndex maps an image size onto an index into a photo array of the
// given length. The result is always a valid index for count > 0.
func photoIndex(size ImageSize, count int) int {
	var idx int
	switch size {
	case ImageSmall:
		idx = 0
	case ImageMedium:
		idx = count / 2
	case ImageLarge:
		idx = 2
	case ImageExtraLarge:
		idx = 3
	}
	if idx < 0 || idx >= count {
		return 0
	}
	return idx
}

// sourceMessage returns the message the resolver inspects. Channel posts
// carry their content under channel_post; everything else under message.
func sourceMessage(u *Update) *Message {
	switch u.Kind() {
	case UpdateChannelPost:
		return u.ChannelPost
	case UpdateMessage:
		return u.Message
	case UpdateEditedMessage, UpdateEditedChannelPost, UpdateCallbackQuery,
		UpdateInlineQuery, UpdatePoll, UpdatePreCheckoutQuery, UpdateShippingQuery,
		UpdateUnknown:
		return nil
	default:
		return nil
	}
}

// attachmentFileID picks the file to download, or "" when the message has
// no attachment. Photos win over documents; an empty photo array does not
// count as a photo.
func attachmentFileID(msg *Message, size ImageSize) string {
	if msg == nil {
		return ""
	}
	if len(msg.Photo) > 0 {
		return msg.Photo[photoIndex(size, len(msg.Photo))].FileID
	}
	if msg.Document != nil {
		return msg.Document.FileID
	}
	return ""
}

// resolveAttachment turns one update into the trigger's output item. When
// download is enabled and the update carries an attachment, the file is
// fetched and attached as binary "data".
func resolveAttachment(ctx context.Context, wctx workflow.WebhookContext, c *Client, update *Update, body []byte, fields AdditionalFields) (workflow.Item, error) {
	item := workflow.NewItem(body)
	if !fields.Download {
		return item, nil
	}

	fileID := attachmentFileID(sourceMessage(update), fields.ImageSize)
	if fileID == "" {
		return item, nil
	}

	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return workflow.Item{}, err
	}
	if file.FilePath == "" {
		return workflow.Item{}, fmt.Errorf("telegram: getFile %s returned no file_path", fileID)
	}

	data, err := c.Download(ctx, file.FilePath)
	if err != nil {
		return workflow.Item{}, err
	}

	bin, err := wctx.PrepareBinaryData(data, path.Base(file.FilePath), "")
	if err != nil {
		return workflow.Item{}, fmt.Errorf("telegram: prepare attachment: %w", err)
	}
	item.Binary = map[string]workflow.BinaryData{"data": bin}
	return item, nil
}
