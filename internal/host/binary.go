package host

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// prepareBinaryData wraps data as an item attachment. An empty mimeType is
// taken from the file extension, then sniffed from the content.
func prepareBinaryData(data []byte, fileName, mimeType string) (workflow.BinaryData, error) {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")

	if mimeType == "" && ext != "" {
		mimeType = mime.TypeByExtension("." + ext)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mediaType
	}

	return workflow.BinaryData{
		Data:          data,
		MimeType:      mimeType,
		FileName:      fileName,
		FileExtension: ext,
		FileSize:      humanize.Bytes(uint64(len(data))),
	}, nil
}
