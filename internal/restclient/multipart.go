package restclient

import (
	"fmt"
	"net/textproto"
	"strings"
)

func fileHeader(field, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

// extensionFor maps a recorder content type onto a file extension.
func extensionFor(contentType string) string {
	base, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	switch strings.TrimSpace(base) {
	case "video/mp4":
		return "mp4"
	case "video/quicktime":
		return "mov"
	case "video/ogg":
		return "ogv"
	default:
		return "webm"
	}
}
