package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrEmptyUpload is returned when an upload carries no bytes.
	ErrEmptyUpload = errors.New("upload is empty")
	// ErrEmptyKey is returned when an object key is blank.
	ErrEmptyKey = errors.New("empty object key")
)

// Store persists uploaded files and returns a URL they can be fetched from.
type Store interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// ObjectName builds the stored file name <unixms>-<random><ext> for an upload,
// keeping the extension of the client-supplied name.
func ObjectName(now time.Time, original string) string {
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), rand.IntN(1e9), cleanExt(original))
}

// ObjectKey joins a role directory such as "videos" or "thumb" with a name.
func ObjectKey(role, name string) string {
	return path.Join(role, path.Base("/"+name))
}

func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
