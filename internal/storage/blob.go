package storage

import (
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrBadKey = errors.New("invalid blob key")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// AttachmentKey builds papers/{paperID}/{number}/{uuid}{ext}. The item
// number is kept readable but stripped of path separators.
func AttachmentKey(paperID, number, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return path.Join("papers", safeSegment(paperID), safeSegment(number), uuid.NewString()+ext)
}

func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// CleanKey rejects absolute keys and keys that climb out of the store.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrBadKey
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") || strings.Contains(c, "\\") {
		return "", ErrBadKey
	}
	return c, nil
}

// ContentType guesses a response type from the key's extension.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
