package xid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectName builds a storage key like "1717171717171-3f9a2c1b.jpg".
func ObjectName(ext string, now time.Time) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "jpg"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s.%s", now.UnixMilli(), suffix, ext)
}

// RequestID returns a fresh id for requests that arrive without one.
func RequestID() string {
	return uuid.NewString()
}
